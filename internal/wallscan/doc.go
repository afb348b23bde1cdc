// Package wallscan reconstructs a wall's deviation from flatness out of
// leveled LiDAR range readings.
//
// Responsibilities: parsing the line-oriented scan format, projecting each
// polar reading onto the wall plane, estimating a per-level baseline
// distance, binning deviations into a fixed grid and smoothing the grid
// into a surface.
//
// Every stage is a pure transformation over a complete in-memory input; the
// package holds no state between calls and performs no I/O. Rendering and
// persistence live in render and internal/db.
package wallscan
