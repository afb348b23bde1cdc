package wallscan

import "math"

// SphericalToCartesian converts a range with azimuth and elevation in
// degrees to sensor-frame Cartesian coordinates: x across the wall, y
// toward the wall along the boresight, z up.
func SphericalToCartesian(distance, azimuthDeg, elevationDeg float64) (x, y, z float64) {
	azimuthRad := azimuthDeg * math.Pi / 180.0
	elevationRad := elevationDeg * math.Pi / 180.0

	cosElevation := math.Cos(elevationRad)
	sinElevation := math.Sin(elevationRad)
	cosAzimuth := math.Cos(azimuthRad)
	sinAzimuth := math.Sin(azimuthRad)

	x = distance * cosElevation * sinAzimuth
	y = distance * cosElevation * cosAzimuth
	z = distance * sinElevation
	return
}

// ProjectedPoint is a reading placed on the wall plane together with its
// deviation from the baseline. Points only live until they are binned.
type ProjectedPoint struct {
	XMeters     float64
	ZMeters     float64
	DeviationMM float64
}

// Projector maps readings onto wall-plane coordinates in metres.
type Projector struct {
	Mode                  ProjectionMode
	ElevationStepDegrees  float64
	LevelHeightStepMeters float64
}

// ElevationDegrees returns the tilt of a level: (level-1) * step.
func (p Projector) ElevationDegrees(level int) float64 {
	return float64(level-1) * p.ElevationStepDegrees
}

// Project returns the horizontal and vertical wall-plane position of r.
//
// Trigonometric mode: x = d*cos(el)*sin(az), z = d*sin(el).
// Direct mode: x = d*sin(az), z = (level-1) * level height step.
func (p Projector) Project(r Reading) (xMeters, zMeters float64) {
	switch p.Mode {
	case ProjectionDirect:
		x, _, _ := SphericalToCartesian(r.DistanceMM, r.AzimuthDegrees, 0)
		return x / 1000.0, float64(r.Level-1) * p.LevelHeightStepMeters
	default:
		x, _, z := SphericalToCartesian(r.DistanceMM, r.AzimuthDegrees, p.ElevationDegrees(r.Level))
		return x / 1000.0, z / 1000.0
	}
}
