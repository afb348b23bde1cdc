package wallscan

import (
	"fmt"

	"github.com/banshee-data/plastermate/internal/config"
)

// ProjectionMode selects how a level index becomes a vertical position.
type ProjectionMode string

const (
	ProjectionTrigonometric ProjectionMode = config.ProjectionTrigonometric
	ProjectionDirect        ProjectionMode = config.ProjectionDirect
)

// BaselineMode selects the reference distance subtracted from each reading.
type BaselineMode string

const (
	BaselinePerLevelMin      BaselineMode = config.BaselinePerLevelMin
	BaselineGlobalMeanOfMins BaselineMode = config.BaselineGlobalMeanOfMins
)

// Config holds the resolved reconstruction parameters.
type Config struct {
	ElevationStepDegrees  float64        // tilt increment between levels (trigonometric mode)
	Projection            ProjectionMode // default: direct
	LevelHeightStepMeters float64        // vertical spacing between levels (direct mode)

	WallWidthMeters  float64 // horizontal extent, centered on the sensor axis
	WallHeightMeters float64 // vertical extent, starting at 0
	ResolutionX      int     // horizontal bin count
	ResolutionZ      int     // vertical bin count

	SmoothingSigma    float64 // Gaussian standard deviation in cells
	SmoothingTruncate float64 // kernel radius in sigmas

	Baseline BaselineMode
}

// ConfigFromFile builds a Config from a loaded WallScanConfig. Unset fields
// resolve to the WallScanConfig defaults.
func ConfigFromFile(cfg *config.WallScanConfig) Config {
	return Config{
		ElevationStepDegrees:  cfg.GetElevationStepDegrees(),
		Projection:            ProjectionMode(cfg.GetProjectionMode()),
		LevelHeightStepMeters: cfg.GetLevelHeightStepM(),
		WallWidthMeters:       cfg.GetWallWidthM(),
		WallHeightMeters:      cfg.GetWallHeightM(),
		ResolutionX:           cfg.GetGridResolutionX(),
		ResolutionZ:           cfg.GetGridResolutionZ(),
		SmoothingSigma:        cfg.GetSmoothingSigma(),
		SmoothingTruncate:     cfg.GetSmoothingTruncate(),
		Baseline:              BaselineMode(cfg.GetBaselineMode()),
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return ConfigFromFile(config.EmptyWallScanConfig())
}

// Extent returns the physical binning domain.
func (c Config) Extent() Extent {
	half := c.WallWidthMeters / 2
	return Extent{XMin: -half, XMax: half, ZMin: 0, ZMax: c.WallHeightMeters}
}

// Projector returns the projector described by c.
func (c Config) Projector() Projector {
	return Projector{
		Mode:                  c.Projection,
		ElevationStepDegrees:  c.ElevationStepDegrees,
		LevelHeightStepMeters: c.LevelHeightStepMeters,
	}
}

// Validate reports the first invalid field as a *config.ConfigurationError.
func (c Config) Validate() error {
	switch c.Projection {
	case ProjectionTrigonometric, ProjectionDirect:
	default:
		return &config.ConfigurationError{Field: "projection_mode", Reason: fmt.Sprintf("unknown mode %q", c.Projection)}
	}
	switch c.Baseline {
	case BaselinePerLevelMin, BaselineGlobalMeanOfMins:
	default:
		return &config.ConfigurationError{Field: "baseline_mode", Reason: fmt.Sprintf("unknown mode %q", c.Baseline)}
	}
	if !isFinite(c.ElevationStepDegrees) {
		return &config.ConfigurationError{Field: "elevation_step_degrees", Reason: "must be finite"}
	}
	if !isFinite(c.LevelHeightStepMeters) || c.LevelHeightStepMeters < 0 {
		return &config.ConfigurationError{Field: "level_height_step_m", Reason: fmt.Sprintf("must be a non-negative finite number, got %v", c.LevelHeightStepMeters)}
	}
	if !isFinite(c.WallWidthMeters) || c.WallWidthMeters <= 0 {
		return &config.ConfigurationError{Field: "wall_width_m", Reason: fmt.Sprintf("must be positive, got %v", c.WallWidthMeters)}
	}
	if !isFinite(c.WallHeightMeters) || c.WallHeightMeters <= 0 {
		return &config.ConfigurationError{Field: "wall_height_m", Reason: fmt.Sprintf("must be positive, got %v", c.WallHeightMeters)}
	}
	if c.ResolutionX <= 0 {
		return &config.ConfigurationError{Field: "grid_resolution_x", Reason: fmt.Sprintf("must be positive, got %d", c.ResolutionX)}
	}
	if c.ResolutionZ <= 0 {
		return &config.ConfigurationError{Field: "grid_resolution_z", Reason: fmt.Sprintf("must be positive, got %d", c.ResolutionZ)}
	}
	if _, err := NewSmoother(c.SmoothingSigma, c.SmoothingTruncate); err != nil {
		return err
	}
	return nil
}
