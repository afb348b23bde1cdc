package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical wall scan defaults file.
const DefaultConfigPath = "config/wallscan.defaults.json"

// Projection modes. The two conventions disagree on how a level index maps
// to a vertical position, so exactly one must be selected.
const (
	// ProjectionTrigonometric tilts each level by elevation_step_degrees and
	// projects the range onto the wall plane.
	ProjectionTrigonometric = "trigonometric"
	// ProjectionDirect places each level at (level-1)*level_height_step_m
	// and ignores distance for the vertical axis.
	ProjectionDirect = "direct"
)

// Baseline modes.
const (
	// BaselinePerLevelMin subtracts the nearest return of the reading's own level.
	BaselinePerLevelMin = "per-level-min"
	// BaselineGlobalMeanOfMins subtracts one scalar: the mean of the per-level minimums.
	BaselineGlobalMeanOfMins = "global-mean-of-mins"
)

// WallScanConfig represents the reconstruction parameters for a wall scan.
// Fields are pointers so that partial JSON files only override what they
// name; the Get* methods supply defaults for the rest.
type WallScanConfig struct {
	// Geometry
	ElevationStepDegrees *float64 `json:"elevation_step_degrees,omitempty"`
	ProjectionMode       *string  `json:"projection_mode,omitempty"`
	LevelHeightStepM     *float64 `json:"level_height_step_m,omitempty"`

	// Grid extent and resolution
	WallWidthM      *float64 `json:"wall_width_m,omitempty"`
	WallHeightM     *float64 `json:"wall_height_m,omitempty"`
	GridResolutionX *int     `json:"grid_resolution_x,omitempty"`
	GridResolutionZ *int     `json:"grid_resolution_z,omitempty"`

	// Smoothing
	SmoothingSigma    *float64 `json:"smoothing_sigma,omitempty"`
	SmoothingTruncate *float64 `json:"smoothing_truncate,omitempty"`

	// Baseline
	BaselineMode *string `json:"baseline_mode,omitempty"`
}

// ConfigurationError reports an invalid configuration value. It is fatal and
// is raised before any scan data is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// EmptyWallScanConfig returns a WallScanConfig with all fields set to nil,
// which resolves to the built-in defaults through the Get* methods.
func EmptyWallScanConfig() *WallScanConfig {
	return &WallScanConfig{}
}

// LoadWallScanConfig loads a WallScanConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadWallScanConfig(path string) (*WallScanConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyWallScanConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *WallScanConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/wallscan/render/
		"../../../../" + DefaultConfigPath,    // deeper packages
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadWallScanConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks every value that is set. Unset values resolve to defaults
// which are always valid.
func (c *WallScanConfig) Validate() error {
	if c.ElevationStepDegrees != nil && !isFinite(*c.ElevationStepDegrees) {
		return &ConfigurationError{Field: "elevation_step_degrees", Reason: "must be finite"}
	}

	if c.ProjectionMode != nil {
		switch *c.ProjectionMode {
		case ProjectionTrigonometric, ProjectionDirect:
		default:
			return &ConfigurationError{Field: "projection_mode", Reason: fmt.Sprintf("unknown mode %q", *c.ProjectionMode)}
		}
	}

	if c.LevelHeightStepM != nil {
		if !isFinite(*c.LevelHeightStepM) || *c.LevelHeightStepM < 0 {
			return &ConfigurationError{Field: "level_height_step_m", Reason: fmt.Sprintf("must be a non-negative finite number, got %v", *c.LevelHeightStepM)}
		}
	}

	if c.WallWidthM != nil {
		if !isFinite(*c.WallWidthM) || *c.WallWidthM <= 0 {
			return &ConfigurationError{Field: "wall_width_m", Reason: fmt.Sprintf("must be positive, got %v", *c.WallWidthM)}
		}
	}
	if c.WallHeightM != nil {
		if !isFinite(*c.WallHeightM) || *c.WallHeightM <= 0 {
			return &ConfigurationError{Field: "wall_height_m", Reason: fmt.Sprintf("must be positive, got %v", *c.WallHeightM)}
		}
	}

	if c.GridResolutionX != nil && *c.GridResolutionX <= 0 {
		return &ConfigurationError{Field: "grid_resolution_x", Reason: fmt.Sprintf("must be positive, got %d", *c.GridResolutionX)}
	}
	if c.GridResolutionZ != nil && *c.GridResolutionZ <= 0 {
		return &ConfigurationError{Field: "grid_resolution_z", Reason: fmt.Sprintf("must be positive, got %d", *c.GridResolutionZ)}
	}

	if c.SmoothingSigma != nil {
		if !isFinite(*c.SmoothingSigma) || *c.SmoothingSigma <= 0 {
			return &ConfigurationError{Field: "smoothing_sigma", Reason: fmt.Sprintf("must be positive, got %v", *c.SmoothingSigma)}
		}
	}
	if c.SmoothingTruncate != nil {
		if !isFinite(*c.SmoothingTruncate) || *c.SmoothingTruncate <= 0 {
			return &ConfigurationError{Field: "smoothing_truncate", Reason: fmt.Sprintf("must be positive, got %v", *c.SmoothingTruncate)}
		}
	}

	if c.BaselineMode != nil {
		switch *c.BaselineMode {
		case BaselinePerLevelMin, BaselineGlobalMeanOfMins:
		default:
			return &ConfigurationError{Field: "baseline_mode", Reason: fmt.Sprintf("unknown mode %q", *c.BaselineMode)}
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// GetElevationStepDegrees returns the elevation_step_degrees value or the default.
func (c *WallScanConfig) GetElevationStepDegrees() float64 {
	if c.ElevationStepDegrees == nil {
		return 1.8
	}
	return *c.ElevationStepDegrees
}

// GetProjectionMode returns the projection_mode value or the default.
func (c *WallScanConfig) GetProjectionMode() string {
	if c.ProjectionMode == nil || *c.ProjectionMode == "" {
		return ProjectionDirect
	}
	return *c.ProjectionMode
}

// GetLevelHeightStepM returns the level_height_step_m value or the default.
func (c *WallScanConfig) GetLevelHeightStepM() float64 {
	if c.LevelHeightStepM == nil {
		return 0.2
	}
	return *c.LevelHeightStepM
}

// GetWallWidthM returns the wall_width_m value or the default.
func (c *WallScanConfig) GetWallWidthM() float64 {
	if c.WallWidthM == nil {
		return 4.0
	}
	return *c.WallWidthM
}

// GetWallHeightM returns the wall_height_m value or the default.
func (c *WallScanConfig) GetWallHeightM() float64 {
	if c.WallHeightM == nil {
		return 2.0
	}
	return *c.WallHeightM
}

// GetGridResolutionX returns the grid_resolution_x value or the default.
func (c *WallScanConfig) GetGridResolutionX() int {
	if c.GridResolutionX == nil {
		return 200
	}
	return *c.GridResolutionX
}

// GetGridResolutionZ returns the grid_resolution_z value or the default.
func (c *WallScanConfig) GetGridResolutionZ() int {
	if c.GridResolutionZ == nil {
		return 10
	}
	return *c.GridResolutionZ
}

// GetSmoothingSigma returns the smoothing_sigma value or the default.
func (c *WallScanConfig) GetSmoothingSigma() float64 {
	if c.SmoothingSigma == nil {
		return 2.0
	}
	return *c.SmoothingSigma
}

// GetSmoothingTruncate returns the smoothing_truncate value or the default.
// The kernel radius is int(truncate*sigma + 0.5) cells.
func (c *WallScanConfig) GetSmoothingTruncate() float64 {
	if c.SmoothingTruncate == nil {
		return 4.0
	}
	return *c.SmoothingTruncate
}

// GetBaselineMode returns the baseline_mode value or the default.
func (c *WallScanConfig) GetBaselineMode() string {
	if c.BaselineMode == nil || *c.BaselineMode == "" {
		return BaselinePerLevelMin
	}
	return *c.BaselineMode
}
