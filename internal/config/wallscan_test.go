package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

func TestEmptyWallScanConfigDefaults(t *testing.T) {
	cfg := EmptyWallScanConfig()

	if got := cfg.GetElevationStepDegrees(); got != 1.8 {
		t.Errorf("GetElevationStepDegrees() = %v, want 1.8", got)
	}
	if got := cfg.GetProjectionMode(); got != ProjectionDirect {
		t.Errorf("GetProjectionMode() = %q, want %q", got, ProjectionDirect)
	}
	if got := cfg.GetLevelHeightStepM(); got != 0.2 {
		t.Errorf("GetLevelHeightStepM() = %v, want 0.2", got)
	}
	if got := cfg.GetWallWidthM(); got != 4.0 {
		t.Errorf("GetWallWidthM() = %v, want 4.0", got)
	}
	if got := cfg.GetWallHeightM(); got != 2.0 {
		t.Errorf("GetWallHeightM() = %v, want 2.0", got)
	}
	if got := cfg.GetGridResolutionX(); got != 200 {
		t.Errorf("GetGridResolutionX() = %d, want 200", got)
	}
	if got := cfg.GetGridResolutionZ(); got != 10 {
		t.Errorf("GetGridResolutionZ() = %d, want 10", got)
	}
	if got := cfg.GetSmoothingSigma(); got != 2.0 {
		t.Errorf("GetSmoothingSigma() = %v, want 2.0", got)
	}
	if got := cfg.GetSmoothingTruncate(); got != 4.0 {
		t.Errorf("GetSmoothingTruncate() = %v, want 4.0", got)
	}
	if got := cfg.GetBaselineMode(); got != BaselinePerLevelMin {
		t.Errorf("GetBaselineMode() = %q, want %q", got, BaselinePerLevelMin)
	}
}

func TestLoadWallScanConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scan.json")

	testJSON := `{
  "elevation_step_degrees": 0,
  "projection_mode": "direct",
  "grid_resolution_x": 40,
  "baseline_mode": "global-mean-of-mins"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadWallScanConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ElevationStepDegrees == nil || *cfg.ElevationStepDegrees != 0 {
		t.Errorf("Expected ElevationStepDegrees 0, got %v", cfg.ElevationStepDegrees)
	}
	if cfg.GetProjectionMode() != ProjectionDirect {
		t.Errorf("Expected projection direct, got %q", cfg.GetProjectionMode())
	}
	if cfg.GetGridResolutionX() != 40 {
		t.Errorf("Expected grid_resolution_x 40, got %d", cfg.GetGridResolutionX())
	}
	if cfg.GetBaselineMode() != BaselineGlobalMeanOfMins {
		t.Errorf("Expected global baseline, got %q", cfg.GetBaselineMode())
	}
	// Omitted fields keep their defaults.
	if cfg.GetGridResolutionZ() != 10 {
		t.Errorf("Expected default grid_resolution_z 10, got %d", cfg.GetGridResolutionZ())
	}
}

func TestLoadWallScanConfigMissing(t *testing.T) {
	_, err := LoadWallScanConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadWallScanConfigWrongExtension(t *testing.T) {
	_, err := LoadWallScanConfig("config.yaml")
	if err == nil {
		t.Error("Expected error for non-json extension, got nil")
	}
}

func TestLoadWallScanConfigInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")
	if err := os.WriteFile(configPath, []byte(`{"smoothing_sigma": "wide"`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadWallScanConfig(configPath); err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadWallScanConfigRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad_sigma.json")
	if err := os.WriteFile(configPath, []byte(`{"smoothing_sigma": 0}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadWallScanConfig(configPath)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Field != "smoothing_sigma" {
		t.Errorf("Field = %q, want smoothing_sigma", cfgErr.Field)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.GetBaselineMode() != BaselinePerLevelMin {
		t.Errorf("default baseline mode = %q", cfg.GetBaselineMode())
	}
	if cfg.GetGridResolutionX() != 200 || cfg.GetGridResolutionZ() != 10 {
		t.Errorf("default grid = %dx%d, want 200x10", cfg.GetGridResolutionX(), cfg.GetGridResolutionZ())
	}
	if cfg.GetProjectionMode() != ProjectionDirect {
		t.Errorf("default projection = %q, want %q", cfg.GetProjectionMode(), ProjectionDirect)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *WallScanConfig
		wantField string
	}{
		{name: "empty config is valid", cfg: &WallScanConfig{}},
		{name: "zero elevation step is valid", cfg: &WallScanConfig{ElevationStepDegrees: ptrFloat64(0)}},
		{name: "nan elevation step", cfg: &WallScanConfig{ElevationStepDegrees: ptrFloat64(math.NaN())}, wantField: "elevation_step_degrees"},
		{name: "unknown projection", cfg: &WallScanConfig{ProjectionMode: ptrString("cylindrical")}, wantField: "projection_mode"},
		{name: "negative level height", cfg: &WallScanConfig{LevelHeightStepM: ptrFloat64(-0.2)}, wantField: "level_height_step_m"},
		{name: "zero width", cfg: &WallScanConfig{WallWidthM: ptrFloat64(0)}, wantField: "wall_width_m"},
		{name: "negative height", cfg: &WallScanConfig{WallHeightM: ptrFloat64(-1)}, wantField: "wall_height_m"},
		{name: "zero x resolution", cfg: &WallScanConfig{GridResolutionX: ptrInt(0)}, wantField: "grid_resolution_x"},
		{name: "negative z resolution", cfg: &WallScanConfig{GridResolutionZ: ptrInt(-3)}, wantField: "grid_resolution_z"},
		{name: "negative sigma", cfg: &WallScanConfig{SmoothingSigma: ptrFloat64(-1)}, wantField: "smoothing_sigma"},
		{name: "infinite sigma", cfg: &WallScanConfig{SmoothingSigma: ptrFloat64(math.Inf(1))}, wantField: "smoothing_sigma"},
		{name: "zero truncate", cfg: &WallScanConfig{SmoothingTruncate: ptrFloat64(0)}, wantField: "smoothing_truncate"},
		{name: "unknown baseline", cfg: &WallScanConfig{BaselineMode: ptrString("median")}, wantField: "baseline_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want ConfigurationError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}
