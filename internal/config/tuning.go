package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// It mirrors DefaultTuningConfig and is kept in sync by tests.
const DefaultConfigPath = "config/tuning.defaults.json"

// Render modes understood by the viewer.
const (
	RenderHTML = "html"
	RenderPNG  = "png"
)

// TuningConfig represents the optional JSON configuration for a run.
// Every field is a pointer so that a partial file only overrides what it
// names; the Get* accessors supply defaults for the rest.
type TuningConfig struct {
	// Clustering params
	DBSCANEps        *float64 `json:"dbscan_eps,omitempty"`
	DBSCANMinSamples *int     `json:"dbscan_min_samples,omitempty"`

	// Semantic class to box. Not exposed as a flag.
	TargetLabel *int `json:"target_label,omitempty"`

	// Viewer params
	Render                *string  `json:"render,omitempty"` // "html" or "png"
	ViewerListenAddr      *string  `json:"viewer_listen_addr,omitempty"`
	ViewerMaxPoints       *int     `json:"viewer_max_points,omitempty"`
	ViewerShutdownTimeout *string  `json:"viewer_shutdown_timeout,omitempty"` // duration string like "5s"
	AxisSize              *float64 `json:"axis_size,omitempty"`
	SnapshotPath          *string  `json:"snapshot_path,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		DBSCANEps:             ptrFloat64(0.75),
		DBSCANMinSamples:      ptrInt(15),
		TargetLabel:           ptrInt(81),
		Render:                ptrString(RenderHTML),
		ViewerListenAddr:      ptrString("localhost:8090"),
		ViewerMaxPoints:       ptrInt(60000),
		ViewerShutdownTimeout: ptrString("5s"),
		AxisSize:              ptrFloat64(2.0),
		SnapshotPath:          ptrString("bbox.png"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file stay nil and fall back to defaults through the accessors.
func LoadTuningConfig(path string) (*TuningConfig, error) {
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/lidar/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.DBSCANEps != nil && *c.DBSCANEps <= 0 {
		return fmt.Errorf("dbscan_eps must be positive, got %f", *c.DBSCANEps)
	}

	if c.DBSCANMinSamples != nil && *c.DBSCANMinSamples < 1 {
		return fmt.Errorf("dbscan_min_samples must be at least 1, got %d", *c.DBSCANMinSamples)
	}

	// Semantic ids live in the lower 16 bits of a label.
	if c.TargetLabel != nil && (*c.TargetLabel < 0 || *c.TargetLabel > 0xFFFF) {
		return fmt.Errorf("target_label must be between 0 and 65535, got %d", *c.TargetLabel)
	}

	if c.Render != nil && *c.Render != RenderHTML && *c.Render != RenderPNG {
		return fmt.Errorf("render must be %q or %q, got %q", RenderHTML, RenderPNG, *c.Render)
	}

	if c.ViewerMaxPoints != nil && *c.ViewerMaxPoints < 0 {
		return fmt.Errorf("viewer_max_points must be non-negative, got %d", *c.ViewerMaxPoints)
	}

	if c.ViewerShutdownTimeout != nil && *c.ViewerShutdownTimeout != "" {
		if _, err := time.ParseDuration(*c.ViewerShutdownTimeout); err != nil {
			return fmt.Errorf("invalid viewer_shutdown_timeout '%s': %w", *c.ViewerShutdownTimeout, err)
		}
	}

	if c.AxisSize != nil && *c.AxisSize < 0 {
		return fmt.Errorf("axis_size must be non-negative, got %f", *c.AxisSize)
	}

	return nil
}

// GetDBSCANEps returns the dbscan_eps value or the default.
func (c *TuningConfig) GetDBSCANEps() float64 {
	if c.DBSCANEps == nil {
		return 0.75
	}
	return *c.DBSCANEps
}

// GetDBSCANMinSamples returns the dbscan_min_samples value or the default.
func (c *TuningConfig) GetDBSCANMinSamples() int {
	if c.DBSCANMinSamples == nil {
		return 15
	}
	return *c.DBSCANMinSamples
}

// GetTargetLabel returns the target_label value or the default
// (SemanticKITTI traffic-sign).
func (c *TuningConfig) GetTargetLabel() uint16 {
	if c.TargetLabel == nil {
		return 81
	}
	return uint16(*c.TargetLabel)
}

// GetRender returns the render mode or the default.
func (c *TuningConfig) GetRender() string {
	if c.Render == nil || *c.Render == "" {
		return RenderHTML
	}
	return *c.Render
}

// GetViewerListenAddr returns the viewer_listen_addr value or the default.
func (c *TuningConfig) GetViewerListenAddr() string {
	if c.ViewerListenAddr == nil || *c.ViewerListenAddr == "" {
		return "localhost:8090"
	}
	return *c.ViewerListenAddr
}

// GetViewerMaxPoints returns the viewer_max_points value or the default.
// Zero disables decimation.
func (c *TuningConfig) GetViewerMaxPoints() int {
	if c.ViewerMaxPoints == nil {
		return 60000
	}
	return *c.ViewerMaxPoints
}

// GetViewerShutdownTimeout parses and returns the ViewerShutdownTimeout as a time.Duration.
func (c *TuningConfig) GetViewerShutdownTimeout() time.Duration {
	if c.ViewerShutdownTimeout == nil || *c.ViewerShutdownTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(*c.ViewerShutdownTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetAxisSize returns the axis_size value or the default.
func (c *TuningConfig) GetAxisSize() float64 {
	if c.AxisSize == nil {
		return 2.0
	}
	return *c.AxisSize
}

// GetSnapshotPath returns the snapshot_path value or the default.
func (c *TuningConfig) GetSnapshotPath() string {
	if c.SnapshotPath == nil || *c.SnapshotPath == "" {
		return "bbox.png"
	}
	return *c.SnapshotPath
}
