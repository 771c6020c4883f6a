package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed tracing.defaults.json
var defaultsJSON []byte

// TracingConfig holds the tunables of the tracer and its post-passes.
// Every field is optional; the Get* methods supply the default for any
// field left nil, so partial files are safe.
type TracingConfig struct {
	// Region search and growing
	Alpha          *float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Beta           *float64 `json:"beta,omitempty" yaml:"beta,omitempty"`
	SearchMargin   *int     `json:"search_margin,omitempty" yaml:"search_margin,omitempty"`
	MaxVesselArea  *int     `json:"max_vessel_area,omitempty" yaml:"max_vessel_area,omitempty"`
	AnomalyWidth   *float64 `json:"anomaly_half_width,omitempty" yaml:"anomaly_half_width,omitempty"`
	AnomalyFactor  *float64 `json:"anomaly_radius_factor,omitempty" yaml:"anomaly_radius_factor,omitempty"`
	NestedAvgLimit *int     `json:"nested_average_limit,omitempty" yaml:"nested_average_limit,omitempty"`

	// Branch lifecycle
	MinBranchLength      *int     `json:"min_branch_length,omitempty" yaml:"min_branch_length,omitempty"`
	InitialRadius        *float64 `json:"initial_radius,omitempty" yaml:"initial_radius,omitempty"`
	ReverseInitialRadius *float64 `json:"reverse_initial_radius,omitempty" yaml:"reverse_initial_radius,omitempty"`
	StopDepth            *int     `json:"stop_depth,omitempty" yaml:"stop_depth,omitempty"`

	// Split detection
	SplitConfirmTicks *int     `json:"split_confirm_ticks,omitempty" yaml:"split_confirm_ticks,omitempty"`
	SplitMinRadius    *float64 `json:"split_min_radius,omitempty" yaml:"split_min_radius,omitempty"`
	SplitMeanRatio    *float64 `json:"split_mean_ratio,omitempty" yaml:"split_mean_ratio,omitempty"`
	SplitLastRatio    *float64 `json:"split_last_ratio,omitempty" yaml:"split_last_ratio,omitempty"`

	// Network merge
	MergeMinLength     *int     `json:"merge_min_length,omitempty" yaml:"merge_min_length,omitempty"`
	MergeEllipseFactor *float64 `json:"merge_ellipse_factor,omitempty" yaml:"merge_ellipse_factor,omitempty"`
}

// EmptyTracingConfig returns a TracingConfig with all fields set to nil.
func EmptyTracingConfig() *TracingConfig {
	return &TracingConfig{}
}

// DefaultTracingConfig returns the canonical defaults embedded in the
// binary, with every field populated.
func DefaultTracingConfig() *TracingConfig {
	cfg := EmptyTracingConfig()
	if err := json.Unmarshal(defaultsJSON, cfg); err != nil {
		panic("embedded tracing defaults are invalid: " + err.Error())
	}
	return cfg
}

// LoadTracingConfig loads a TracingConfig from a .json, .yaml or .yml file
// of at most 1MB. Fields omitted from the file fall back to defaults.
func LoadTracingConfig(path string) (*TracingConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
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

	cfg := EmptyTracingConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func checkFraction(name string, v *float64) error {
	if v != nil && (*v <= 0 || *v > 1) {
		return fmt.Errorf("%s must be in (0, 1], got %f", name, *v)
	}
	return nil
}

func checkPositive(name string, v *float64) error {
	if v != nil && *v <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, *v)
	}
	return nil
}

func checkNonNegative(name string, v *int) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%s must be non-negative, got %d", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *TracingConfig) Validate() error {
	for _, err := range []error{
		checkFraction("alpha", c.Alpha),
		checkFraction("beta", c.Beta),
		checkFraction("split_mean_ratio", c.SplitMeanRatio),
		checkFraction("split_last_ratio", c.SplitLastRatio),
		checkPositive("initial_radius", c.InitialRadius),
		checkPositive("reverse_initial_radius", c.ReverseInitialRadius),
		checkPositive("anomaly_radius_factor", c.AnomalyFactor),
		checkPositive("merge_ellipse_factor", c.MergeEllipseFactor),
		checkNonNegative("search_margin", c.SearchMargin),
		checkNonNegative("max_vessel_area", c.MaxVesselArea),
		checkNonNegative("min_branch_length", c.MinBranchLength),
		checkNonNegative("stop_depth", c.StopDepth),
		checkNonNegative("merge_min_length", c.MergeMinLength),
	} {
		if err != nil {
			return err
		}
	}

	if c.SplitConfirmTicks != nil && *c.SplitConfirmTicks < 1 {
		return fmt.Errorf("split_confirm_ticks must be at least 1, got %d", *c.SplitConfirmTicks)
	}
	if c.NestedAvgLimit != nil && *c.NestedAvgLimit < 1 {
		return fmt.Errorf("nested_average_limit must be at least 1, got %d", *c.NestedAvgLimit)
	}
	if c.AnomalyWidth != nil && *c.AnomalyWidth < 0 {
		return fmt.Errorf("anomaly_half_width must be non-negative, got %f", *c.AnomalyWidth)
	}
	if c.SplitMinRadius != nil && *c.SplitMinRadius < 0 {
		return fmt.Errorf("split_min_radius must be non-negative, got %f", *c.SplitMinRadius)
	}
	return nil
}

// GetAlpha returns the locator intensity fraction or the default.
func (c *TracingConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return 0.6
	}
	return *c.Alpha
}

// GetBeta returns the grower similarity fraction or the default.
func (c *TracingConfig) GetBeta() float64 {
	if c.Beta == nil {
		return 0.6
	}
	return *c.Beta
}

// GetSearchMargin returns the locator margin added to the mean radius.
func (c *TracingConfig) GetSearchMargin() int {
	if c.SearchMargin == nil {
		return 5
	}
	return *c.SearchMargin
}

// GetMaxVesselArea returns the grower's pixel ceiling or the default.
func (c *TracingConfig) GetMaxVesselArea() int {
	if c.MaxVesselArea == nil {
		return 2000
	}
	return *c.MaxVesselArea
}

func (c *TracingConfig) GetAnomalyHalfWidth() float64 {
	if c.AnomalyWidth == nil {
		return 5
	}
	return *c.AnomalyWidth
}

func (c *TracingConfig) GetAnomalyRadiusFactor() float64 {
	if c.AnomalyFactor == nil {
		return 3
	}
	return *c.AnomalyFactor
}

// GetNestedAverageLimit returns the intensity window capacity.
func (c *TracingConfig) GetNestedAverageLimit() int {
	if c.NestedAvgLimit == nil {
		return 10
	}
	return *c.NestedAvgLimit
}

// GetMinBranchLength returns the length below which a halted branch is
// deleted.
func (c *TracingConfig) GetMinBranchLength() int {
	if c.MinBranchLength == nil {
		return 20
	}
	return *c.MinBranchLength
}

func (c *TracingConfig) GetInitialRadius() float64 {
	if c.InitialRadius == nil {
		return 3
	}
	return *c.InitialRadius
}

func (c *TracingConfig) GetReverseInitialRadius() float64 {
	if c.ReverseInitialRadius == nil {
		return 10
	}
	return *c.ReverseInitialRadius
}

// GetStopDepth returns the last depth the engine explores (inclusive).
func (c *TracingConfig) GetStopDepth() int {
	if c.StopDepth == nil {
		return 0
	}
	return *c.StopDepth
}

// GetSplitConfirmTicks returns how many steps a split child must survive.
func (c *TracingConfig) GetSplitConfirmTicks() int {
	if c.SplitConfirmTicks == nil {
		return 20
	}
	return *c.SplitConfirmTicks
}

func (c *TracingConfig) GetSplitMinRadius() float64 {
	if c.SplitMinRadius == nil {
		return 3
	}
	return *c.SplitMinRadius
}

func (c *TracingConfig) GetSplitMeanRatio() float64 {
	if c.SplitMeanRatio == nil {
		return 0.65
	}
	return *c.SplitMeanRatio
}

func (c *TracingConfig) GetSplitLastRatio() float64 {
	if c.SplitLastRatio == nil {
		return 0.75
	}
	return *c.SplitLastRatio
}

// GetMergeMinLength returns the merge pass pruning length; 0 disables
// pruning.
func (c *TracingConfig) GetMergeMinLength() int {
	if c.MergeMinLength == nil {
		return 30
	}
	return *c.MergeMinLength
}

func (c *TracingConfig) GetMergeEllipseFactor() float64 {
	if c.MergeEllipseFactor == nil {
		return 3
	}
	return *c.MergeEllipseFactor
}
