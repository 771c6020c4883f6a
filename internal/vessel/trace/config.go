package trace

import (
	"github.com/banshee-data/vesseltrace/internal/config"
	"github.com/banshee-data/vesseltrace/internal/vessel/region"
)

// Config holds the engine's tunables.
type Config struct {
	Alpha                float64 // Locator floor as a fraction of the average intensity
	SearchMargin         int     // Locator gate beyond the mean radius (pixels)
	MinBranchLength      int     // Halted branches shorter than this are deleted
	NestedLimit          int     // Intensity window capacity of root branches
	InitialRadius        float64 // Radius seed of a root branch
	ReverseInitialRadius float64 // Radius seed of a reverse branch
	StopDepth            int     // Last depth explored (inclusive)

	// Split detection
	SplitConfirmTicks int     // Steps a split child must survive before the parent is rolled back
	SplitMinRadius    float64 // Radius at or below which no split is considered
	SplitMeanRatio    float64 // Split when radius < ratio × mean radius
	SplitLastRatio    float64 // Split when radius / last radius < ratio

	Grower region.GrowerConfig
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTracingConfig())
}

// ConfigFromTuning builds a Config from a loaded TracingConfig.
func ConfigFromTuning(cfg *config.TracingConfig) Config {
	return Config{
		Alpha:                cfg.GetAlpha(),
		SearchMargin:         cfg.GetSearchMargin(),
		MinBranchLength:      cfg.GetMinBranchLength(),
		NestedLimit:          cfg.GetNestedAverageLimit(),
		InitialRadius:        cfg.GetInitialRadius(),
		ReverseInitialRadius: cfg.GetReverseInitialRadius(),
		StopDepth:            cfg.GetStopDepth(),
		SplitConfirmTicks:    cfg.GetSplitConfirmTicks(),
		SplitMinRadius:       cfg.GetSplitMinRadius(),
		SplitMeanRatio:       cfg.GetSplitMeanRatio(),
		SplitLastRatio:       cfg.GetSplitLastRatio(),
		Grower:               region.GrowerConfigFromTuning(cfg),
	}
}
