package config

import (
	"slices"

	"github.com/yanqian/solarinfra/internal/domain/estimator"
)

// EstimatorConfig is the YAML shape of the estimator constants. The tunables file uses the same shape.
type EstimatorConfig struct {
	TunablesFile string            `yaml:"tunablesFile,omitempty"`
	Sizing       SizingTunables    `yaml:"sizing"`
	Heuristic    HeuristicTunables `yaml:"heuristic"`
	Projection   ProjectTunables   `yaml:"projection"`
}

// SizingTunables mirrors estimator.SizingConfig.
type SizingTunables struct {
	YieldFactor            float64 `yaml:"yieldFactor"`
	SafetyMargin           float64 `yaml:"safetyMargin"`
	PanelWattage           int     `yaml:"panelWattage"`
	SupportedPanelWattages []int   `yaml:"supportedPanelWattages"`
	AreaPerKWSqFt          float64 `yaml:"areaPerKwSqFt"`
	HybridThresholdKW      int     `yaml:"hybridThresholdKw"`
}

// HeuristicTunables mirrors estimator.HeuristicConfig.
type HeuristicTunables struct {
	SavingsRatio   float64 `yaml:"savingsRatio"`
	TariffPerKWh   float64 `yaml:"tariffPerKwh"`
	EmissionFactor float64 `yaml:"emissionFactor"`
}

// ProjectTunables mirrors estimator.ProjectionConfig.
type ProjectTunables struct {
	SavingsRatio  float64 `yaml:"savingsRatio"`
	LifetimeYears int     `yaml:"lifetimeYears"`
}

// DefaultEstimatorConfig returns the regional defaults in YAML shape.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorFrom(estimator.DefaultConfig())
}

// EstimatorFrom converts domain constants to their YAML shape.
func EstimatorFrom(c estimator.Config) EstimatorConfig {
	return EstimatorConfig{
		Sizing: SizingTunables{
			YieldFactor:            c.Sizing.YieldFactor,
			SafetyMargin:           c.Sizing.SafetyMargin,
			PanelWattage:           c.Sizing.PanelWattage,
			SupportedPanelWattages: slices.Clone(c.Sizing.SupportedPanelWattages),
			AreaPerKWSqFt:          c.Sizing.AreaPerKWSqFt,
			HybridThresholdKW:      c.Sizing.HybridThresholdKW,
		},
		Heuristic: HeuristicTunables{
			SavingsRatio:   c.Heuristic.SavingsRatio,
			TariffPerKWh:   c.Heuristic.TariffPerKWh,
			EmissionFactor: c.Heuristic.EmissionFactor,
		},
		Projection: ProjectTunables{
			SavingsRatio:  c.Projection.SavingsRatio,
			LifetimeYears: c.Projection.LifetimeYears,
		},
	}
}

// Domain converts the YAML shape to estimator constants.
func (e EstimatorConfig) Domain() estimator.Config {
	return estimator.Config{
		Sizing: estimator.SizingConfig{
			YieldFactor:            e.Sizing.YieldFactor,
			SafetyMargin:           e.Sizing.SafetyMargin,
			PanelWattage:           e.Sizing.PanelWattage,
			SupportedPanelWattages: slices.Clone(e.Sizing.SupportedPanelWattages),
			AreaPerKWSqFt:          e.Sizing.AreaPerKWSqFt,
			HybridThresholdKW:      e.Sizing.HybridThresholdKW,
		},
		Heuristic: estimator.HeuristicConfig{
			SavingsRatio:   e.Heuristic.SavingsRatio,
			TariffPerKWh:   e.Heuristic.TariffPerKWh,
			EmissionFactor: e.Heuristic.EmissionFactor,
		},
		Projection: estimator.ProjectionConfig{
			SavingsRatio:  e.Projection.SavingsRatio,
			LifetimeYears: e.Projection.LifetimeYears,
		},
	}
}
