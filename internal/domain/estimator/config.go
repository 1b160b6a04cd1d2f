package estimator

import (
	"fmt"
	"math"
	"slices"
)

// SizingConfig holds the plant sizing constants.
type SizingConfig struct {
	// YieldFactor is the daily kWh produced per installed kW.
	YieldFactor  float64
	SafetyMargin float64
	// PanelWattage is the panel chosen for the bill of materials.
	PanelWattage           int
	SupportedPanelWattages []int
	AreaPerKWSqFt          float64
	// HybridThresholdKW: plants below it get a hybrid inverter.
	HybridThresholdKW int
}

// HeuristicConfig drives the bill-only estimate.
type HeuristicConfig struct {
	SavingsRatio   float64
	TariffPerKWh   float64
	EmissionFactor float64
}

// ProjectionConfig drives the product-specific projection.
type ProjectionConfig struct {
	SavingsRatio  float64
	LifetimeYears int
}

// Config aggregates every tunable of the estimator.
type Config struct {
	Sizing     SizingConfig
	Heuristic  HeuristicConfig
	Projection ProjectionConfig
}

// Default regional assumptions.
const (
	DefaultYieldFactor         = 4.0
	DefaultSafetyMargin        = 1.10
	DefaultPanelWattage        = 550
	DefaultAreaPerKWSqFt       = 100.0
	DefaultHybridThresholdKW   = 5
	DefaultSavingsRatio        = 0.8
	DefaultTariffPerKWh        = 7.0
	DefaultEmissionFactor      = 0.9
	DefaultProductSavingsRatio = 0.85
	DefaultLifetimeYears       = 25
	daysPerMonth               = 30
	monthsPerYear              = 12
)

// DefaultConfig returns today's defaults.
func DefaultConfig() Config {
	return Config{
		Sizing: SizingConfig{
			YieldFactor:            DefaultYieldFactor,
			SafetyMargin:           DefaultSafetyMargin,
			PanelWattage:           DefaultPanelWattage,
			SupportedPanelWattages: []int{450, 535, 550, 600},
			AreaPerKWSqFt:          DefaultAreaPerKWSqFt,
			HybridThresholdKW:      DefaultHybridThresholdKW,
		},
		Heuristic: HeuristicConfig{
			SavingsRatio:   DefaultSavingsRatio,
			TariffPerKWh:   DefaultTariffPerKWh,
			EmissionFactor: DefaultEmissionFactor,
		},
		Projection: ProjectionConfig{
			SavingsRatio:  DefaultProductSavingsRatio,
			LifetimeYears: DefaultLifetimeYears,
		},
	}
}

// WithPanel returns a copy of the sizing config using the given panel wattage.
func (c SizingConfig) WithPanel(wattage int) SizingConfig {
	c.SupportedPanelWattages = slices.Clone(c.SupportedPanelWattages)
	c.PanelWattage = wattage
	return c
}

// Supports reports whether wattage is one of the enumerated panels.
func (c SizingConfig) Supports(wattage int) bool {
	return slices.Contains(c.SupportedPanelWattages, wattage)
}

func (c SizingConfig) validate() error {
	if !finite(c.YieldFactor) || c.YieldFactor <= 0 {
		return fmt.Errorf("%w: yield factor must be positive", ErrInvalidSizingInput)
	}
	if !finite(c.SafetyMargin) || c.SafetyMargin < 1 {
		return fmt.Errorf("%w: safety margin must be at least 1", ErrInvalidSizingInput)
	}
	if !finite(c.AreaPerKWSqFt) || c.AreaPerKWSqFt < 0 {
		return fmt.Errorf("%w: area per kW cannot be negative", ErrInvalidSizingInput)
	}
	if c.HybridThresholdKW < 0 {
		return fmt.Errorf("%w: hybrid threshold cannot be negative", ErrInvalidSizingInput)
	}
	return nil
}

// Validate checks every section; an admin supplied tunables file goes through it before use.
func (c Config) Validate() error {
	if err := c.Sizing.validate(); err != nil {
		return err
	}
	if len(c.Sizing.SupportedPanelWattages) == 0 {
		return fmt.Errorf("%w: no supported panel wattages", ErrUnsupportedPanelSpec)
	}
	for _, w := range c.Sizing.SupportedPanelWattages {
		if w <= 0 {
			return fmt.Errorf("%w: panel wattage %d", ErrUnsupportedPanelSpec, w)
		}
	}
	if !c.Sizing.Supports(c.Sizing.PanelWattage) {
		return fmt.Errorf("%w: default panel %dW not in supported set", ErrUnsupportedPanelSpec, c.Sizing.PanelWattage)
	}
	h := c.Heuristic
	if !finite(h.SavingsRatio) || h.SavingsRatio < 0 || !finite(h.EmissionFactor) || h.EmissionFactor < 0 {
		return fmt.Errorf("%w: heuristic ratios must be non-negative", ErrInvalidBillInput)
	}
	if !finite(h.TariffPerKWh) || h.TariffPerKWh <= 0 {
		return fmt.Errorf("%w: tariff must be positive", ErrDivisionUndefined)
	}
	p := c.Projection
	if !finite(p.SavingsRatio) || p.SavingsRatio < 0 {
		return fmt.Errorf("%w: projection savings ratio must be non-negative", ErrInvalidBillInput)
	}
	if p.LifetimeYears <= 0 {
		return fmt.Errorf("%w: lifetime years must be positive", ErrInvalidBillInput)
	}
	return nil
}

// ConfigSource yields the constants currently in force.
type ConfigSource interface {
	Current() Config
}

// StaticSource is a ConfigSource that never changes.
type StaticSource Config

// Current implements ConfigSource.
func (s StaticSource) Current() Config {
	return Config(s)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
