package estimator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// SizePlant converts a target daily energy figure into a plant capacity and bill of materials.
//
// The required capacity is rounded up to the next 0.1 kW and the recommended
// capacity to the next whole kW, so the recommendation never under-provisions.
func SizePlant(targetDailyKWh float64, cfg SizingConfig) (SizingRecommendation, error) {
	if !finite(targetDailyKWh) || targetDailyKWh < 0 {
		return SizingRecommendation{}, fmt.Errorf("%w: target daily energy %v", ErrInvalidSizingInput, targetDailyKWh)
	}
	if err := cfg.validate(); err != nil {
		return SizingRecommendation{}, err
	}
	if cfg.PanelWattage <= 0 || !cfg.Supports(cfg.PanelWattage) {
		return SizingRecommendation{}, fmt.Errorf("%w: %dW", ErrUnsupportedPanelSpec, cfg.PanelWattage)
	}

	required := decimal.NewFromFloat(targetDailyKWh).
		Mul(decimal.NewFromFloat(cfg.SafetyMargin)).
		Div(decimal.NewFromFloat(cfg.YieldFactor)).
		RoundCeil(1)
	if required.Ceil().GreaterThan(maxPlantKW) {
		return SizingRecommendation{}, fmt.Errorf("%w: target daily energy %v exceeds the sizable range", ErrInvalidSizingInput, targetDailyKWh)
	}
	recommended := int(required.Ceil().IntPart())

	return SizingRecommendation{
		TargetDailyKWh:     targetDailyKWh,
		RequiredPlantKW:    required.InexactFloat64(),
		RecommendedPlantKW: recommended,
		PanelWattage:       cfg.PanelWattage,
		PanelCount:         panelsFor(recommended, cfg.PanelWattage),
		RoofAreaSqFt:       float64(recommended) * cfg.AreaPerKWSqFt,
		InverterClass:      inverterFor(recommended, cfg.HybridThresholdKW),
	}, nil
}

// maxPlantKW keeps plantKW*1000 within int.
var maxPlantKW = decimal.NewFromInt(math.MaxInt / 1000)

func panelsFor(plantKW, panelWattage int) int {
	watts := plantKW * 1000
	panels := watts / panelWattage
	if watts%panelWattage != 0 {
		panels++
	}
	return panels
}

func inverterFor(plantKW, thresholdKW int) InverterClass {
	if plantKW < thresholdKW {
		return InverterHybridOnGrid
	}
	return InverterGridTie
}
