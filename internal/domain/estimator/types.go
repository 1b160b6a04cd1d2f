package estimator

// ApplianceLoad is one row of a household's declared load profile.
type ApplianceLoad struct {
	Name         string  `json:"name" yaml:"name"`
	WattageWatts float64 `json:"wattageWatts" yaml:"wattageWatts"`
	Quantity     int     `json:"quantity" yaml:"quantity"`
	HoursPerDay  float64 `json:"hoursPerDay" yaml:"hoursPerDay"`
}

// BillingSample is the historical consumption cross-check.
type BillingSample struct {
	MonthlyUnitsKWh float64 `json:"monthlyUnitsKWh"`
}

// LoadEstimate is the aggregated daily consumption.
type LoadEstimate struct {
	DailyEnergyKWh float64 `json:"dailyEnergyKWh"`
}

// InverterClass names the inverter family a plant size maps to.
type InverterClass string

const (
	InverterHybridOnGrid InverterClass = "hybrid-on-grid"
	InverterGridTie      InverterClass = "grid-tie"
)

// SizingRecommendation is the plant capacity and bill of materials.
type SizingRecommendation struct {
	TargetDailyKWh     float64       `json:"targetDailyKWh"`
	RequiredPlantKW    float64       `json:"requiredPlantKW"`
	RecommendedPlantKW int           `json:"recommendedPlantKW"`
	PanelWattage       int           `json:"panelWattage"`
	PanelCount         int           `json:"panelCount"`
	RoofAreaSqFt       float64       `json:"roofAreaSqFt"`
	InverterClass      InverterClass `json:"inverterClass"`
}

// BillEstimate is the quick savings estimate made before a system is chosen.
type BillEstimate struct {
	MonthlyBill           float64 `json:"monthlyBill"`
	AnnualSavings         float64 `json:"annualSavings"`
	CarbonOffsetKgPerYear float64 `json:"carbonOffsetKgPerYear"`
}

// ProductProjection is the payback projection for a selected system.
type ProductProjection struct {
	MonthlyBill     float64 `json:"monthlyBill"`
	MonthlySavings  float64 `json:"monthlySavings"`
	PaybackYears    float64 `json:"paybackYears"`
	LifetimeSavings float64 `json:"lifetimeSavings"`
	LifetimeYears   int     `json:"lifetimeYears"`
}

// Installment is an equated monthly installment breakdown.
type Installment struct {
	Principal      float64 `json:"principal"`
	AnnualRatePct  float64 `json:"annualRatePct"`
	Months         int     `json:"months"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalPayable   float64 `json:"totalPayable"`
	TotalInterest  float64 `json:"totalInterest"`
}
