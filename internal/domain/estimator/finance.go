package estimator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// EstimateFromBill is the coarse savings heuristic used before a system is chosen.
func EstimateFromBill(monthlyBill float64, cfg HeuristicConfig) (BillEstimate, error) {
	if !finite(monthlyBill) || monthlyBill < 0 {
		return BillEstimate{}, fmt.Errorf("%w: monthly bill %v", ErrInvalidBillInput, monthlyBill)
	}
	if !finite(cfg.TariffPerKWh) || cfg.TariffPerKWh <= 0 {
		return BillEstimate{}, fmt.Errorf("%w: tariff %v", ErrDivisionUndefined, cfg.TariffPerKWh)
	}
	if !finite(cfg.SavingsRatio) || cfg.SavingsRatio < 0 || !finite(cfg.EmissionFactor) || cfg.EmissionFactor < 0 {
		return BillEstimate{}, fmt.Errorf("%w: heuristic ratios must be non-negative", ErrInvalidBillInput)
	}

	offsetUnits := monthlyBill / cfg.TariffPerKWh
	est := BillEstimate{
		MonthlyBill:           monthlyBill,
		AnnualSavings:         monthlyBill * cfg.SavingsRatio * monthsPerYear,
		CarbonOffsetKgPerYear: offsetUnits * cfg.SavingsRatio * monthsPerYear * cfg.EmissionFactor,
	}
	if !finite(est.AnnualSavings) || !finite(est.CarbonOffsetKgPerYear) {
		return BillEstimate{}, fmt.Errorf("%w: savings for monthly bill %v overflow", ErrDivisionUndefined, monthlyBill)
	}
	return est, nil
}

// ProjectForProduct projects payback for a chosen system against a hypothetical monthly bill.
// Savings are capped at the product's rated monthly savings.
func ProjectForProduct(monthlyBill, productPrice, productMaxSavings float64, cfg ProjectionConfig) (ProductProjection, error) {
	if !finite(monthlyBill) || monthlyBill < 0 {
		return ProductProjection{}, fmt.Errorf("%w: monthly bill %v", ErrInvalidBillInput, monthlyBill)
	}
	if !finite(productPrice) || !finite(productMaxSavings) {
		return ProductProjection{}, fmt.Errorf("%w: non-finite price or savings", ErrDivisionUndefined)
	}
	if cfg.LifetimeYears <= 0 || !finite(cfg.SavingsRatio) || cfg.SavingsRatio < 0 {
		return ProductProjection{}, fmt.Errorf("%w: projection config", ErrInvalidBillInput)
	}
	if productPrice <= 0 {
		return ProductProjection{}, fmt.Errorf("%w: price %v", ErrDivisionUndefined, productPrice)
	}

	current := math.Min(monthlyBill*cfg.SavingsRatio, productMaxSavings)
	if current <= 0 {
		return ProductProjection{}, fmt.Errorf("%w: monthly savings %v", ErrDivisionUndefined, current)
	}
	annual := current * monthsPerYear
	proj := ProductProjection{
		MonthlyBill:     monthlyBill,
		MonthlySavings:  current,
		PaybackYears:    productPrice / annual,
		LifetimeSavings: annual * float64(cfg.LifetimeYears),
		LifetimeYears:   cfg.LifetimeYears,
	}
	if !finite(proj.PaybackYears) || !finite(proj.LifetimeSavings) {
		return ProductProjection{}, fmt.Errorf("%w: payback for monthly savings %v", ErrDivisionUndefined, current)
	}
	return proj, nil
}

// MonthlyInstallment computes an amortized EMI, rounded to the paisa.
func MonthlyInstallment(principal, annualRatePct float64, months int) (Installment, error) {
	switch {
	case !finite(principal) || principal < 0:
		return Installment{}, fmt.Errorf("%w: principal %v", ErrInvalidBillInput, principal)
	case !finite(annualRatePct) || annualRatePct < 0:
		return Installment{}, fmt.Errorf("%w: rate %v", ErrInvalidBillInput, annualRatePct)
	case months <= 0:
		return Installment{}, fmt.Errorf("%w: months %d", ErrInvalidBillInput, months)
	}

	var payment float64
	if annualRatePct == 0 {
		payment = principal / float64(months)
	} else {
		r := annualRatePct / 100 / monthsPerYear
		growth := math.Pow(1+r, float64(months))
		payment = principal * r * growth / (growth - 1)
	}
	if !finite(payment) {
		return Installment{}, fmt.Errorf("%w: installment overflow", ErrDivisionUndefined)
	}

	monthly := decimal.NewFromFloat(payment).Round(2)
	total := monthly.Mul(decimal.NewFromInt(int64(months)))
	interest := total.Sub(decimal.NewFromFloat(principal))
	if interest.IsNegative() {
		interest = decimal.Zero
	}
	inst := Installment{
		Principal:      principal,
		AnnualRatePct:  annualRatePct,
		Months:         months,
		MonthlyPayment: monthly.InexactFloat64(),
		TotalPayable:   total.InexactFloat64(),
		TotalInterest:  interest.Round(2).InexactFloat64(),
	}
	if !finite(inst.TotalPayable) || !finite(inst.TotalInterest) {
		return Installment{}, fmt.Errorf("%w: installment overflow", ErrDivisionUndefined)
	}
	return inst, nil
}
