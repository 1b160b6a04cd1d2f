package estimator

import (
	"fmt"
	"math"
)

const maxHoursPerDay = 24

// AggregateLoad reduces appliance rows to a daily kWh figure.
func AggregateLoad(rows []ApplianceLoad) (LoadEstimate, error) {
	var totalWh float64
	for i, row := range rows {
		if err := validateRow(row); err != nil {
			return LoadEstimate{}, fmt.Errorf("row %d (%q): %w", i, row.Name, err)
		}
		totalWh += row.WattageWatts * float64(row.Quantity) * row.HoursPerDay
	}
	if !finite(totalWh) {
		return LoadEstimate{}, fmt.Errorf("%w: daily energy overflows", ErrInvalidLoadInput)
	}
	return LoadEstimate{DailyEnergyKWh: totalWh / 1000}, nil
}

func validateRow(row ApplianceLoad) error {
	switch {
	case !finite(row.WattageWatts) || row.WattageWatts < 0:
		return fmt.Errorf("%w: wattage %v", ErrInvalidLoadInput, row.WattageWatts)
	case row.Quantity < 0:
		return fmt.Errorf("%w: quantity %d", ErrInvalidLoadInput, row.Quantity)
	case !finite(row.HoursPerDay) || row.HoursPerDay < 0 || row.HoursPerDay > maxHoursPerDay:
		return fmt.Errorf("%w: hours per day %v", ErrInvalidLoadInput, row.HoursPerDay)
	}
	return nil
}

// BillDailyKWh converts a monthly billing sample to daily units.
func BillDailyKWh(sample BillingSample) (float64, error) {
	if !finite(sample.MonthlyUnitsKWh) || sample.MonthlyUnitsKWh < 0 {
		return 0, fmt.Errorf("%w: monthly units %v", ErrInvalidLoadInput, sample.MonthlyUnitsKWh)
	}
	return sample.MonthlyUnitsKWh / daysPerMonth, nil
}

// TargetDailyKWh sizes for whichever of the declared load and the billing history is larger.
// A nil sample means no billing history was supplied.
func TargetDailyKWh(load LoadEstimate, sample *BillingSample) (float64, error) {
	if sample == nil {
		return load.DailyEnergyKWh, nil
	}
	billDaily, err := BillDailyKWh(*sample)
	if err != nil {
		return 0, err
	}
	return math.Max(load.DailyEnergyKWh, billDaily), nil
}
