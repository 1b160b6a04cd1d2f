package estimator

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Size(t *testing.T) {
	svc := NewService(StaticSource(DefaultConfig()), newTestLogger())
	units := 300.0

	resp, err := svc.Size(context.Background(), SizeRequest{
		Appliances:      householdRows(),
		MonthlyUnitsKWh: &units,
	})
	require.NoError(t, err)
	require.InDelta(t, 10.32, resp.Load.DailyEnergyKWh, 1e-9)
	require.NotNil(t, resp.BillDailyKWh)
	require.Equal(t, 10.0, *resp.BillDailyKWh)
	require.InDelta(t, 10.32, resp.TargetDailyKWh, 1e-9)
	require.Equal(t, 3, resp.Recommendation.RecommendedPlantKW)
	require.Equal(t, 6, resp.Recommendation.PanelCount)
}

func TestService_SizeWithPanelOverride(t *testing.T) {
	svc := NewService(StaticSource(DefaultConfig()), newTestLogger())

	resp, err := svc.Size(context.Background(), SizeRequest{Appliances: householdRows(), PanelWattage: 450})
	require.NoError(t, err)
	require.Equal(t, 450, resp.Recommendation.PanelWattage)
	require.Equal(t, 7, resp.Recommendation.PanelCount)
	require.Nil(t, resp.BillDailyKWh)

	_, err = svc.Size(context.Background(), SizeRequest{Appliances: householdRows(), PanelWattage: 333})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUnsupportedPanel))
	require.ErrorIs(t, err, ErrUnsupportedPanelSpec)
}

func TestService_ErrorCodes(t *testing.T) {
	svc := NewService(StaticSource(DefaultConfig()), newTestLogger())
	ctx := context.Background()

	_, err := svc.Load(ctx, []ApplianceLoad{{Name: "bad", WattageWatts: -5, Quantity: 1, HoursPerDay: 1}})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.ErrorIs(t, err, ErrInvalidLoadInput)

	_, err = svc.QuickEstimate(ctx, -100)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.ProjectProduct(ctx, ProjectionRequest{MonthlyBill: 3000, ProductPrice: 0, ProductMaxSavings: 4500})
	require.True(t, apperrors.IsCode(err, apperrors.CodeDivisionUndefined))
	require.ErrorIs(t, err, ErrDivisionUndefined)

	_, err = svc.Installment(ctx, InstallmentRequest{Principal: 1000, Months: 0})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

type swappableSource struct{ cfg Config }

func (s *swappableSource) Current() Config { return s.cfg }

func TestService_ReadsCurrentTunables(t *testing.T) {
	src := &swappableSource{cfg: DefaultConfig()}
	svc := NewService(src, newTestLogger())

	before, err := svc.QuickEstimate(context.Background(), 3000)
	require.NoError(t, err)
	require.InDelta(t, 28800, before.AnnualSavings, 1e-6)

	src.cfg.Heuristic.SavingsRatio = 0.5
	after, err := svc.QuickEstimate(context.Background(), 3000)
	require.NoError(t, err)
	require.InDelta(t, 18000, after.AnnualSavings, 1e-6)
	require.Equal(t, 0.5, svc.Tunables().Heuristic.SavingsRatio)
}
