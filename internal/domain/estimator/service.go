package estimator

import (
	"context"
	"errors"
	"log/slog"

	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

// Service exposes the estimator to transports with the tunables currently in force.
type Service interface {
	Load(ctx context.Context, rows []ApplianceLoad) (LoadEstimate, error)
	Size(ctx context.Context, req SizeRequest) (SizeResponse, error)
	QuickEstimate(ctx context.Context, monthlyBill float64) (BillEstimate, error)
	ProjectProduct(ctx context.Context, req ProjectionRequest) (ProductProjection, error)
	Installment(ctx context.Context, req InstallmentRequest) (Installment, error)
	Tunables() Config
}

// SizeRequest is a full sizing run: declared load, optional bill cross-check, optional panel choice.
type SizeRequest struct {
	Appliances      []ApplianceLoad `json:"appliances"`
	MonthlyUnitsKWh *float64        `json:"monthlyUnitsKWh,omitempty"`
	PanelWattage    int             `json:"panelWattage,omitempty"`
}

// SizeResponse carries every intermediate figure so callers can explain the recommendation.
type SizeResponse struct {
	Load           LoadEstimate         `json:"load"`
	BillDailyKWh   *float64             `json:"billDailyKWh,omitempty"`
	TargetDailyKWh float64              `json:"targetDailyKWh"`
	Recommendation SizingRecommendation `json:"recommendation"`
}

// ProjectionRequest projects a product against a hypothetical bill.
type ProjectionRequest struct {
	MonthlyBill       float64 `json:"monthlyBill"`
	ProductPrice      float64 `json:"productPrice"`
	ProductMaxSavings float64 `json:"productMaxSavings"`
}

// InstallmentRequest is an EMI query.
type InstallmentRequest struct {
	Principal     float64 `json:"principal"`
	AnnualRatePct float64 `json:"annualRatePct"`
	Months        int     `json:"months"`
}

type service struct {
	source ConfigSource
	logger *slog.Logger
}

// NewService wires the estimator over a tunables source.
func NewService(source ConfigSource, logger *slog.Logger) Service {
	return &service{
		source: source,
		logger: logger.With("component", "estimator.service"),
	}
}

func (s *service) Tunables() Config {
	return s.source.Current()
}

func (s *service) Load(_ context.Context, rows []ApplianceLoad) (LoadEstimate, error) {
	load, err := AggregateLoad(rows)
	if err != nil {
		return LoadEstimate{}, wrap(err)
	}
	return load, nil
}

func (s *service) Size(_ context.Context, req SizeRequest) (SizeResponse, error) {
	cfg := s.source.Current()
	load, err := AggregateLoad(req.Appliances)
	if err != nil {
		return SizeResponse{}, wrap(err)
	}

	var (
		sample    *BillingSample
		billDaily *float64
	)
	if req.MonthlyUnitsKWh != nil {
		sample = &BillingSample{MonthlyUnitsKWh: *req.MonthlyUnitsKWh}
		daily, err := BillDailyKWh(*sample)
		if err != nil {
			return SizeResponse{}, wrap(err)
		}
		billDaily = &daily
	}
	target, err := TargetDailyKWh(load, sample)
	if err != nil {
		return SizeResponse{}, wrap(err)
	}

	sizing := cfg.Sizing
	if req.PanelWattage != 0 {
		sizing = sizing.WithPanel(req.PanelWattage)
	}
	rec, err := SizePlant(target, sizing)
	if err != nil {
		return SizeResponse{}, wrap(err)
	}
	s.logger.Debug("plant sized",
		"appliances", len(req.Appliances),
		"targetKWh", target,
		"plantKW", rec.RecommendedPlantKW,
		"panels", rec.PanelCount,
	)
	return SizeResponse{
		Load:           load,
		BillDailyKWh:   billDaily,
		TargetDailyKWh: target,
		Recommendation: rec,
	}, nil
}

func (s *service) QuickEstimate(_ context.Context, monthlyBill float64) (BillEstimate, error) {
	est, err := EstimateFromBill(monthlyBill, s.source.Current().Heuristic)
	if err != nil {
		return BillEstimate{}, wrap(err)
	}
	return est, nil
}

func (s *service) ProjectProduct(_ context.Context, req ProjectionRequest) (ProductProjection, error) {
	proj, err := ProjectForProduct(req.MonthlyBill, req.ProductPrice, req.ProductMaxSavings, s.source.Current().Projection)
	if err != nil {
		return ProductProjection{}, wrap(err)
	}
	return proj, nil
}

func (s *service) Installment(_ context.Context, req InstallmentRequest) (Installment, error) {
	inst, err := MonthlyInstallment(req.Principal, req.AnnualRatePct, req.Months)
	if err != nil {
		return Installment{}, wrap(err)
	}
	return inst, nil
}

// wrap maps estimator sentinels onto transport error codes; the sentinel stays reachable via errors.Is.
func wrap(err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedPanelSpec):
		return apperrors.Wrap(apperrors.CodeUnsupportedPanel, "panel wattage is not supported", err)
	case errors.Is(err, ErrDivisionUndefined):
		return apperrors.Wrap(apperrors.CodeDivisionUndefined, "projection is not calculable", err)
	case errors.Is(err, ErrInvalidLoadInput):
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid appliance or billing input", err)
	case errors.Is(err, ErrInvalidSizingInput):
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid sizing input", err)
	case errors.Is(err, ErrInvalidBillInput):
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid bill input", err)
	default:
		return err
	}
}
