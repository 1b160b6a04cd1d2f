package lead

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/yanqian/solarinfra/internal/domain/changefeed"
	"github.com/yanqian/solarinfra/internal/domain/estimator"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
	"github.com/yanqian/solarinfra/pkg/util"
)

// Service captures and follows up design leads.
type Service interface {
	// Capture records a lead; userID and email may both be empty for anonymous visitors.
	Capture(ctx context.Context, userID, userEmail string, req CaptureRequest) (DesignLead, error)
	List(ctx context.Context) ([]DesignLead, error)
	UpdateStatus(ctx context.Context, id string, status Status) (DesignLead, error)
}

// BillEstimator produces the quick savings estimate attached to a lead.
type BillEstimator interface {
	QuickEstimate(ctx context.Context, monthlyBill float64) (estimator.BillEstimate, error)
}

type service struct {
	repo      Repository
	estimator BillEstimator
	events    changefeed.Publisher
	logger    *slog.Logger
	clock     util.Clock
}

// NewService constructs the lead service.
func NewService(repo Repository, est BillEstimator, events changefeed.Publisher, logger *slog.Logger) Service {
	return &service{
		repo:      repo,
		estimator: est,
		events:    events,
		logger:    logger.With("component", "lead.service"),
		clock:     util.NowUTC,
	}
}

func (s *service) Capture(ctx context.Context, userID, userEmail string, req CaptureRequest) (DesignLead, error) {
	email := strings.ToLower(strings.TrimSpace(userEmail))
	if email == "" {
		email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return DesignLead{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
		}
	}
	if req.MonthlyBill <= 0 {
		return DesignLead{}, apperrors.Wrap(apperrors.CodeInvalidInput, "monthly bill must be positive", nil)
	}
	est, err := s.estimator.QuickEstimate(ctx, req.MonthlyBill)
	if err != nil {
		return DesignLead{}, err
	}

	now := s.clock()
	l, err := s.repo.Create(ctx, DesignLead{
		UserID:           strings.TrimSpace(userID),
		UserEmail:        email,
		MonthlyBill:      req.MonthlyBill,
		EstimatedSavings: est.AnnualSavings,
		CarbonOffset:     est.CarbonOffsetKgPerYear,
		Status:           StatusInterested,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return DesignLead{}, apperrors.Wrap(apperrors.CodeStorage, "failed to record lead", err)
	}
	s.logger.Info("lead captured", "leadId", l.ID, "anonymous", l.UserID == "", "monthlyBill", l.MonthlyBill)
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionLeads, changefeed.KindCreated, l.ID)
	return l, nil
}

func (s *service) List(ctx context.Context) ([]DesignLead, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list leads", err)
	}
	return leads, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status Status) (DesignLead, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return DesignLead{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	l, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return DesignLead{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load lead", err)
	}
	if !found {
		return DesignLead{}, apperrors.Wrap(apperrors.CodeNotFound, "lead not found", nil)
	}
	l.Status = status
	l.UpdatedAt = s.clock()
	updated, err := s.repo.Update(ctx, l)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DesignLead{}, apperrors.Wrap(apperrors.CodeNotFound, "lead not found", err)
		}
		return DesignLead{}, apperrors.Wrap(apperrors.CodeStorage, "failed to update lead", err)
	}
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionLeads, changefeed.KindUpdated, updated.ID)
	return updated, nil
}
