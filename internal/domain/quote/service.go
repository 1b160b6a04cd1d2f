package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/yanqian/solarinfra/internal/domain/catalog"
	"github.com/yanqian/solarinfra/internal/domain/changefeed"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
	"github.com/yanqian/solarinfra/pkg/util"
)

// Service runs quote negotiation and the simulated payment flow.
type Service interface {
	Request(ctx context.Context, who Requester, in RequestInput) (Quote, error)
	ListMine(ctx context.Context, userID string) ([]Quote, error)
	Accept(ctx context.Context, userID, id string) (Quote, error)
	Reject(ctx context.Context, userID, id string) (Quote, error)
	Pay(ctx context.Context, userID, id string) (Quote, error)
	ListAll(ctx context.Context) ([]Quote, error)
	Revise(ctx context.Context, id string, req ReviseRequest) (Quote, error)
}

// ProductLookup resolves the product being quoted.
type ProductLookup interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

type service struct {
	cfg      Config
	repo     Repository
	products ProductLookup
	gateway  PaymentGateway
	events   changefeed.Publisher
	logger   *slog.Logger
	clock    util.Clock
}

// NewService constructs the quote service.
func NewService(cfg Config, repo Repository, products ProductLookup, gateway PaymentGateway, events changefeed.Publisher, logger *slog.Logger) Service {
	if cfg.RevisionDiscount <= 0 {
		cfg.RevisionDiscount = DefaultRevisionDiscount
	}
	return &service{
		cfg:      cfg,
		repo:     repo,
		products: products,
		gateway:  gateway,
		events:   events,
		logger:   logger.With("component", "quote.service"),
		clock:    util.NowUTC,
	}
}

func (s *service) Request(ctx context.Context, who Requester, in RequestInput) (Quote, error) {
	if strings.TrimSpace(who.UserID) == "" {
		return Quote{}, apperrors.Wrap(apperrors.CodeUnauthorized, "sign in to request a quote", nil)
	}
	if err := validateAddress(in.Address); err != nil {
		return Quote{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	phone := strings.TrimSpace(in.Phone)
	if countDigits(phone) < 7 {
		return Quote{}, apperrors.Wrap(apperrors.CodeInvalidInput, "a contact phone number is required", nil)
	}
	product, err := s.products.Get(ctx, strings.TrimSpace(in.ProductID))
	if err != nil {
		return Quote{}, err
	}
	if !product.InStock() {
		return Quote{}, apperrors.Wrap(apperrors.CodeOutOfStock, "product is out of stock", nil)
	}

	now := s.clock()
	q, err := s.repo.Create(ctx, Quote{
		UserID:      who.UserID,
		UserName:    who.Name,
		UserEmail:   who.Email,
		ProductID:   product.ID,
		ProductName: product.Name,
		Status:      StatusPending,
		BasePrice:   product.Price,
		Address:     in.Address.Format(),
		Phone:       phone,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.CodeStorage, "failed to create quote", err)
	}
	s.logger.Info("quote requested", "quoteId", q.ID, "userId", q.UserID, "productId", q.ProductID)
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionQuotes, changefeed.KindCreated, q.ID)
	return q, nil
}

func (s *service) ListMine(ctx context.Context, userID string) ([]Quote, error) {
	quotes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list quotes", err)
	}
	return quotes, nil
}

func (s *service) ListAll(ctx context.Context) ([]Quote, error) {
	quotes, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list quotes", err)
	}
	return quotes, nil
}

func (s *service) Accept(ctx context.Context, userID, id string) (Quote, error) {
	return s.customerMove(ctx, userID, id, StatusSent, StatusApproved)
}

func (s *service) Reject(ctx context.Context, userID, id string) (Quote, error) {
	return s.customerMove(ctx, userID, id, StatusSent, StatusRejected)
}

// customerMove applies a customer decision, which is only possible on a quote the admin has sent.
func (s *service) customerMove(ctx context.Context, userID, id string, from, to Status) (Quote, error) {
	q, err := s.owned(ctx, userID, id)
	if err != nil {
		return Quote{}, err
	}
	if q.Status != from {
		return Quote{}, invalidTransition(q.Status, to)
	}
	q.Status = to
	return s.save(ctx, q, from)
}

func (s *service) Pay(ctx context.Context, userID, id string) (Quote, error) {
	q, err := s.owned(ctx, userID, id)
	if err != nil {
		return Quote{}, err
	}
	if !q.Status.CanTransition(StatusPaid) {
		return Quote{}, invalidTransition(q.Status, StatusPaid)
	}
	from := q.Status
	receipt, err := s.gateway.Charge(ctx, q, q.DisplayPrice())
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.CodePaymentFailed, "payment could not be completed", err)
	}
	q.Status = StatusPaid
	q.PaymentRef = receipt.Reference
	paidAt := receipt.PaidAt
	q.PaidAt = &paidAt
	paid, err := s.save(ctx, q, from)
	if err != nil {
		// The charge went through but the quote moved underneath it; the receipt needs a manual refund.
		s.logger.Error("payment not recorded", "quoteId", q.ID, "reference", receipt.Reference, "amount", receipt.Amount.String(), "error", err)
		return Quote{}, err
	}
	s.logger.Info("quote paid", "quoteId", q.ID, "reference", receipt.Reference, "amount", receipt.Amount.String())
	return paid, nil
}

func (s *service) Revise(ctx context.Context, id string, req ReviseRequest) (Quote, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	target := req.Status
	if target == "" {
		target = StatusSent
	}
	switch target {
	case StatusDraft, StatusSent, StatusRejected:
	default:
		return Quote{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("revision cannot set status %q", target), nil)
	}
	if !q.Status.CanTransition(target) {
		return Quote{}, invalidTransition(q.Status, target)
	}

	if target != StatusRejected {
		price := q.BasePrice.Mul(decimal.NewFromFloat(s.cfg.RevisionDiscount)).Round(0)
		if req.FinalPrice != nil {
			price = *req.FinalPrice
		}
		if !price.IsPositive() {
			return Quote{}, apperrors.Wrap(apperrors.CodeInvalidInput, "final price must be positive", nil)
		}
		q.FinalPrice = &price
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		q.AdminNotes = notes
	}
	from := q.Status
	q.Status = target
	return s.save(ctx, q, from)
}

func (s *service) get(ctx context.Context, id string) (Quote, error) {
	q, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load quote", err)
	}
	if !found {
		return Quote{}, apperrors.Wrap(apperrors.CodeNotFound, "quote not found", nil)
	}
	return q, nil
}

// owned hides other customers' quotes behind not_found.
func (s *service) owned(ctx context.Context, userID, id string) (Quote, error) {
	q, err := s.get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if q.UserID != userID {
		return Quote{}, apperrors.Wrap(apperrors.CodeNotFound, "quote not found", nil)
	}
	return q, nil
}

func (s *service) save(ctx context.Context, q Quote, from Status) (Quote, error) {
	q.UpdatedAt = s.clock()
	updated, err := s.repo.Update(ctx, q, from)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Quote{}, apperrors.Wrap(apperrors.CodeNotFound, "quote not found", err)
		}
		if errors.Is(err, ErrStatusChanged) {
			return Quote{}, apperrors.Wrap(apperrors.CodeInvalidTransition, fmt.Sprintf("quote is no longer %s", from), err)
		}
		return Quote{}, apperrors.Wrap(apperrors.CodeStorage, "failed to update quote", err)
	}
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionQuotes, changefeed.KindUpdated, updated.ID)
	return updated, nil
}

func invalidTransition(from, to Status) error {
	return apperrors.Wrap(apperrors.CodeInvalidTransition, fmt.Sprintf("quote cannot move from %s to %s", from, to), nil)
}

func validateAddress(a Address) error {
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" {
		return errors.New("street and city are required")
	}
	pin := strings.TrimSpace(a.Pincode)
	if len(pin) != 6 || countDigits(pin) != 6 {
		return errors.New("pincode must be 6 digits")
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
