package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yanqian/solarinfra/internal/domain/changefeed"
	"github.com/yanqian/solarinfra/internal/domain/estimator"
	"github.com/yanqian/solarinfra/internal/domain/media"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

// Service exposes catalog browsing and admin maintenance.
type Service interface {
	List(ctx context.Context, filter Filter) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, req CreateRequest) (Product, error)
	UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (Product, error)
	ToggleStock(ctx context.Context, id string) (Product, error)
	Delete(ctx context.Context, id string) error
	GenerateArtwork(ctx context.Context, id, prompt string) (Product, error)
	Projection(ctx context.Context, id string, monthlyBill float64) (estimator.ProductProjection, error)
	Seed(ctx context.Context) (int, error)
}

// ArtworkStore produces and stores an image for a subject.
type ArtworkStore interface {
	GenerateArtwork(ctx context.Context, subjectID, prompt string) (media.StoredObject, error)
}

// Projector runs the product-specific payback projection.
type Projector interface {
	ProjectProduct(ctx context.Context, req estimator.ProjectionRequest) (estimator.ProductProjection, error)
}

type service struct {
	cfg       Config
	repo      Repository
	projector Projector
	artwork   ArtworkStore
	events    changefeed.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the catalog service.
func NewService(cfg Config, repo Repository, projector Projector, artwork ArtworkStore, events changefeed.Publisher, logger *slog.Logger) Service {
	if cfg.EMIDivisor <= 0 {
		cfg.EMIDivisor = DefaultEMIDivisor
	}
	if cfg.SavingsRate <= 0 {
		cfg.SavingsRate = DefaultSavingsRate
	}
	return &service{
		cfg:       cfg,
		repo:      repo,
		projector: projector,
		artwork:   artwork,
		events:    events,
		logger:    logger.With("component", "catalog.service"),
		now:       time.Now,
	}
}

func (s *service) List(ctx context.Context, filter Filter) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list products", err)
	}
	capacity := strings.ToLower(strings.TrimSpace(filter.Capacity))
	if capacity == "all" {
		capacity = ""
	}
	out := products[:0]
	for _, p := range products {
		if capacity != "" && !strings.Contains(strings.ToLower(p.Capacity), capacity) {
			continue
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if filter.MaxEMI != nil && p.EMI.GreaterThan(*filter.MaxEMI) {
			continue
		}
		out = append(out, p)
	}
	SortByCapacity(out)
	return out, nil
}

// SortByCapacity orders products by kW ascending, then name.
func SortByCapacity(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		ki, kj := products[i].CapacityKW(), products[j].CapacityKW()
		if ki != kj {
			if ki < 0 {
				return false
			}
			if kj < 0 {
				return true
			}
			return ki < kj
		}
		return products[i].Name < products[j].Name
	})
}

func (s *service) Get(ctx context.Context, id string) (Product, error) {
	product, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load product", err)
	}
	if !found {
		return Product{}, apperrors.Wrap(apperrors.CodeNotFound, "product not found", nil)
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Product{}, apperrors.Wrap(apperrors.CodeInvalidInput, "name is required", nil)
	}
	capacity := strings.TrimSpace(req.Capacity)
	if capacity == "" {
		return Product{}, apperrors.Wrap(apperrors.CodeInvalidInput, "capacity is required", nil)
	}
	if !req.Price.IsPositive() {
		return Product{}, apperrors.Wrap(apperrors.CodeInvalidInput, "price must be positive", nil)
	}
	if req.Quantity < 0 {
		return Product{}, apperrors.Wrap(apperrors.CodeInvalidInput, "quantity cannot be negative", nil)
	}

	now := s.now().UTC()
	product, err := s.repo.Create(ctx, Product{
		Name:        name,
		Capacity:    capacity,
		Price:       req.Price,
		EMI:         s.emiFor(req.Price),
		Savings:     s.savingsFor(req.Price),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Description: strings.TrimSpace(req.Description),
		Features:    cleanFeatures(req.Features),
		Quantity:    req.Quantity,
		StockStatus: InStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Product{}, apperrors.Wrap(apperrors.CodeStorage, "failed to create product", err)
	}
	s.logger.Info("product created", "id", product.ID, "capacity", product.Capacity, "price", product.Price.String())
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionProducts, changefeed.KindCreated, product.ID)
	return product, nil
}

func (s *service) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (Product, error) {
	if !price.IsPositive() {
		return Product{}, apperrors.Wrap(apperrors.CodeInvalidInput, "price must be positive", nil)
	}
	product, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	product.Price = price
	product.EMI = s.emiFor(price)
	return s.update(ctx, product)
}

func (s *service) ToggleStock(ctx context.Context, id string) (Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	switch product.StockStatus {
	case InStock:
		product.StockStatus = OutOfStock
	case OutOfStock:
		product.StockStatus = InStock
	default:
		return Product{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown stock status %q", product.StockStatus), nil)
	}
	return s.update(ctx, product)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.Wrap(apperrors.CodeNotFound, "product not found", err)
		}
		return apperrors.Wrap(apperrors.CodeStorage, "failed to delete product", err)
	}
	s.logger.Info("product deleted", "id", id)
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionProducts, changefeed.KindDeleted, id)
	return nil
}

func (s *service) GenerateArtwork(ctx context.Context, id, prompt string) (Product, error) {
	if s.artwork == nil {
		return Product{}, apperrors.Wrap(apperrors.CodeMediaDisabled, "artwork generation is not configured", nil)
	}
	product, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	obj, err := s.artwork.GenerateArtwork(ctx, product.ID, s.artworkPrompt(product, prompt))
	if err != nil {
		return Product{}, err
	}
	product.ImageURL = obj.URL
	return s.update(ctx, product)
}

func (s *service) artworkPrompt(product Product, extra string) string {
	parts := []string{fmt.Sprintf("%s, a %s rooftop solar kit", product.Name, product.Capacity)}
	if extra = strings.TrimSpace(extra); extra != "" {
		parts = append(parts, extra)
	}
	if s.cfg.ArtworkStyle != "" {
		parts = append(parts, s.cfg.ArtworkStyle)
	}
	return strings.Join(parts, ". ")
}

func (s *service) Projection(ctx context.Context, id string, monthlyBill float64) (estimator.ProductProjection, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return estimator.ProductProjection{}, err
	}
	return s.projector.ProjectProduct(ctx, estimator.ProjectionRequest{
		MonthlyBill:       monthlyBill,
		ProductPrice:      product.Price.InexactFloat64(),
		ProductMaxSavings: product.Savings.InexactFloat64(),
	})
}

// Seed installs the starter catalogue when enabled and the store is empty.
func (s *service) Seed(ctx context.Context) (int, error) {
	if !s.cfg.SeedOnEmpty {
		return 0, nil
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeStorage, "failed to count products", err)
	}
	if count > 0 {
		return 0, nil
	}
	now := s.now().UTC()
	created := 0
	for _, p := range SeedProducts() {
		p.CreatedAt, p.UpdatedAt = now, now
		if _, err := s.repo.Create(ctx, p); err != nil {
			return created, apperrors.Wrap(apperrors.CodeStorage, "failed to seed product", err)
		}
		created++
	}
	s.logger.Info("catalog seeded", "products", created)
	return created, nil
}

func (s *service) update(ctx context.Context, product Product) (Product, error) {
	product.UpdatedAt = s.now().UTC()
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, apperrors.Wrap(apperrors.CodeNotFound, "product not found", err)
		}
		return Product{}, apperrors.Wrap(apperrors.CodeStorage, "failed to update product", err)
	}
	changefeed.Notify(ctx, s.events, s.logger, changefeed.CollectionProducts, changefeed.KindUpdated, updated.ID)
	return updated, nil
}

func (s *service) emiFor(price decimal.Decimal) decimal.Decimal {
	return price.Div(decimal.NewFromInt(s.cfg.EMIDivisor)).Round(0)
}

func (s *service) savingsFor(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromFloat(s.cfg.SavingsRate)).Round(0)
}

func cleanFeatures(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
