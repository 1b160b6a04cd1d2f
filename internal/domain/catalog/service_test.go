package catalog

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/solarinfra/internal/domain/estimator"
	"github.com/yanqian/solarinfra/internal/domain/media"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

func newTestService(t *testing.T, artwork ArtworkStore) (Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	est := estimator.NewService(estimator.StaticSource(estimator.DefaultConfig()), newTestLogger())
	svc := NewService(Config{SeedOnEmpty: true, ArtworkStyle: "studio light"}, repo, est, artwork, nil, newTestLogger())
	return svc, repo
}

func TestService_CreateDerivesEMIAndSavings(t *testing.T) {
	svc, _ := newTestService(t, nil)

	product, err := svc.Create(context.Background(), CreateRequest{
		Name:     " Premium Residential 4kW ",
		Capacity: "4kW",
		Price:    decimal.NewFromInt(245000),
		Features: []string{" Tier 1 Panels ", "", "  ", "Net metering"},
		Quantity: 4,
	})
	require.NoError(t, err)
	require.Equal(t, "Premium Residential 4kW", product.Name)
	require.True(t, product.EMI.Equal(decimal.NewFromInt(8167)), product.EMI.String())
	require.True(t, product.Savings.Equal(decimal.NewFromInt(6125)), product.Savings.String())
	require.Equal(t, []string{"Tier 1 Panels", "Net metering"}, product.Features)
	require.Equal(t, InStock, product.StockStatus)

	_, err = svc.Create(context.Background(), CreateRequest{Name: "x", Capacity: "1kW", Price: decimal.Zero})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestService_UpdatePriceRecomputesEMI(t *testing.T) {
	svc, _ := newTestService(t, nil)
	product, err := svc.Create(context.Background(), CreateRequest{Name: "Kit", Capacity: "3kW", Price: decimal.NewFromInt(185000)})
	require.NoError(t, err)

	updated, err := svc.UpdatePrice(context.Background(), product.ID, decimal.NewFromInt(180000))
	require.NoError(t, err)
	require.True(t, updated.EMI.Equal(decimal.NewFromInt(6000)))
	require.True(t, updated.Savings.Equal(product.Savings), "savings are fixed at creation")

	_, err = svc.UpdatePrice(context.Background(), "missing", decimal.NewFromInt(1))
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestService_ToggleStockAndDelete(t *testing.T) {
	svc, _ := newTestService(t, nil)
	product, err := svc.Create(context.Background(), CreateRequest{Name: "Kit", Capacity: "1kW", Price: decimal.NewFromInt(65000)})
	require.NoError(t, err)

	toggled, err := svc.ToggleStock(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, OutOfStock, toggled.StockStatus)
	toggled, err = svc.ToggleStock(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, InStock, toggled.StockStatus)

	require.NoError(t, svc.Delete(context.Background(), product.ID))
	err = svc.Delete(context.Background(), product.ID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestService_SeedAndFilter(t *testing.T) {
	svc, _ := newTestService(t, nil)
	created, err := svc.Seed(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, created)

	again, err := svc.Seed(context.Background())
	require.NoError(t, err)
	require.Zero(t, again)

	all, err := svc.List(context.Background(), Filter{Capacity: "all"})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, []string{"1kW", "3kW", "5kW", "10kW"}, capacities(all))

	one, err := svc.List(context.Background(), Filter{Capacity: "1kW"})
	require.NoError(t, err)
	require.Equal(t, []string{"1kW"}, capacities(one))

	maxPrice := decimal.NewFromInt(300000)
	maxEMI := decimal.NewFromInt(7000)
	cheap, err := svc.List(context.Background(), Filter{MaxPrice: &maxPrice, MaxEMI: &maxEMI})
	require.NoError(t, err)
	require.Equal(t, []string{"1kW", "3kW"}, capacities(cheap))
}

func TestService_Projection(t *testing.T) {
	svc, repo := newTestService(t, nil)
	_, err := svc.Seed(context.Background())
	require.NoError(t, err)
	threeKW := repo.byCapacity("3kW")

	proj, err := svc.Projection(context.Background(), threeKW.ID, 3000)
	require.NoError(t, err)
	require.InDelta(t, 2550, proj.MonthlySavings, 1e-9)
	require.InDelta(t, 185000.0/(2550*12), proj.PaybackYears, 1e-9)

	_, err = svc.Projection(context.Background(), threeKW.ID, 0)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDivisionUndefined))
}

func TestService_GenerateArtwork(t *testing.T) {
	art := &stubArtwork{}
	svc, _ := newTestService(t, art)
	product, err := svc.Create(context.Background(), CreateRequest{Name: "Kit", Capacity: "5kW", Price: decimal.NewFromInt(295000)})
	require.NoError(t, err)

	updated, err := svc.GenerateArtwork(context.Background(), product.ID, "on a terracotta roof")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/artwork/"+product.ID+".png", updated.ImageURL)
	require.Equal(t, "Kit, a 5kW rooftop solar kit. on a terracotta roof. studio light", art.prompt)

	noArt, _ := newTestService(t, nil)
	_, err = noArt.GenerateArtwork(context.Background(), product.ID, "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeMediaDisabled))
}

func TestCapacityKW(t *testing.T) {
	require.Equal(t, 3.0, Product{Capacity: "3kW"}.CapacityKW())
	require.Equal(t, 2.5, Product{Capacity: "2.5 kW"}.CapacityKW())
	require.Equal(t, 12.0, Product{Capacity: "12"}.CapacityKW())
	require.Equal(t, -1.0, Product{Capacity: "large"}.CapacityKW())
}

func capacities(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Capacity)
	}
	return out
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubArtwork struct {
	prompt string
}

func (a *stubArtwork) GenerateArtwork(_ context.Context, subjectID, prompt string) (media.StoredObject, error) {
	a.prompt = prompt
	return media.StoredObject{Key: "artwork/" + subjectID + ".png", URL: "https://cdn.test/artwork/" + subjectID + ".png"}, nil
}

type stubRepo struct {
	products map[string]Product
	seq      int
}

func newStubRepo() *stubRepo {
	return &stubRepo{products: make(map[string]Product)}
}

func (r *stubRepo) byCapacity(capacity string) Product {
	for _, p := range r.products {
		if p.Capacity == capacity {
			return p
		}
	}
	return Product{}
}

func (r *stubRepo) Create(_ context.Context, p Product) (Product, error) {
	r.seq++
	p.ID = "prod-" + strconv.Itoa(r.seq)
	r.products[p.ID] = p
	return p, nil
}

func (r *stubRepo) Get(_ context.Context, id string) (Product, bool, error) {
	p, ok := r.products[id]
	return p, ok, nil
}

func (r *stubRepo) List(_ context.Context) ([]Product, error) {
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *stubRepo) Update(_ context.Context, p Product) (Product, error) {
	if _, ok := r.products[p.ID]; !ok {
		return Product{}, ErrNotFound
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *stubRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *stubRepo) Count(context.Context) (int, error) {
	return len(r.products), nil
}
