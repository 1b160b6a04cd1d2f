package quote

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/solarinfra/internal/domain/catalog"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

var customer = Requester{UserID: "u1", Name: "Asha", Email: "asha@example.com"}

func validInput(productID string) RequestInput {
	return RequestInput{
		ProductID: productID,
		Address:   Address{Street: " 12 MG Road ", City: "Pune", Pincode: "411001"},
		Phone:     "+91 98765 43210",
	}
}

func newTestService() (*service, *stubRepo, *stubProducts) {
	repo := newStubRepo()
	products := &stubProducts{items: map[string]catalog.Product{
		"p3": {ID: "p3", Name: "3kW Rooftop Solar System", Price: decimal.NewFromInt(185000), StockStatus: catalog.InStock},
		"p5": {ID: "p5", Name: "5kW Rooftop Solar System", Price: decimal.NewFromInt(295000), StockStatus: catalog.OutOfStock},
	}}
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(Config{}, repo, products, SimulatedGateway{Clock: func() time.Time { return fixed }}, nil, newTestLogger()).(*service)
	tick := fixed
	svc.clock = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return svc, repo, products
}

func TestService_RequestCopiesProduct(t *testing.T) {
	svc, _, _ := newTestService()

	q, err := svc.Request(context.Background(), customer, validInput("p3"))
	require.NoError(t, err)
	require.Equal(t, StatusPending, q.Status)
	require.Equal(t, "3kW Rooftop Solar System", q.ProductName)
	require.True(t, q.BasePrice.Equal(decimal.NewFromInt(185000)))
	require.Equal(t, "12 MG Road, Pune - 411001", q.Address)
	require.Equal(t, "asha@example.com", q.UserEmail)
	require.Nil(t, q.FinalPrice)
	require.True(t, q.DisplayPrice().Equal(q.BasePrice))
}

func TestService_RequestValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Request(ctx, customer, validInput("p5"))
	require.True(t, apperrors.IsCode(err, apperrors.CodeOutOfStock))

	_, err = svc.Request(ctx, customer, validInput("missing"))
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.Request(ctx, Requester{}, validInput("p3"))
	require.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	in := validInput("p3")
	in.Address.Pincode = "41100"
	_, err = svc.Request(ctx, customer, in)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	in = validInput("p3")
	in.Phone = "12"
	_, err = svc.Request(ctx, customer, in)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestService_FullNegotiationAndPayment(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Request(ctx, customer, validInput("p3"))
	require.NoError(t, err)

	_, err = svc.Accept(ctx, customer.UserID, q.ID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition), "pending quotes cannot be accepted")

	revised, err := svc.Revise(ctx, q.ID, ReviseRequest{Notes: "festival offer"})
	require.NoError(t, err)
	require.Equal(t, StatusSent, revised.Status)
	require.True(t, revised.FinalPrice.Equal(decimal.NewFromInt(175750)), revised.FinalPrice.String())
	require.Equal(t, "festival offer", revised.AdminNotes)
	require.True(t, revised.DisplayPrice().Equal(decimal.NewFromInt(175750)))

	_, err = svc.Pay(ctx, customer.UserID, q.ID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition), "sent quotes cannot be paid")

	_, err = svc.Accept(ctx, "someone-else", q.ID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	accepted, err := svc.Accept(ctx, customer.UserID, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, accepted.Status)

	paid, err := svc.Pay(ctx, customer.UserID, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.True(t, strings.HasPrefix(paid.PaymentRef, "SIM-"))
	require.Len(t, paid.PaymentRef, 16)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.Revise(ctx, q.ID, ReviseRequest{Status: StatusDraft})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))
}

// racingGateway lets another writer pay the quote while this charge is in flight.
type racingGateway struct {
	SimulatedGateway
	repo *stubRepo
}

func (g racingGateway) Charge(ctx context.Context, q Quote, amount decimal.Decimal) (PaymentReceipt, error) {
	winner := g.repo.quotes[q.ID]
	winner.Status = StatusPaid
	winner.PaymentRef = "SIM-FIRSTPAYER1"
	g.repo.quotes[q.ID] = winner
	return g.SimulatedGateway.Charge(ctx, q, amount)
}

func TestService_PayLosesToConcurrentPayment(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	q, err := svc.Request(ctx, customer, validInput("p3"))
	require.NoError(t, err)
	_, err = svc.Revise(ctx, q.ID, ReviseRequest{})
	require.NoError(t, err)
	_, err = svc.Accept(ctx, customer.UserID, q.ID)
	require.NoError(t, err)

	svc.gateway = racingGateway{SimulatedGateway: SimulatedGateway{}, repo: repo}
	_, err = svc.Pay(ctx, customer.UserID, q.ID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition), "second payment must not overwrite the first")

	stored := repo.quotes[q.ID]
	require.Equal(t, StatusPaid, stored.Status)
	require.Equal(t, "SIM-FIRSTPAYER1", stored.PaymentRef)
}

func TestService_ReviseExplicitPriceAndDraft(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	q, err := svc.Request(ctx, customer, validInput("p3"))
	require.NoError(t, err)

	price := decimal.NewFromInt(170000)
	draft, err := svc.Revise(ctx, q.ID, ReviseRequest{FinalPrice: &price, Status: StatusDraft})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, draft.Status)
	require.True(t, draft.FinalPrice.Equal(price))

	_, err = svc.Revise(ctx, q.ID, ReviseRequest{Status: StatusPaid})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	zero := decimal.Zero
	_, err = svc.Revise(ctx, q.ID, ReviseRequest{FinalPrice: &zero})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	rejected, err := svc.Revise(ctx, q.ID, ReviseRequest{Status: StatusRejected})
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.True(t, rejected.Status.Terminal())
}

func TestService_CustomerReject(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	q, err := svc.Request(ctx, customer, validInput("p3"))
	require.NoError(t, err)
	_, err = svc.Revise(ctx, q.ID, ReviseRequest{})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, customer.UserID, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)

	_, err = svc.Accept(ctx, customer.UserID, q.ID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))
}

func TestService_ListsNewestFirst(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	first, err := svc.Request(ctx, customer, validInput("p3"))
	require.NoError(t, err)
	second, err := svc.Request(ctx, customer, validInput("p3"))
	require.NoError(t, err)
	_, err = svc.Request(ctx, Requester{UserID: "u2", Name: "Ravi"}, validInput("p3"))
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, customer.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, second.ID, mine[0].ID)
	require.Equal(t, first.ID, mine[1].ID)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "u2", all[0].UserID)
}

func TestTransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:  {StatusDraft, StatusSent, StatusRejected},
		StatusDraft:    {StatusDraft, StatusSent, StatusRejected},
		StatusSent:     {StatusDraft, StatusSent, StatusApproved, StatusRejected},
		StatusApproved: {StatusPaid},
	}
	all := []Status{StatusPending, StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusPaid}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			require.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	require.True(t, StatusPaid.Terminal())
	require.False(t, StatusApproved.Terminal())

	_, err := ParseStatus("shipped")
	require.Error(t, err)
	s, err := ParseStatus(" Sent ")
	require.NoError(t, err)
	require.Equal(t, StatusSent, s)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProducts struct {
	items map[string]catalog.Product
}

func (p *stubProducts) Get(_ context.Context, id string) (catalog.Product, error) {
	product, ok := p.items[id]
	if !ok {
		return catalog.Product{}, apperrors.Wrap(apperrors.CodeNotFound, "product not found", nil)
	}
	return product, nil
}

type stubRepo struct {
	quotes map[string]Quote
	seq    int
}

func newStubRepo() *stubRepo {
	return &stubRepo{quotes: make(map[string]Quote)}
}

func (r *stubRepo) Create(_ context.Context, q Quote) (Quote, error) {
	r.seq++
	q.ID = "q" + strconv.Itoa(r.seq)
	r.quotes[q.ID] = q
	return q, nil
}

func (r *stubRepo) Get(_ context.Context, id string) (Quote, bool, error) {
	q, ok := r.quotes[id]
	return q, ok, nil
}

func (r *stubRepo) Update(_ context.Context, q Quote, from Status) (Quote, error) {
	stored, ok := r.quotes[q.ID]
	if !ok {
		return Quote{}, ErrNotFound
	}
	if stored.Status != from {
		return Quote{}, ErrStatusChanged
	}
	r.quotes[q.ID] = q
	return q, nil
}

func (r *stubRepo) ListByUser(ctx context.Context, userID string) ([]Quote, error) {
	all, _ := r.ListAll(ctx)
	out := all[:0]
	for _, q := range all {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *stubRepo) ListAll(context.Context) ([]Quote, error) {
	out := make([]Quote, 0, len(r.quotes))
	for _, q := range r.quotes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
