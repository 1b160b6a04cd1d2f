package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/solarinfra/internal/domain/auth"
	"github.com/yanqian/solarinfra/internal/domain/catalog"
	"github.com/yanqian/solarinfra/internal/domain/lead"
	"github.com/yanqian/solarinfra/internal/domain/quote"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestService_Overview(t *testing.T) {
	var gotLimit int
	users := &stubUsers{fn: func(_ context.Context, limit int) ([]auth.UserView, error) {
		gotLimit = limit
		return []auth.UserView{{ID: "u1"}}, nil
	}}
	products := stubProducts(func(context.Context, catalog.Filter) ([]catalog.Product, error) {
		return []catalog.Product{{ID: "p1", Capacity: "1kW"}}, nil
	})
	quotes := stubQuotes(func(context.Context) ([]quote.Quote, error) {
		return []quote.Quote{
			{ID: "q1", Status: quote.StatusPending, BasePrice: decimal.NewFromInt(185000)},
			{ID: "q2", Status: quote.StatusSent, BasePrice: decimal.NewFromInt(185000), FinalPrice: price(175750)},
			{ID: "q3", Status: quote.StatusPaid, BasePrice: decimal.NewFromInt(65000), FinalPrice: price(60000)},
			{ID: "q4", Status: quote.StatusRejected, BasePrice: decimal.NewFromInt(540000)},
		}, nil
	})
	leads := stubLeads(func(context.Context) ([]lead.DesignLead, error) {
		return []lead.DesignLead{{ID: "l1", Status: lead.StatusInterested}, {ID: "l2", Status: lead.StatusLost}}, nil
	})

	svc := NewService(users, products, quotes, leads, newTestLogger())
	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, RecentUsers, gotLimit)
	require.Len(t, overview.Users, 1)
	require.Len(t, overview.Products, 1)
	require.Len(t, overview.Quotes, 4)
	require.Len(t, overview.Leads, 2)

	require.Equal(t, 1, overview.Stats.QuotesByStatus[quote.StatusPaid])
	require.True(t, overview.Stats.Pipeline.Equal(decimal.NewFromInt(360750)), overview.Stats.Pipeline.String())
	require.True(t, overview.Stats.Revenue.Equal(decimal.NewFromInt(60000)))
	require.Equal(t, 1, overview.Stats.OpenLeads)
}

func TestService_OverviewFailsAsAWhole(t *testing.T) {
	users := &stubUsers{fn: func(context.Context, int) ([]auth.UserView, error) {
		return []auth.UserView{{ID: "u1"}}, nil
	}}
	products := stubProducts(func(context.Context, catalog.Filter) ([]catalog.Product, error) { return nil, nil })
	quotes := stubQuotes(func(context.Context) ([]quote.Quote, error) {
		return nil, errors.New("connection reset")
	})
	leads := stubLeads(func(ctx context.Context) ([]lead.DesignLead, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	svc := NewService(users, products, quotes, leads, newTestLogger())
	overview, err := svc.Overview(context.Background())
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
	require.Empty(t, overview.Users)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubUsers struct {
	fn func(ctx context.Context, limit int) ([]auth.UserView, error)
}

func (s *stubUsers) ListUsers(ctx context.Context, limit int) ([]auth.UserView, error) {
	return s.fn(ctx, limit)
}

type stubProducts func(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error)

func (f stubProducts) List(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error) {
	return f(ctx, filter)
}

type stubQuotes func(ctx context.Context) ([]quote.Quote, error)

func (f stubQuotes) ListAll(ctx context.Context) ([]quote.Quote, error) { return f(ctx) }

type stubLeads func(ctx context.Context) ([]lead.DesignLead, error)

func (f stubLeads) List(ctx context.Context) ([]lead.DesignLead, error) { return f(ctx) }
