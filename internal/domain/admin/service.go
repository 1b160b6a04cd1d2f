package admin

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/yanqian/solarinfra/internal/domain/auth"
	"github.com/yanqian/solarinfra/internal/domain/catalog"
	"github.com/yanqian/solarinfra/internal/domain/lead"
	"github.com/yanqian/solarinfra/internal/domain/quote"
	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

// RecentUsers is how many accounts the overview shows.
const RecentUsers = 50

// Service assembles the back-office dashboard.
type Service interface {
	Overview(ctx context.Context) (Overview, error)
}

// Overview is everything the dashboard renders in one response.
type Overview struct {
	Users    []auth.UserView   `json:"users"`
	Products []catalog.Product `json:"products"`
	Quotes   []quote.Quote     `json:"quotes"`
	Leads    []lead.DesignLead `json:"leads"`
	Stats    Stats             `json:"stats"`
}

// Stats summarises the quote pipeline.
type Stats struct {
	QuotesByStatus map[quote.Status]int `json:"quotesByStatus"`
	// Pipeline is the displayed price of every open quote.
	Pipeline  decimal.Decimal `json:"pipeline"`
	Revenue   decimal.Decimal `json:"revenue"`
	OpenLeads int             `json:"openLeads"`
}

// UserLister supplies the most recent accounts for the dashboard.
type UserLister interface {
	ListUsers(ctx context.Context, limit int) ([]auth.UserView, error)
}

// ProductLister supplies the catalog, including out-of-stock products.
type ProductLister interface {
	List(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error)
}

// QuoteLister supplies every quote regardless of owner.
type QuoteLister interface {
	ListAll(ctx context.Context) ([]quote.Quote, error)
}

// LeadLister supplies captured design leads.
type LeadLister interface {
	List(ctx context.Context) ([]lead.DesignLead, error)
}

type service struct {
	users    UserLister
	products ProductLister
	quotes   QuoteLister
	leads    LeadLister
	logger   *slog.Logger
}

// NewService wires the dashboard over the other domains.
func NewService(users UserLister, products ProductLister, quotes QuoteLister, leads LeadLister, logger *slog.Logger) Service {
	return &service{
		users:    users,
		products: products,
		quotes:   quotes,
		leads:    leads,
		logger:   logger.With("component", "admin.service"),
	}
}

// Overview loads the four collections concurrently and fails as a whole.
func (s *service) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		users, err := s.users.ListUsers(egCtx, RecentUsers)
		out.Users = users
		return err
	})
	eg.Go(func() error {
		products, err := s.products.List(egCtx, catalog.Filter{})
		out.Products = products
		return err
	})
	eg.Go(func() error {
		quotes, err := s.quotes.ListAll(egCtx)
		out.Quotes = quotes
		return err
	})
	eg.Go(func() error {
		leads, err := s.leads.List(egCtx)
		out.Leads = leads
		return err
	})
	if err := eg.Wait(); err != nil {
		s.logger.Error("admin overview failed", "error", err)
		if apperrors.CodeOf(err) != "" {
			return Overview{}, err
		}
		return Overview{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load overview", err)
	}
	out.Stats = summarize(out.Quotes, out.Leads)
	return out, nil
}

func summarize(quotes []quote.Quote, leads []lead.DesignLead) Stats {
	stats := Stats{
		QuotesByStatus: make(map[quote.Status]int),
		Pipeline:       decimal.Zero,
		Revenue:        decimal.Zero,
	}
	for _, q := range quotes {
		stats.QuotesByStatus[q.Status]++
		switch {
		case q.Status == quote.StatusPaid:
			stats.Revenue = stats.Revenue.Add(q.DisplayPrice())
		case !q.Status.Terminal():
			stats.Pipeline = stats.Pipeline.Add(q.DisplayPrice())
		}
	}
	for _, l := range leads {
		if l.Status == lead.StatusInterested || l.Status == lead.StatusContacted {
			stats.OpenLeads++
		}
	}
	return stats
}
