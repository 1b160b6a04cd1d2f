package quoterepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/yanqian/solarinfra/internal/domain/quote"
)

const quoteColumns = `id::text, user_id, user_name, user_email, product_id, product_name, status,
	base_price::text, final_price::text, admin_notes, address, phone, payment_ref, paid_at, created_at, updated_at`

// PostgresRepository persists quotes in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a quote row.
func (r *PostgresRepository) Create(ctx context.Context, q quote.Quote) (quote.Quote, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO quotes (user_id, user_name, user_email, product_id, product_name, status, base_price, final_price,
		                    admin_notes, address, phone, payment_ref, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+quoteColumns,
		q.UserID, q.UserName, q.UserEmail, q.ProductID, q.ProductName, string(q.Status), q.BasePrice.String(),
		optionalMoney(q.FinalPrice), q.AdminNotes, q.Address, q.Phone, q.PaymentRef, q.PaidAt, q.CreatedAt, q.UpdatedAt)
	return scanQuote(row)
}

// Get fetches a quote by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (quote.Quote, bool, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return quote.Quote{}, false, nil
	}
	if err != nil {
		return quote.Quote{}, false, err
	}
	return q, true, nil
}

// Update overwrites negotiation and payment columns.
func (r *PostgresRepository) Update(ctx context.Context, q quote.Quote, from quote.Status) (quote.Quote, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE quotes
		SET status = $2, final_price = $3::numeric, admin_notes = $4, payment_ref = $5, paid_at = $6, updated_at = $7
		WHERE id::text = $1 AND status = $8
		RETURNING `+quoteColumns,
		q.ID, string(q.Status), optionalMoney(q.FinalPrice), q.AdminNotes, q.PaymentRef, q.PaidAt, q.UpdatedAt, string(from))
	updated, err := scanQuote(row)
	if !errors.Is(err, pgx.ErrNoRows) {
		return updated, err
	}
	if _, found, getErr := r.Get(ctx, q.ID); getErr != nil {
		return quote.Quote{}, getErr
	} else if found {
		return quote.Quote{}, quote.ErrStatusChanged
	}
	return quote.Quote{}, quote.ErrNotFound
}

// ListByUser returns one customer's quotes, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]quote.Quote, error) {
	return r.list(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListAll returns every quote, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]quote.Quote, error) {
	return r.list(ctx, `SELECT `+quoteColumns+` FROM quotes ORDER BY created_at DESC`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]quote.Quote, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []quote.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func optionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (quote.Quote, error) {
	var (
		q      quote.Quote
		status string
		base   string
		final  *string
		paidAt *time.Time
	)
	if err := row.Scan(&q.ID, &q.UserID, &q.UserName, &q.UserEmail, &q.ProductID, &q.ProductName, &status,
		&base, &final, &q.AdminNotes, &q.Address, &q.Phone, &q.PaymentRef, &paidAt, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return quote.Quote{}, err
	}
	parsed, err := quote.ParseStatus(status)
	if err != nil {
		return quote.Quote{}, err
	}
	q.Status = parsed
	if q.BasePrice, err = decimal.NewFromString(base); err != nil {
		return quote.Quote{}, fmt.Errorf("parse base price: %w", err)
	}
	if final != nil {
		d, err := decimal.NewFromString(*final)
		if err != nil {
			return quote.Quote{}, fmt.Errorf("parse final price: %w", err)
		}
		q.FinalPrice = &d
	}
	if paidAt != nil {
		at := paidAt.UTC()
		q.PaidAt = &at
	}
	q.CreatedAt = q.CreatedAt.UTC()
	q.UpdatedAt = q.UpdatedAt.UTC()
	return q, nil
}

var _ quote.Repository = (*PostgresRepository)(nil)
