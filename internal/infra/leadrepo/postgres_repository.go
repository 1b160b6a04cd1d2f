package leadrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/solarinfra/internal/domain/lead"
)

const leadColumns = `id::text, user_id, user_email, monthly_bill, estimated_savings, carbon_offset, status, created_at, updated_at`

// PostgresRepository persists design leads in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a lead row.
func (r *PostgresRepository) Create(ctx context.Context, l lead.DesignLead) (lead.DesignLead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO design_leads (user_id, user_email, monthly_bill, estimated_savings, carbon_offset, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+leadColumns,
		l.UserID, l.UserEmail, l.MonthlyBill, l.EstimatedSavings, l.CarbonOffset, string(l.Status), l.CreatedAt, l.UpdatedAt)
	return scanLead(row)
}

// Get fetches a lead by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (lead.DesignLead, bool, error) {
	l, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM design_leads WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return lead.DesignLead{}, false, nil
	}
	if err != nil {
		return lead.DesignLead{}, false, err
	}
	return l, true, nil
}

// Update writes the follow-up status.
func (r *PostgresRepository) Update(ctx context.Context, l lead.DesignLead) (lead.DesignLead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE design_leads SET status = $2, updated_at = $3
		WHERE id::text = $1
		RETURNING `+leadColumns, l.ID, string(l.Status), l.UpdatedAt)
	updated, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return lead.DesignLead{}, lead.ErrNotFound
	}
	return updated, err
}

// List returns leads newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]lead.DesignLead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM design_leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []lead.DesignLead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (lead.DesignLead, error) {
	var (
		l      lead.DesignLead
		status string
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.UserEmail, &l.MonthlyBill, &l.EstimatedSavings, &l.CarbonOffset,
		&status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return lead.DesignLead{}, err
	}
	parsed, err := lead.ParseStatus(status)
	if err != nil {
		return lead.DesignLead{}, err
	}
	l.Status = parsed
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l, nil
}

var _ lead.Repository = (*PostgresRepository)(nil)
