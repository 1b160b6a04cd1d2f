package productrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/yanqian/solarinfra/internal/domain/catalog"
)

const productColumns = `id::text, name, capacity, price::text, emi::text, savings::text, image_url, description, features, quantity, stock_status, created_at, updated_at`

// PostgresRepository persists products in Postgres. Money columns are NUMERIC.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a product row.
func (r *PostgresRepository) Create(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, capacity, price, emi, savings, image_url, description, features, quantity, stock_status, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+productColumns,
		p.Name, p.Capacity, p.Price.String(), p.EMI.String(), p.Savings.String(), p.ImageURL, p.Description,
		features, p.Quantity, string(p.StockStatus), p.CreatedAt, p.UpdatedAt)
	return scanProduct(row)
}

// Get fetches a product by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (catalog.Product, bool, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, false, nil
	}
	if err != nil {
		return catalog.Product{}, false, err
	}
	return p, true, nil
}

// List returns every product.
func (r *PostgresRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update overwrites the mutable columns.
func (r *PostgresRepository) Update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, capacity = $3, price = $4::numeric, emi = $5::numeric, savings = $6::numeric,
		    image_url = $7, description = $8, features = $9, quantity = $10, stock_status = $11, updated_at = $12
		WHERE id::text = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Capacity, p.Price.String(), p.EMI.String(), p.Savings.String(), p.ImageURL, p.Description,
		features, p.Quantity, string(p.StockStatus), p.UpdatedAt)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return updated, err
}

// Delete removes a product.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Count returns the number of products.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (catalog.Product, error) {
	var (
		p                   catalog.Product
		price, emi, savings string
		stock               string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Capacity, &price, &emi, &savings, &p.ImageURL, &p.Description,
		&p.Features, &p.Quantity, &stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return catalog.Product{}, err
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return catalog.Product{}, fmt.Errorf("parse price: %w", err)
	}
	if p.EMI, err = decimal.NewFromString(emi); err != nil {
		return catalog.Product{}, fmt.Errorf("parse emi: %w", err)
	}
	if p.Savings, err = decimal.NewFromString(savings); err != nil {
		return catalog.Product{}, fmt.Errorf("parse savings: %w", err)
	}
	p.StockStatus = catalog.StockStatus(stock)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

var _ catalog.Repository = (*PostgresRepository)(nil)
