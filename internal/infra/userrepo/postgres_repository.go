package userrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/solarinfra/internal/domain/auth"
)

const uniqueViolation = "23505"

const userColumns = `id::text, email, display_name, role, phone, address, latest_bill_url, bill_updated_at, password_hash, created_at, updated_at`

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new user row.
func (r *PostgresRepository) Create(ctx context.Context, nu auth.NewUser) (auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, display_name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		nu.Email, nu.DisplayName, string(nu.Role), nu.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.User{}, auth.ErrEmailExists
		}
		return auth.User{}, err
	}
	return user, nil
}

// GetByEmail fetches a user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (auth.User, bool, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = $1 LIMIT 1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (auth.User, bool, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	return user, true, nil
}

// Update overwrites the profile columns.
func (r *PostgresRepository) Update(ctx context.Context, user auth.User) (auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET display_name = $2, role = $3, phone = $4, address = $5,
		    latest_bill_url = $6, bill_updated_at = $7, updated_at = now()
		WHERE id::text = $1
		RETURNING `+userColumns,
		user.ID, user.DisplayName, string(user.Role), user.Phone, user.Address, user.LatestBillURL, user.BillUpdatedAt)
	updated, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	return updated, err
}

// List returns users newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]auth.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetIdentity returns an identity by provider and subject.
func (r *PostgresRepository) GetIdentity(ctx context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	return r.getIdentity(ctx, `
		SELECT id, user_id::text, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM user_identities
		WHERE provider = $1 AND provider_subject = $2
	`, provider, providerSubject)
}

// GetIdentityByUser returns the identity linked to a user for the provider.
func (r *PostgresRepository) GetIdentityByUser(ctx context.Context, userID string, provider string) (auth.Identity, bool, error) {
	return r.getIdentity(ctx, `
		SELECT id, user_id::text, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM user_identities
		WHERE user_id::text = $1 AND provider = $2
	`, userID, provider)
}

func (r *PostgresRepository) getIdentity(ctx context.Context, query string, args ...any) (auth.Identity, bool, error) {
	var identity auth.Identity
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&identity.ID, &identity.UserID, &identity.Provider, &identity.ProviderSubject,
		&identity.ProviderEmail, &identity.RefreshToken, &identity.CreatedAt, &identity.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return identity, true, nil
}

// UpsertIdentity stores the identity, keeping an existing refresh token when none is supplied.
func (r *PostgresRepository) UpsertIdentity(ctx context.Context, identity auth.Identity) (auth.Identity, error) {
	var out auth.Identity
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_identities (user_id, provider, provider_subject, provider_email, refresh_token)
		VALUES ($1::uuid, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_subject) DO UPDATE
		SET provider_email = COALESCE(NULLIF(EXCLUDED.provider_email, ''), user_identities.provider_email),
		    refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), user_identities.refresh_token),
		    updated_at = now()
		RETURNING id, user_id::text, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
	`, identity.UserID, identity.Provider, identity.ProviderSubject, identity.ProviderEmail, identity.RefreshToken).Scan(
		&out.ID, &out.UserID, &out.Provider, &out.ProviderSubject,
		&out.ProviderEmail, &out.RefreshToken, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (auth.User, error) {
	var (
		user    auth.User
		role    string
		billAt  *time.Time
		created time.Time
		updated time.Time
	)
	if err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &role, &user.Phone, &user.Address,
		&user.LatestBillURL, &billAt, &user.PasswordHash, &created, &updated); err != nil {
		return auth.User{}, err
	}
	parsed, err := auth.ParseRole(role)
	if err != nil {
		parsed = auth.RoleUser
	}
	user.Role = parsed
	if billAt != nil {
		at := billAt.UTC()
		user.BillUpdatedAt = &at
	}
	user.CreatedAt = created.UTC()
	user.UpdatedAt = updated.UTC()
	return user, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)
