package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Cristi-la/EOL-Net/internal/domain"
)

// TokenRepository persists API capability tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.APIToken) error
	GetByKey(ctx context.Context, key string) (*domain.APIToken, error)
	GetByID(ctx context.Context, id string) (*domain.APIToken, error)
	List(ctx context.Context) ([]domain.APIToken, error)
	Delete(ctx context.Context, id string) error
}

type tokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a Postgres-backed implementation.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

const tokenColumns = `
        t.id, t.name, t.key, t.user_id, t.can_write, t.can_edit, t.can_delete,
        COALESCE(array_agg(v.vendor_id ORDER BY v.vendor_id) FILTER (WHERE v.vendor_id IS NOT NULL), '{}'),
        t.throttle_scope, t.valid_until, t.created_at, t.updated_at`

// Create inserts the token and its vendor allowlist in one transaction.
func (r *tokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertToken = `
        INSERT INTO api_tokens (name, key, user_id, can_write, can_edit, can_delete, throttle_scope, valid_until)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertToken,
		token.Name,
		token.Key,
		token.OwnerID,
		token.CanWrite,
		token.CanEdit,
		token.CanDelete,
		token.ThrottleClass,
		token.ValidUntil,
	).Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt); err != nil {
		return mapError(err)
	}

	if len(token.AllowedVendors) > 0 {
		const insertVendors = `
        INSERT INTO api_token_vendors (token_id, vendor_id)
        SELECT $1, unnest($2::bigint[])
        ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, insertVendors, token.ID, token.AllowedVendors); err != nil {
			return mapError(err)
		}
	}

	return mapError(tx.Commit(ctx))
}

func (r *tokenRepository) GetByKey(ctx context.Context, key string) (*domain.APIToken, error) {
	query := `
        SELECT` + tokenColumns + `
        FROM api_tokens t
        LEFT JOIN api_token_vendors v ON v.token_id = t.id
        WHERE t.key=$1
        GROUP BY t.id`

	token, err := scanToken(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		return nil, mapError(err)
	}
	return token, nil
}

func (r *tokenRepository) GetByID(ctx context.Context, id string) (*domain.APIToken, error) {
	query := `
        SELECT` + tokenColumns + `
        FROM api_tokens t
        LEFT JOIN api_token_vendors v ON v.token_id = t.id
        WHERE t.id=$1
        GROUP BY t.id`

	token, err := scanToken(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return token, nil
}

func (r *tokenRepository) List(ctx context.Context) ([]domain.APIToken, error) {
	query := `
        SELECT` + tokenColumns + `
        FROM api_tokens t
        LEFT JOIN api_token_vendors v ON v.token_id = t.id
        GROUP BY t.id
        ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.APIToken
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *token)
	}
	return result, rows.Err()
}

func (r *tokenRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM api_tokens WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanToken(row pgx.Row) (*domain.APIToken, error) {
	var token domain.APIToken
	if err := row.Scan(
		&token.ID,
		&token.Name,
		&token.Key,
		&token.OwnerID,
		&token.CanWrite,
		&token.CanEdit,
		&token.CanDelete,
		&token.AllowedVendors,
		&token.ThrottleClass,
		&token.ValidUntil,
		&token.CreatedAt,
		&token.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}
