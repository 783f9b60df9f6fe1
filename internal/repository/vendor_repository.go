package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Cristi-la/EOL-Net/internal/domain"
)

// VendorRepository exposes read access to vendors.
type VendorRepository interface {
	List(ctx context.Context) ([]domain.Vendor, error)
	GetByID(ctx context.Context, id int64) (*domain.Vendor, error)
	Create(ctx context.Context, vendor *domain.Vendor) error
	// Missing returns the ids from ids that have no vendor row.
	Missing(ctx context.Context, ids []int64) ([]int64, error)
}

type vendorRepository struct {
	pool *pgxpool.Pool
}

// NewVendorRepository builds the repository.
func NewVendorRepository(pool *pgxpool.Pool) VendorRepository {
	return &vendorRepository{pool: pool}
}

func (r *vendorRepository) List(ctx context.Context) ([]domain.Vendor, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM vendors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Vendor
	for rows.Next() {
		var vendor domain.Vendor
		if err := rows.Scan(&vendor.ID, &vendor.Name); err != nil {
			return nil, err
		}
		result = append(result, vendor)
	}
	return result, rows.Err()
}

func (r *vendorRepository) GetByID(ctx context.Context, id int64) (*domain.Vendor, error) {
	var vendor domain.Vendor
	if err := r.pool.QueryRow(ctx, `SELECT id, name FROM vendors WHERE id=$1`, id).Scan(&vendor.ID, &vendor.Name); err != nil {
		return nil, mapError(err)
	}
	return &vendor, nil
}

func (r *vendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	err := r.pool.QueryRow(ctx, `INSERT INTO vendors (name) VALUES ($1) RETURNING id`, vendor.Name).Scan(&vendor.ID)
	return mapError(err)
}

func (r *vendorRepository) Missing(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT want.id
        FROM unnest($1::bigint[]) AS want(id)
        LEFT JOIN vendors v ON v.id = want.id
        WHERE v.id IS NULL`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}
