package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Cristi-la/EOL-Net/internal/domain"
)

// EntityRepository persists products and software packages. Both kinds share one
// table layout; the kind selects the table.
type EntityRepository interface {
	List(ctx context.Context, kind domain.EntityKind) ([]domain.Entity, error)
	GetByID(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error)
	Create(ctx context.Context, entity *domain.Entity) error
	Update(ctx context.Context, entity *domain.Entity) error
	Delete(ctx context.Context, kind domain.EntityKind, id int64) error
}

type entityRepository struct {
	pool *pgxpool.Pool
}

// NewEntityRepository instantiates repository.
func NewEntityRepository(pool *pgxpool.Pool) EntityRepository {
	return &entityRepository{pool: pool}
}

func tableFor(kind domain.EntityKind) (string, error) {
	switch kind {
	case domain.EntityProduct:
		return "products", nil
	case domain.EntitySoftware:
		return "software", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

const entitySelect = `
        SELECT e.id, e.vendor_id, v.name, e.name,
            e.end_of_life_announced_date, e.end_of_engineering_date, e.end_of_sale_date, e.end_of_life_date,
            e.created_at, e.updated_at
        FROM %s e
        JOIN vendors v ON v.id = e.vendor_id`

func (r *entityRepository) List(ctx context.Context, kind domain.EntityKind) ([]domain.Entity, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(entitySelect, table) + ` ORDER BY v.name, e.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Entity
	for rows.Next() {
		entity, err := scanEntity(rows, kind)
		if err != nil {
			return nil, err
		}
		result = append(result, *entity)
	}
	return result, rows.Err()
}

func (r *entityRepository) GetByID(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(entitySelect, table) + ` WHERE e.id=$1`

	entity, err := scanEntity(r.pool.QueryRow(ctx, query, id), kind)
	if err != nil {
		return nil, mapError(err)
	}
	return entity, nil
}

func (r *entityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	table, err := tableFor(entity.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
        INSERT INTO %s (vendor_id, name, end_of_life_announced_date, end_of_engineering_date, end_of_sale_date, end_of_life_date)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`, table)

	err = r.pool.QueryRow(ctx, query,
		entity.VendorID,
		entity.Name,
		entity.Lifecycle.EndOfLifeAnnounced,
		entity.Lifecycle.EndOfEngineering,
		entity.Lifecycle.EndOfSale,
		entity.Lifecycle.EndOfLife,
	).Scan(&entity.ID, &entity.CreatedAt, &entity.UpdatedAt)
	return mapError(err)
}

func (r *entityRepository) Update(ctx context.Context, entity *domain.Entity) error {
	table, err := tableFor(entity.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
        UPDATE %s SET vendor_id=$1, name=$2, end_of_life_announced_date=$3, end_of_engineering_date=$4,
            end_of_sale_date=$5, end_of_life_date=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`, table)

	err = r.pool.QueryRow(ctx, query,
		entity.VendorID,
		entity.Name,
		entity.Lifecycle.EndOfLifeAnnounced,
		entity.Lifecycle.EndOfEngineering,
		entity.Lifecycle.EndOfSale,
		entity.Lifecycle.EndOfLife,
		entity.ID,
	).Scan(&entity.UpdatedAt)
	return mapError(err)
}

func (r *entityRepository) Delete(ctx context.Context, kind domain.EntityKind, id int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, table), id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntity(row pgx.Row, kind domain.EntityKind) (*domain.Entity, error) {
	entity := domain.Entity{Kind: kind}
	if err := row.Scan(
		&entity.ID,
		&entity.VendorID,
		&entity.VendorName,
		&entity.Name,
		&entity.Lifecycle.EndOfLifeAnnounced,
		&entity.Lifecycle.EndOfEngineering,
		&entity.Lifecycle.EndOfSale,
		&entity.Lifecycle.EndOfLife,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &entity, nil
}
