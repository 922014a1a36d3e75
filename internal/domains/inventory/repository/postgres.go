package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/inventory/model"
)

const materialColumns = `
	id, name, unit, stock, low_stock_threshold,
	version, created_at, updated_at, deleted_at`

// PostgresRepository là implementation PostgreSQL của InventoryRepository
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (*model.Material, error) {
	var m model.Material
	err := row.Scan(
		&m.ID, &m.Name, &m.Unit, &m.Stock, &m.LowStockThreshold,
		&m.Version, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	query := `SELECT ` + materialColumns + `
		FROM materials
		WHERE id = $1 AND deleted_at IS NULL`

	m, err := scanMaterial(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMaterialNotFound
		}
		return nil, fmt.Errorf("find material: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*model.Material, error) {
	query := `SELECT ` + materialColumns + `
		FROM materials
		WHERE deleted_at IS NULL
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	return collectMaterials(rows)
}

func (r *PostgresRepository) ListLowStock(ctx context.Context) ([]*model.Material, error) {
	query := `SELECT ` + materialColumns + `
		FROM materials
		WHERE deleted_at IS NULL AND stock <= low_stock_threshold
		ORDER BY stock`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list low stock materials: %w", err)
	}
	defer rows.Close()

	return collectMaterials(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, m *model.Material) error {
	query := `
		INSERT INTO materials (id, name, unit, stock, low_stock_threshold, version)
		VALUES ($1, $2, $3, $4, $5, 1)
		RETURNING version, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		m.ID, m.Name, m.Unit, m.Stock, m.LowStockThreshold,
	).Scan(&m.Version, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, m *model.Material) error {
	query := `
		UPDATE materials
		SET name = $2, unit = $3, low_stock_threshold = $4,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND version = $5`

	tag, err := r.db.Exec(ctx, query,
		m.ID, m.Name, m.Unit, m.LowStockThreshold, m.Version,
	)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	m.Version++
	return nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE materials
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMaterialNotFound
	}
	return nil
}

// AdjustStock cộng delta trong một statement với guard non-negative.
// Guard nằm trong WHERE nên stock không bao giờ âm kể cả dưới concurrent
// adjustment.
func (r *PostgresRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*model.Material, error) {
	query := `
		UPDATE materials
		SET stock = stock + $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND stock + $2 >= 0
		RETURNING ` + materialColumns

	m, err := scanMaterial(r.db.QueryRow(ctx, query, id, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Phân biệt not-found với guard fail
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, model.ErrInsufficientStock
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return m, nil
}

func collectMaterials(rows pgx.Rows) ([]*model.Material, error) {
	var materials []*model.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}
