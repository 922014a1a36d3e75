package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-backend/internal/domains/catalog/model"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) CatalogRepository {
	return &PostgresRepository{db: db}
}

const productColumns = `
	id, name, description, product_type_id, price,
	discount_type, discount_value, is_publish,
	version, created_at, updated_at, deleted_at`

const comboColumns = `
	id, name, description, price,
	discount_type, discount_value, is_publish,
	version, created_at, updated_at, deleted_at`

// -------------------------------------------------------------------
// PRODUCTS
// -------------------------------------------------------------------

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.ProductTypeID, &p.Price,
		&p.DiscountType, &p.DiscountValue, &p.IsPublish,
		&p.Version, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

// FindProductsByIDs batch load cho pricing (tránh N+1 khi build cart)
func (r *PostgresRepository) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) AND deleted_at IS NULL`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find products by ids: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*model.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

func (r *PostgresRepository) ListPublishedProducts(ctx context.Context) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE is_publish = true AND deleted_at IS NULL
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var result []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO products (id, name, description, product_type_id, price,
			discount_type, discount_value, is_publish, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.ProductTypeID, p.Price,
		p.DiscountType, p.DiscountValue, p.IsPublish,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	p.Version = 1
	return nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products SET
			name = $2, description = $3, price = $4,
			discount_type = $5, discount_value = $6, is_publish = $7,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $8 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price,
		p.DiscountType, p.DiscountValue, p.IsPublish, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	p.Version++
	return nil
}

func (r *PostgresRepository) SoftDeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET deleted_at = NOW(), is_publish = false
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// -------------------------------------------------------------------
// COMBOS
// -------------------------------------------------------------------

func scanCombo(row pgx.Row) (*model.Combo, error) {
	var c model.Combo
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Price,
		&c.DiscountType, &c.DiscountValue, &c.IsPublish,
		&c.Version, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) FindComboByID(ctx context.Context, id uuid.UUID) (*model.Combo, error) {
	query := `SELECT ` + comboColumns + ` FROM combos WHERE id = $1 AND deleted_at IS NULL`

	c, err := scanCombo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrComboNotFound
		}
		return nil, fmt.Errorf("find combo: %w", err)
	}

	items, err := r.loadComboItems(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Items = items

	return c, nil
}

func (r *PostgresRepository) FindCombosByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Combo, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*model.Combo{}, nil
	}

	query := `SELECT ` + comboColumns + ` FROM combos WHERE id = ANY($1) AND deleted_at IS NULL`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find combos by ids: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]*model.Combo, len(ids))
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan combo: %w", err)
		}
		result[c.ID] = c
	}
	return result, rows.Err()
}

func (r *PostgresRepository) ListPublishedCombos(ctx context.Context) ([]*model.Combo, error) {
	query := `SELECT ` + comboColumns + `
		FROM combos
		WHERE is_publish = true AND deleted_at IS NULL
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list combos: %w", err)
	}
	defer rows.Close()

	var result []*model.Combo
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan combo: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) CreateCombo(ctx context.Context, c *model.Combo) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO combos (id, name, description, price,
			discount_type, discount_value, is_publish, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		c.ID, c.Name, c.Description, c.Price,
		c.DiscountType, c.DiscountValue, c.IsPublish,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert combo: %w", err)
	}

	for _, item := range c.Items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO combo_items (combo_id, product_id, quantity) VALUES ($1, $2, $3)`,
			c.ID, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("insert combo item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	c.Version = 1
	return nil
}

func (r *PostgresRepository) SoftDeleteCombo(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE combos SET deleted_at = NOW(), is_publish = false
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete combo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrComboNotFound
	}
	return nil
}

func (r *PostgresRepository) loadComboItems(ctx context.Context, comboID uuid.UUID) ([]model.ComboItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT combo_id, product_id, quantity FROM combo_items WHERE combo_id = $1`, comboID)
	if err != nil {
		return nil, fmt.Errorf("load combo items: %w", err)
	}
	defer rows.Close()

	var items []model.ComboItem
	for rows.Next() {
		var item model.ComboItem
		if err := rows.Scan(&item.ComboID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan combo item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// -------------------------------------------------------------------
// PRODUCT TYPES & EXTRAS
// -------------------------------------------------------------------

func (r *PostgresRepository) ListProductTypes(ctx context.Context) ([]*model.ProductType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, created_at, updated_at, deleted_at
		 FROM product_types WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list product types: %w", err)
	}
	defer rows.Close()

	var result []*model.ProductType
	for rows.Next() {
		var t model.ProductType
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan product type: %w", err)
		}
		result = append(result, &t)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) CreateProductType(ctx context.Context, t *model.ProductType) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO product_types (id, name) VALUES ($1, $2)
		 RETURNING created_at, updated_at`,
		t.ID, t.Name,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product type: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListPublishedExtras(ctx context.Context) ([]*model.Extra, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, price, is_publish, created_at, updated_at, deleted_at
		 FROM extras WHERE is_publish = true AND deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list extras: %w", err)
	}
	defer rows.Close()

	var result []*model.Extra
	for rows.Next() {
		var e model.Extra
		if err := rows.Scan(&e.ID, &e.Name, &e.Price, &e.IsPublish, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan extra: %w", err)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) CreateExtra(ctx context.Context, e *model.Extra) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO extras (id, name, price, is_publish) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		e.ID, e.Name, e.Price, e.IsPublish,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert extra: %w", err)
	}
	return nil
}
