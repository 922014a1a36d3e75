package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/order/model"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) OrderRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `
	id, user_id, status, subtotal, discount_total, total,
	loyalty_rewards_applied, version, created_at, updated_at, paid_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.DiscountTotal, &o.Total,
		&o.LoyaltyRewardsApplied, &o.Version, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create insert order cùng toàn bộ lines trong một transaction
func (r *PostgresRepository) Create(ctx context.Context, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (id, user_id, status, subtotal, discount_total, total,
			loyalty_rewards_applied, version)
		VALUES ($1, $2, $3, $4, $5, $6, false, 1)
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		o.ID, o.UserID, o.Status, o.Subtotal, o.DiscountTotal, o.Total,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Lines {
		line := &o.Lines[i]
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.OrderID = o.ID

		_, err := tx.Exec(ctx,
			`INSERT INTO order_lines (id, order_id, kind, item_id, name, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID, line.OrderID, line.Kind, line.ItemID, line.Name, line.UnitPrice, line.Quantity)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	o.Version = 1
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	lines, err := r.loadLines(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines

	return o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*model.Order, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	query := `SELECT ` + orderColumns + `
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var result []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		result = append(result, o)
	}
	return result, total, rows.Err()
}

// CountCompletedByUser dùng cho new-user check của voucher engine
func (r *PostgresRepository) CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status = $2`,
		userID, model.StatusCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed orders: %w", err)
	}
	return count, nil
}

// -------------------------------------------------------------------
// TRANSACTIONAL
// -------------------------------------------------------------------

func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	o, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order for update: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = NOW(), version = version + 1`
	if status == model.StatusPaid {
		query += `, paid_at = NOW()`
	}
	query += ` WHERE id = $1`

	tag, err := tx.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

func (r *PostgresRepository) ApplyDiscountTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, discountTotal, newTotal decimal.Decimal) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET discount_total = $2, total = $3, updated_at = NOW(), version = version + 1
		 WHERE id = $1`,
		id, discountTotal, newTotal)
	if err != nil {
		return fmt.Errorf("apply order discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// SetLoyaltyAppliedTx đánh dấu đơn đã cộng điểm. WHERE guard đảm bảo
// idempotence: 0 row affected nghĩa là đã cộng trước đó.
func (r *PostgresRepository) SetLoyaltyAppliedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET loyalty_rewards_applied = true, updated_at = NOW()
		 WHERE id = $1 AND loyalty_rewards_applied = false`, id)
	if err != nil {
		return fmt.Errorf("set loyalty applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

func (r *PostgresRepository) LoadLinesTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderLine, error) {
	return r.loadLines(ctx, tx, orderID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PostgresRepository) loadLines(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderLine, error) {
	rows, err := q.Query(ctx,
		`SELECT id, order_id, kind, item_id, name, unit_price, quantity
		 FROM order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.OrderLine
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.Kind, &l.ItemID, &l.Name, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
