package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-backend/internal/domains/voucher/model"
)

// PostgresRepository triển khai VoucherRepository với PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository tạo instance mới
func NewPostgresRepository(db *pgxpool.Pool) VoucherRepository {
	return &PostgresRepository{db: db}
}

const voucherColumns = `
	id, code, name, description, type,
	product_scope, combo_scope, user_id,
	discount_type, discount, unlimited_percentage_discount, maximum_percentage_reduction,
	used, quantity,
	start_time, end_time, is_life_time,
	minimum_requirements, is_for_new_users_only, minimum_rank,
	has_combined_usage_limit, max_combined_usage_count,
	is_publish, is_show,
	created_by, version, created_at, updated_at, deleted_at`

// rowScanner là subset chung của pgx.Row / pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoucher(row rowScanner) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(
		&v.ID,
		&v.Code,
		&v.Name,
		&v.Description,
		&v.Type,
		&v.ProductScope,
		&v.ComboScope,
		&v.UserID,
		&v.DiscountType,
		&v.Discount,
		&v.UnlimitedPercentageDiscount,
		&v.MaximumPercentageReduction,
		&v.Used,
		&v.Quantity,
		&v.StartTime,
		&v.EndTime,
		&v.IsLifeTime,
		&v.MinimumRequirements,
		&v.IsForNewUsersOnly,
		&v.MinimumRank,
		&v.HasCombinedUsageLimit,
		&v.MaxCombinedUsageCount,
		&v.IsPublish,
		&v.IsShow,
		&v.CreatedBy,
		&v.Version,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

// FindByID tìm voucher theo ID (loại trừ soft-deleted)
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE id = $1 AND deleted_at IS NULL`

	v, err := scanVoucher(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("find voucher by id: %w", err)
	}

	return v, nil
}

// FindByCode tìm voucher theo code (case-insensitive)
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE LOWER(code) = LOWER($1) AND deleted_at IS NULL`

	v, err := scanVoucher(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("find voucher by code: %w", err)
	}

	return v, nil
}

// ListPublished lấy voucher công khai cho storefront (is_publish + is_show)
func (r *PostgresRepository) ListPublished(ctx context.Context) ([]*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE is_publish = true
		  AND is_show = true
		  AND type = 'general'
		  AND deleted_at IS NULL
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list published vouchers: %w", err)
	}
	defer rows.Close()

	return collectVouchers(rows)
}

// ListCandidatesForUser lấy mọi voucher có thể áp dụng cho user tại checkout:
// voucher general đã publish + voucher user-targeted thuộc về user
// (sở hữu trực tiếp hoặc qua grant chưa dùng).
func (r *PostgresRepository) ListCandidatesForUser(ctx context.Context, userID uuid.UUID) ([]*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + `
		FROM vouchers v
		WHERE v.deleted_at IS NULL
		  AND v.is_publish = true
		  AND (
		    v.type = 'general'
		    OR v.user_id = $1
		    OR EXISTS (
		      SELECT 1 FROM voucher_users vu
		      WHERE vu.voucher_id = v.id
		        AND vu.user_id = $1
		        AND vu.is_consumed = false
		    )
		  )
		ORDER BY v.id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list candidate vouchers: %w", err)
	}
	defer rows.Close()

	return collectVouchers(rows)
}

// ListAdmin lấy danh sách voucher cho admin với filter + pagination
func (r *PostgresRepository) ListAdmin(ctx context.Context, filter *model.ListVouchersFilter) ([]*model.Voucher, int, error) {
	where := "WHERE deleted_at IS NULL"
	args := []any{}
	argn := 1

	if filter.IsPublish != nil {
		where += fmt.Sprintf(" AND is_publish = $%d", argn)
		args = append(args, *filter.IsPublish)
		argn++
	}
	if filter.Type != nil {
		where += fmt.Sprintf(" AND type = $%d", argn)
		args = append(args, *filter.Type)
		argn++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM vouchers " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vouchers: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := `SELECT ` + voucherColumns + ` FROM vouchers ` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argn, argn+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	vouchers, err := collectVouchers(rows)
	if err != nil {
		return nil, 0, err
	}

	return vouchers, total, nil
}

// GetScopeMembership load membership sets cho specific scopes.
// Voucher scope "all" không cần membership nhưng query vẫn an toàn (set rỗng).
func (r *PostgresRepository) GetScopeMembership(ctx context.Context, voucherID uuid.UUID) (model.ScopeMembership, error) {
	var productIDs, comboIDs []uuid.UUID

	rows, err := r.db.Query(ctx,
		`SELECT product_id FROM voucher_products WHERE voucher_id = $1`, voucherID)
	if err != nil {
		return model.ScopeMembership{}, fmt.Errorf("get voucher products: %w", err)
	}
	productIDs, err = collectIDs(rows)
	if err != nil {
		return model.ScopeMembership{}, err
	}

	rows, err = r.db.Query(ctx,
		`SELECT combo_id FROM voucher_combos WHERE voucher_id = $1`, voucherID)
	if err != nil {
		return model.ScopeMembership{}, fmt.Errorf("get voucher combos: %w", err)
	}
	comboIDs, err = collectIDs(rows)
	if err != nil {
		return model.ScopeMembership{}, err
	}

	return model.NewScopeMembership(productIDs, comboIDs), nil
}

// HasUnconsumedGrant kiểm tra user còn grant chưa dùng với voucher không
func (r *PostgresRepository) HasUnconsumedGrant(ctx context.Context, voucherID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM voucher_users
			WHERE voucher_id = $1 AND user_id = $2 AND is_consumed = false
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, voucherID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check voucher grant: %w", err)
	}
	return exists, nil
}

// CheckCodeExists kiểm tra code đã tồn tại chưa (case-insensitive)
func (r *PostgresRepository) CheckCodeExists(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM vouchers
			WHERE LOWER(code) = LOWER($1)
			  AND deleted_at IS NULL
			  AND ($2::uuid IS NULL OR id != $2)
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, code, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check voucher code exists: %w", err)
	}
	return exists, nil
}

// -------------------------------------------------------------------
// WRITE OPERATIONS
// -------------------------------------------------------------------

// Create insert voucher mới cùng scope membership trong một transaction
func (r *PostgresRepository) Create(ctx context.Context, v *model.Voucher, productIDs, comboIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.CreateTx(ctx, tx, v); err != nil {
		return err
	}

	for _, pid := range productIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO voucher_products (voucher_id, product_id) VALUES ($1, $2)`,
			v.ID, pid); err != nil {
			return fmt.Errorf("insert voucher product: %w", err)
		}
	}
	for _, cid := range comboIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO voucher_combos (voucher_id, combo_id) VALUES ($1, $2)`,
			v.ID, cid); err != nil {
			return fmt.Errorf("insert voucher combo: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateTx insert voucher row, dùng cả khi mint voucher từ reward
func (r *PostgresRepository) CreateTx(ctx context.Context, tx pgx.Tx, v *model.Voucher) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	query := `
		INSERT INTO vouchers (
			id, code, name, description, type,
			product_scope, combo_scope, user_id,
			discount_type, discount, unlimited_percentage_discount, maximum_percentage_reduction,
			used, quantity,
			start_time, end_time, is_life_time,
			minimum_requirements, is_for_new_users_only, minimum_rank,
			has_combined_usage_limit, max_combined_usage_count,
			is_publish, is_show, created_by, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, 1
		)
		RETURNING created_at, updated_at`

	err := tx.QueryRow(ctx, query,
		v.ID, v.Code, v.Name, v.Description, v.Type,
		v.ProductScope, v.ComboScope, v.UserID,
		v.DiscountType, v.Discount, v.UnlimitedPercentageDiscount, v.MaximumPercentageReduction,
		v.Used, v.Quantity,
		v.StartTime, v.EndTime, v.IsLifeTime,
		v.MinimumRequirements, v.IsForNewUsersOnly, v.MinimumRank,
		v.HasCombinedUsageLimit, v.MaxCombinedUsageCount,
		v.IsPublish, v.IsShow, v.CreatedBy,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert voucher: %w", err)
	}

	v.Version = 1
	return nil
}

// Update cập nhật voucher với optimistic locking (version field)
func (r *PostgresRepository) Update(ctx context.Context, v *model.Voucher) error {
	query := `
		UPDATE vouchers SET
			name = $2, description = $3, quantity = $4,
			end_time = $5, is_life_time = $6,
			minimum_requirements = $7, maximum_percentage_reduction = $8,
			is_publish = $9, is_show = $10,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $11 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		v.ID, v.Name, v.Description, v.Quantity,
		v.EndTime, v.IsLifeTime,
		v.MinimumRequirements, v.MaximumPercentageReduction,
		v.IsPublish, v.IsShow, v.Version,
	)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	v.Version++
	return nil
}

// SoftDelete đánh dấu xóa, voucher vẫn còn cho các order đã tham chiếu
func (r *PostgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE vouchers SET deleted_at = NOW(), is_publish = false
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVoucherNotFound
	}
	return nil
}

// SaveForUser bookmark voucher cho user (upsert, giữ nguyên is_consumed)
func (r *PostgresRepository) SaveForUser(ctx context.Context, voucherID, userID uuid.UUID) error {
	query := `
		INSERT INTO voucher_users (voucher_id, user_id, is_saved, is_consumed)
		VALUES ($1, $2, true, false)
		ON CONFLICT (voucher_id, user_id) DO UPDATE SET is_saved = true`

	if _, err := r.db.Exec(ctx, query, voucherID, userID); err != nil {
		return fmt.Errorf("save voucher for user: %w", err)
	}
	return nil
}

// ListSavedForUser lấy voucher user đã bookmark và chưa dùng
func (r *PostgresRepository) ListSavedForUser(ctx context.Context, userID uuid.UUID) ([]*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + `
		FROM vouchers v
		JOIN voucher_users vu ON vu.voucher_id = v.id
		WHERE vu.user_id = $1
		  AND vu.is_saved = true
		  AND vu.is_consumed = false
		  AND v.deleted_at IS NULL
		ORDER BY vu.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved vouchers: %w", err)
	}
	defer rows.Close()

	return collectVouchers(rows)
}

// -------------------------------------------------------------------
// TRANSACTIONAL OPERATIONS (checkout / minting)
// -------------------------------------------------------------------

// FindByIDForUpdate đọc voucher với row lock (FOR UPDATE) trong transaction.
// Lock giữ đến khi commit: hai checkout cùng voucher sẽ serialize ở đây.
// Filter is_publish khớp với ListCandidatesForUser — voucher bị admin
// unpublish giữa preview và checkout không apply được nữa.
func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Voucher, error) {
	query := `SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE id = $1 AND deleted_at IS NULL AND is_publish = true
		FOR UPDATE`

	v, err := scanVoucher(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("find voucher for update: %w", err)
	}

	return v, nil
}

// IncrementUsedTx tăng used với guard atomic: không bao giờ vượt quantity.
// WHERE clause chính là invariant — nếu 0 row affected thì voucher đã hết
// lượt giữa lúc validate và lúc commit.
func (r *PostgresRepository) IncrementUsedTx(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) error {
	query := `
		UPDATE vouchers
		SET used = used + 1, updated_at = NOW()
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND (quantity = 0 OR used < quantity)`

	tag, err := tx.Exec(ctx, query, voucherID)
	if err != nil {
		return fmt.Errorf("increment voucher used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVoucherNotFound
	}
	return nil
}

// ConsumeGrantTx đánh dấu grant của user đã dùng (idempotent guard qua WHERE)
func (r *PostgresRepository) ConsumeGrantTx(ctx context.Context, tx pgx.Tx, voucherID, userID uuid.UUID) error {
	query := `
		UPDATE voucher_users
		SET is_consumed = true, consumed_at = NOW()
		WHERE voucher_id = $1 AND user_id = $2 AND is_consumed = false`

	if _, err := tx.Exec(ctx, query, voucherID, userID); err != nil {
		return fmt.Errorf("consume voucher grant: %w", err)
	}
	return nil
}

// CreateOrderVoucherTx ghi snapshot discount của voucher trên đơn
func (r *PostgresRepository) CreateOrderVoucherTx(ctx context.Context, tx pgx.Tx, ov *model.OrderVoucher) error {
	if ov.ID == uuid.Nil {
		ov.ID = uuid.New()
	}

	query := `
		INSERT INTO order_vouchers (id, order_id, voucher_id, discount_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := tx.QueryRow(ctx, query, ov.ID, ov.OrderID, ov.VoucherID, ov.DiscountAmount).
		Scan(&ov.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order voucher: %w", err)
	}
	return nil
}

// ListOrderVouchers lấy các discount đã chốt của một đơn
func (r *PostgresRepository) ListOrderVouchers(ctx context.Context, orderID uuid.UUID) ([]*model.OrderVoucher, error) {
	query := `
		SELECT id, order_id, voucher_id, discount_amount, created_at
		FROM order_vouchers
		WHERE order_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order vouchers: %w", err)
	}
	defer rows.Close()

	var result []*model.OrderVoucher
	for rows.Next() {
		var ov model.OrderVoucher
		if err := rows.Scan(&ov.ID, &ov.OrderID, &ov.VoucherID, &ov.DiscountAmount, &ov.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order voucher: %w", err)
		}
		result = append(result, &ov)
	}
	return result, rows.Err()
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func collectVouchers(rows pgx.Rows) ([]*model.Voucher, error) {
	var result []*model.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func collectIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
