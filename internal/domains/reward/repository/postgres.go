package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/reward/model"
	vouchermodel "restaurant-backend/internal/domains/voucher/model"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) RewardRepository {
	return &PostgresRepository{db: db}
}

// Template columns nằm phẳng trên bảng rewards (tpl_ prefix),
// NULL toàn bộ khi reward không phải loại voucher.
const rewardColumns = `
	id, name, description, type, point_cost,
	quantity, redeemed, is_quantity_unlimited,
	minimum_rank,
	validity_value, validity_unit, is_validity_unlimited,
	tpl_product_scope, tpl_combo_scope,
	tpl_discount_type, tpl_discount, tpl_unlimited_percentage_discount, tpl_maximum_percentage_reduction,
	tpl_minimum_requirements, tpl_is_for_new_users_only,
	tpl_has_combined_usage_limit, tpl_max_combined_usage_count, tpl_voucher_quantity,
	is_publish, created_by, version, created_at, updated_at, deleted_at`

func scanReward(row pgx.Row) (*model.Reward, error) {
	var r model.Reward
	var tpl model.VoucherTemplate
	var tplProductScope, tplComboScope, tplDiscountType *string
	var tplDiscount, tplMinReq *decimal.Decimal
	var tplUnlimitedPct, tplNewUsersOnly, tplHasCombinedLimit *bool
	var tplVoucherQty *int

	err := row.Scan(
		&r.ID, &r.Name, &r.Description, &r.Type, &r.PointCost,
		&r.Quantity, &r.Redeemed, &r.IsQuantityUnlimited,
		&r.MinimumRank,
		&r.ValidityValue, &r.ValidityUnit, &r.IsValidityUnlimited,
		&tplProductScope, &tplComboScope,
		&tplDiscountType, &tplDiscount, &tplUnlimitedPct, &tpl.MaximumPercentageReduction,
		&tplMinReq, &tplNewUsersOnly,
		&tplHasCombinedLimit, &tpl.MaxCombinedUsageCount, &tplVoucherQty,
		&r.IsPublish, &r.CreatedBy, &r.Version, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if r.Type == model.RewardTypeVoucher && tplDiscountType != nil {
		tpl.ProductScope = scopeOrAll(tplProductScope)
		tpl.ComboScope = scopeOrAll(tplComboScope)
		tpl.DiscountType = vouchermodel.DiscountType(*tplDiscountType)
		if tplDiscount != nil {
			tpl.Discount = *tplDiscount
		}
		if tplMinReq != nil {
			tpl.MinimumRequirements = *tplMinReq
		}
		tpl.UnlimitedPercentageDiscount = boolOr(tplUnlimitedPct, false)
		tpl.IsForNewUsersOnly = boolOr(tplNewUsersOnly, false)
		tpl.HasCombinedUsageLimit = boolOr(tplHasCombinedLimit, true)
		tpl.VoucherQuantity = intOr(tplVoucherQty, 1)
		r.Template = &tpl
	}

	return &r, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1 AND deleted_at IS NULL`

	reward, err := scanReward(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRewardNotFound
		}
		return nil, fmt.Errorf("find reward: %w", err)
	}
	return reward, nil
}

func (r *PostgresRepository) ListPublished(ctx context.Context) ([]*model.Reward, error) {
	query := `SELECT ` + rewardColumns + `
		FROM rewards
		WHERE is_publish = true AND deleted_at IS NULL
		ORDER BY point_cost`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var result []*model.Reward
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		result = append(result, reward)
	}
	return result, rows.Err()
}

const redemptionColumns = `
	id, reward_id, user_id, code, point_cost,
	valid_from, valid_to, is_used, used_at, voucher_id, created_at`

func scanRedemption(row pgx.Row) (*model.RewardRedemption, error) {
	var rd model.RewardRedemption
	err := row.Scan(
		&rd.ID, &rd.RewardID, &rd.UserID, &rd.Code, &rd.PointCost,
		&rd.ValidFrom, &rd.ValidTo, &rd.IsUsed, &rd.UsedAt, &rd.VoucherID, &rd.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

func (r *PostgresRepository) ListRedemptionsByUser(ctx context.Context, userID uuid.UUID) ([]*model.RewardRedemption, error) {
	query := `SELECT ` + redemptionColumns + `
		FROM reward_redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var result []*model.RewardRedemption
	for rows.Next() {
		rd, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		result = append(result, rd)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reward_redemptions WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code exists: %w", err)
	}
	return exists, nil
}

// -------------------------------------------------------------------
// ADMIN WRITES
// -------------------------------------------------------------------

func (r *PostgresRepository) Create(ctx context.Context, reward *model.Reward, productIDs, comboIDs []uuid.UUID) error {
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO rewards (
			id, name, description, type, point_cost,
			quantity, redeemed, is_quantity_unlimited,
			minimum_rank,
			validity_value, validity_unit, is_validity_unlimited,
			tpl_product_scope, tpl_combo_scope,
			tpl_discount_type, tpl_discount, tpl_unlimited_percentage_discount, tpl_maximum_percentage_reduction,
			tpl_minimum_requirements, tpl_is_for_new_users_only,
			tpl_has_combined_usage_limit, tpl_max_combined_usage_count, tpl_voucher_quantity,
			is_publish, created_by, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, 1
		)
		RETURNING created_at, updated_at`

	var tplArgs [11]any
	if reward.Template != nil {
		t := reward.Template
		tplArgs = [11]any{
			t.ProductScope, t.ComboScope,
			t.DiscountType, t.Discount, t.UnlimitedPercentageDiscount, t.MaximumPercentageReduction,
			t.MinimumRequirements, t.IsForNewUsersOnly,
			t.HasCombinedUsageLimit, t.MaxCombinedUsageCount, t.VoucherQuantity,
		}
	}

	err = tx.QueryRow(ctx, query,
		reward.ID, reward.Name, reward.Description, reward.Type, reward.PointCost,
		reward.Quantity, reward.IsQuantityUnlimited,
		reward.MinimumRank,
		reward.ValidityValue, reward.ValidityUnit, reward.IsValidityUnlimited,
		tplArgs[0], tplArgs[1], tplArgs[2], tplArgs[3], tplArgs[4], tplArgs[5],
		tplArgs[6], tplArgs[7], tplArgs[8], tplArgs[9], tplArgs[10],
		reward.IsPublish, reward.CreatedBy,
	).Scan(&reward.CreatedAt, &reward.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert reward: %w", err)
	}

	for _, pid := range productIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO reward_products (reward_id, product_id) VALUES ($1, $2)`,
			reward.ID, pid); err != nil {
			return fmt.Errorf("insert reward product: %w", err)
		}
	}
	for _, cid := range comboIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO reward_combos (reward_id, combo_id) VALUES ($1, $2)`,
			reward.ID, cid); err != nil {
			return fmt.Errorf("insert reward combo: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	reward.Version = 1
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, reward *model.Reward) error {
	query := `
		UPDATE rewards SET
			name = $2, description = $3, point_cost = $4, quantity = $5, is_publish = $6,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $7 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		reward.ID, reward.Name, reward.Description, reward.PointCost,
		reward.Quantity, reward.IsPublish, reward.Version,
	)
	if err != nil {
		return fmt.Errorf("update reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrVersionConflict
	}

	reward.Version++
	return nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE rewards SET deleted_at = NOW(), is_publish = false
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRewardNotFound
	}
	return nil
}

// -------------------------------------------------------------------
// TRANSACTIONAL (redemption engine)
// -------------------------------------------------------------------

func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Reward, error) {
	query := `SELECT ` + rewardColumns + `
		FROM rewards WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`

	reward, err := scanReward(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRewardNotFound
		}
		return nil, fmt.Errorf("find reward for update: %w", err)
	}
	return reward, nil
}

// IncrementRedeemedTx tăng redeemed với guard: không vượt quantity
// trừ khi unlimited. 0 row affected = hết lượt dưới lock khác.
func (r *PostgresRepository) IncrementRedeemedTx(ctx context.Context, tx pgx.Tx, rewardID uuid.UUID) error {
	query := `
		UPDATE rewards
		SET redeemed = redeemed + 1, updated_at = NOW()
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND (is_quantity_unlimited = true OR redeemed < quantity)`

	tag, err := tx.Exec(ctx, query, rewardID)
	if err != nil {
		return fmt.Errorf("increment redeemed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRewardNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateRedemptionTx(ctx context.Context, tx pgx.Tx, rd *model.RewardRedemption) error {
	if rd.ID == uuid.Nil {
		rd.ID = uuid.New()
	}

	query := `
		INSERT INTO reward_redemptions (id, reward_id, user_id, code, point_cost,
			valid_from, valid_to, is_used, voucher_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
		RETURNING created_at`

	err := tx.QueryRow(ctx, query,
		rd.ID, rd.RewardID, rd.UserID, rd.Code, rd.PointCost,
		rd.ValidFrom, rd.ValidTo, rd.VoucherID,
	).Scan(&rd.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindRedemptionByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.RewardRedemption, error) {
	query := `SELECT ` + redemptionColumns + `
		FROM reward_redemptions WHERE code = $1
		FOR UPDATE`

	rd, err := scanRedemption(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRedemptionNotFound
		}
		return nil, fmt.Errorf("find redemption for update: %w", err)
	}
	return rd, nil
}

// MarkUsedTx đánh dấu đã dùng. Guard is_used = false là idempotence check:
// 0 row affected nghĩa là code đã bị tiêu giữa lúc đọc và lúc ghi.
func (r *PostgresRepository) MarkUsedTx(ctx context.Context, tx pgx.Tx, redemptionID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE reward_redemptions SET is_used = true, used_at = NOW()
		 WHERE id = $1 AND is_used = false`, redemptionID)
	if err != nil {
		return fmt.Errorf("mark redemption used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRedemptionNotFound
	}
	return nil
}

// -------------------------------------------------------------------
// SCAN HELPERS
// -------------------------------------------------------------------

func scopeOrAll(s *string) vouchermodel.ScopeKind {
	if s == nil {
		return vouchermodel.ScopeAll
	}
	return vouchermodel.ScopeKind(*s)
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func intOr(n *int, def int) int {
	if n == nil {
		return def
	}
	return *n
}
