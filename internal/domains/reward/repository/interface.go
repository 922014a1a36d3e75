package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"restaurant-backend/internal/domains/reward/model"
)

// RewardRepository định nghĩa data access cho reward domain.
// Redeemed counter và redemption state chỉ mutate qua các method *Tx.
type RewardRepository interface {
	// Read
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reward, error)
	ListPublished(ctx context.Context) ([]*model.Reward, error)
	ListRedemptionsByUser(ctx context.Context, userID uuid.UUID) ([]*model.RewardRedemption, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	// Admin writes
	Create(ctx context.Context, r *model.Reward, productIDs, comboIDs []uuid.UUID) error
	Update(ctx context.Context, r *model.Reward) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Transactional (redemption engine)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Reward, error)
	// IncrementRedeemedTx với guard quantity, 0 row affected = exhausted
	IncrementRedeemedTx(ctx context.Context, tx pgx.Tx, rewardID uuid.UUID) error
	CreateRedemptionTx(ctx context.Context, tx pgx.Tx, r *model.RewardRedemption) error
	FindRedemptionByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string) (*model.RewardRedemption, error)
	// MarkUsedTx với guard is_used = false, 0 row affected = đã dùng rồi
	MarkUsedTx(ctx context.Context, tx pgx.Tx, redemptionID uuid.UUID) error
}
