package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/user/model"
)

// UserRepository định nghĩa data access cho user domain.
// Loyalty counters chỉ mutate qua các method *Tx dưới row lock.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)

	// Transactional loyalty mutations
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error)
	// DebitPointsTx trừ điểm với guard point >= cost, trả ErrInsufficientPoints
	// nếu guard fail (0 row affected)
	DebitPointsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, cost int64) error
	// ApplyAccrualTx cộng point/exp và set rank mới dưới row lock đã giữ
	ApplyAccrualTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points, exp int64, rank loyalty.Rank) error
}
