package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/order/model"
)

// OrderRepository định nghĩa data access cho order domain
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]*model.Order, int, error)
	CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// Transactional: status và totals chỉ đổi dưới row lock
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
	ApplyDiscountTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, discountTotal, newTotal decimal.Decimal) error
	SetLoyaltyAppliedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	LoadLinesTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]model.OrderLine, error)
}
