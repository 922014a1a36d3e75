package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/inventory/model"
)

// InventoryRepository định nghĩa data access cho kho nguyên liệu
type InventoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Material, error)
	List(ctx context.Context) ([]*model.Material, error)
	ListLowStock(ctx context.Context) ([]*model.Material, error)

	Create(ctx context.Context, m *model.Material) error
	Update(ctx context.Context, m *model.Material) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// AdjustStock cộng delta vào stock với guard stock + delta >= 0.
	// 0 row affected khi guard fail, trả ErrInsufficientStock.
	AdjustStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (*model.Material, error)
}
