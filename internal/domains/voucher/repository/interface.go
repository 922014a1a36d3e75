package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"restaurant-backend/internal/domains/voucher/model"
)

// VoucherRepository định nghĩa data access cho voucher domain.
// Các method *Tx chạy trên transaction do service quản lý — mọi mutation
// của counter (used) phải đi qua transaction với row lock.
type VoucherRepository interface {
	// Read operations
	FindByID(ctx context.Context, id uuid.UUID) (*model.Voucher, error)
	FindByCode(ctx context.Context, code string) (*model.Voucher, error)
	ListPublished(ctx context.Context) ([]*model.Voucher, error)
	ListCandidatesForUser(ctx context.Context, userID uuid.UUID) ([]*model.Voucher, error)
	ListAdmin(ctx context.Context, filter *model.ListVouchersFilter) ([]*model.Voucher, int, error)
	GetScopeMembership(ctx context.Context, voucherID uuid.UUID) (model.ScopeMembership, error)
	HasUnconsumedGrant(ctx context.Context, voucherID, userID uuid.UUID) (bool, error)
	CheckCodeExists(ctx context.Context, code string, excludeID *uuid.UUID) (bool, error)

	// Write operations
	Create(ctx context.Context, v *model.Voucher, productIDs, comboIDs []uuid.UUID) error
	Update(ctx context.Context, v *model.Voucher) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	SaveForUser(ctx context.Context, voucherID, userID uuid.UUID) error
	ListSavedForUser(ctx context.Context, userID uuid.UUID) ([]*model.Voucher, error)

	// Transactional operations (checkout / minting)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Voucher, error)
	IncrementUsedTx(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) error
	ConsumeGrantTx(ctx context.Context, tx pgx.Tx, voucherID, userID uuid.UUID) error
	CreateTx(ctx context.Context, tx pgx.Tx, v *model.Voucher) error
	CreateOrderVoucherTx(ctx context.Context, tx pgx.Tx, ov *model.OrderVoucher) error
	ListOrderVouchers(ctx context.Context, orderID uuid.UUID) ([]*model.OrderVoucher, error)
}
