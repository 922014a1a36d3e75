package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/voucher/model"
)

// VoucherService định nghĩa business logic của voucher domain
type VoucherService interface {
	// Checkout flow
	GetApplicableVouchers(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.CheckoutVoucherOption, error)
	ApplyVouchersToOrder(ctx context.Context, userID uuid.UUID, req *model.ApplyVouchersRequest) (*model.ApplyVouchersResult, error)

	// Storefront
	ListPublished(ctx context.Context) ([]*model.Voucher, error)
	SaveVoucher(ctx context.Context, userID, voucherID uuid.UUID) error
	ListSavedVouchers(ctx context.Context, userID uuid.UUID) ([]*model.Voucher, error)

	// Admin
	CreateVoucher(ctx context.Context, createdBy uuid.UUID, req *model.CreateVoucherRequest) (*model.Voucher, error)
	UpdateVoucher(ctx context.Context, id uuid.UUID, req *model.UpdateVoucherRequest) (*model.Voucher, error)
	DeleteVoucher(ctx context.Context, id uuid.UUID) error
	GetVoucher(ctx context.Context, id uuid.UUID) (*model.Voucher, error)
	ListVouchers(ctx context.Context, filter *model.ListVouchersFilter) ([]*model.Voucher, int, error)
}

// CheckoutOrder là view tối thiểu của order mà voucher service cần khi apply.
// Snapshot và Total được đọc dưới row lock nên nhất quán trong transaction.
type CheckoutOrder struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Total  decimal.Decimal
	// DiscountTotal đã ghi trên đơn; dương nghĩa là đơn đã qua apply một lần
	DiscountTotal decimal.Decimal
	Snapshot      model.CartSnapshot
}

// OrderStore là dependency lên order domain, khai báo tại chỗ để tránh
// circular import giữa hai domain.
type OrderStore interface {
	// GetPendingForUpdate lock order row, trả error nếu order không tồn tại,
	// không thuộc về user, hoặc đã rời trạng thái pending.
	GetPendingForUpdate(ctx context.Context, tx pgx.Tx, orderID, userID uuid.UUID) (*CheckoutOrder, error)
	// ApplyDiscountTx ghi discount total và order total mới
	ApplyDiscountTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, discountTotal, newTotal decimal.Decimal) error
}

// UserStore là dependency lên user domain cho eligibility evaluation
type UserStore interface {
	GetShopper(ctx context.Context, userID uuid.UUID) (model.Shopper, error)
	// GetCartSnapshot build snapshot từ cart hiện tại của user (preview flow)
	GetCartSnapshot(ctx context.Context, userID uuid.UUID) (model.CartSnapshot, error)
}
