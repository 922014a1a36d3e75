package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus là trạng thái đơn hàng.
// Luồng hợp lệ: Pending -> Paid -> Completed, hoặc Pending/Paid -> Cancelled.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// CanTransitionTo kiểm tra status machine
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusPaid || next == StatusCancelled
	case StatusPaid:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// LineKind phân biệt order line là product hay combo
type LineKind string

const (
	LineKindProduct LineKind = "product"
	LineKindCombo   LineKind = "combo"
)

// OrderLine là một dòng hàng với giá đã chốt tại thời điểm đặt.
// UnitPrice immutable sau khi tạo — thay đổi catalog sau đó không ảnh hưởng.
type OrderLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	Kind      LineKind        `json:"kind" db:"kind"`
	ItemID    uuid.UUID       `json:"item_id" db:"item_id"`
	Name      string          `json:"name" db:"name"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
}

func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order là một đơn hàng. Subtotal là tổng line trước giảm giá,
// DiscountTotal là tổng voucher đã apply, Total = Subtotal - DiscountTotal.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Status        OrderStatus     `json:"status" db:"status"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total" db:"discount_total"`
	Total         decimal.Decimal `json:"total" db:"total"`

	// Guard chống double-accrual điểm loyalty cho cùng một đơn
	LoyaltyRewardsApplied bool `json:"loyalty_rewards_applied" db:"loyalty_rewards_applied"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty" db:"paid_at"`

	Lines []OrderLine `json:"lines,omitempty" db:"-"`
}
