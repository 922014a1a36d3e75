package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
)

// VoucherType phân biệt voucher chung và voucher gắn với một user
type VoucherType string

const (
	VoucherTypeGeneral      VoucherType = "general"
	VoucherTypeUserTargeted VoucherType = "user_targeted"
)

// DiscountType của voucher: giảm số tiền cố định hoặc theo phần trăm
type DiscountType string

const (
	DiscountTypeMoney      DiscountType = "money"
	DiscountTypePercentage DiscountType = "percentage"
)

func (dt DiscountType) IsValid() bool {
	switch dt {
	case DiscountTypeMoney, DiscountTypePercentage:
		return true
	}
	return false
}

// ScopeKind giới hạn voucher áp dụng cho tất cả hay một danh sách cụ thể.
// Product scope và combo scope độc lập với nhau.
type ScopeKind string

const (
	ScopeAll      ScopeKind = "all"
	ScopeSpecific ScopeKind = "specific"
)

// Voucher là một mã giảm giá với eligibility rules, usage caps và validity window
type Voucher struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Code        string      `json:"code" db:"code"`
	Name        string      `json:"name" db:"name"`
	Description *string     `json:"description,omitempty" db:"description"`
	Type        VoucherType `json:"type" db:"type"`

	// Scope: sản phẩm và combo có scope riêng
	ProductScope ScopeKind `json:"product_scope" db:"product_scope"`
	ComboScope   ScopeKind `json:"combo_scope" db:"combo_scope"`

	// Owner khi Type = user_targeted (voucher mint từ reward)
	UserID *uuid.UUID `json:"user_id,omitempty" db:"user_id"`

	// Discount
	DiscountType                DiscountType     `json:"discount_type" db:"discount_type"`
	Discount                    decimal.Decimal  `json:"discount" db:"discount"`
	UnlimitedPercentageDiscount bool             `json:"unlimited_percentage_discount" db:"unlimited_percentage_discount"`
	MaximumPercentageReduction  *decimal.Decimal `json:"maximum_percentage_reduction,omitempty" db:"maximum_percentage_reduction"`

	// Usage: Quantity = 0 nghĩa là không giới hạn
	Used     int `json:"used" db:"used"`
	Quantity int `json:"quantity" db:"quantity"`

	// Validity window
	StartTime  time.Time  `json:"start_time" db:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty" db:"end_time"`
	IsLifeTime bool       `json:"is_life_time" db:"is_life_time"`

	// Eligibility
	MinimumRequirements decimal.Decimal `json:"minimum_requirements" db:"minimum_requirements"`
	IsForNewUsersOnly   bool            `json:"is_for_new_users_only" db:"is_for_new_users_only"`
	MinimumRank         *loyalty.Rank   `json:"minimum_rank,omitempty" db:"minimum_rank"`

	// Combined usage: cap tổng số voucher stack cùng đơn (tính cả chính nó)
	HasCombinedUsageLimit bool `json:"has_combined_usage_limit" db:"has_combined_usage_limit"`
	MaxCombinedUsageCount *int `json:"max_combined_usage_count,omitempty" db:"max_combined_usage_count"`

	// Visibility
	IsPublish bool `json:"is_publish" db:"is_publish"`
	IsShow    bool `json:"is_show" db:"is_show"`

	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsActiveAt kiểm tra temporal validity:
// StartTime <= now và (IsLifeTime hoặc EndTime null hoặc EndTime >= now)
func (v *Voucher) IsActiveAt(now time.Time) bool {
	if now.Before(v.StartTime) {
		return false
	}
	if v.IsLifeTime || v.EndTime == nil {
		return true
	}
	return !v.EndTime.Before(now)
}

// IsExhausted: hết lượt khi Quantity != 0 và Used >= Quantity
func (v *Voucher) IsExhausted() bool {
	return v.Quantity != 0 && v.Used >= v.Quantity
}

// IsUnlimited: Quantity = 0 nghĩa là không giới hạn số lượt
func (v *Voucher) IsUnlimited() bool {
	return v.Quantity == 0
}

// VoucherProduct là membership của product scope (specific)
type VoucherProduct struct {
	VoucherID uuid.UUID `json:"voucher_id" db:"voucher_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
}

// VoucherCombo là membership của combo scope (specific)
type VoucherCombo struct {
	VoucherID uuid.UUID `json:"voucher_id" db:"voucher_id"`
	ComboID   uuid.UUID `json:"combo_id" db:"combo_id"`
}

// VoucherUser là grant/bookmark của user với voucher.
// IsConsumed = true sau khi user dùng grant này trong một đơn.
type VoucherUser struct {
	VoucherID  uuid.UUID  `json:"voucher_id" db:"voucher_id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	IsSaved    bool       `json:"is_saved" db:"is_saved"`
	IsConsumed bool       `json:"is_consumed" db:"is_consumed"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty" db:"consumed_at"`
}

// OrderVoucher ghi lại discount thực tế của một voucher trên một đơn.
// Snapshot này immutable sau khi đặt đơn: re-evaluate sau đó không được
// thay đổi historical totals.
type OrderVoucher struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	OrderID        uuid.UUID       `json:"order_id" db:"order_id"`
	VoucherID      uuid.UUID       `json:"voucher_id" db:"voucher_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// ScopeMembership là pre-built set cho O(1) membership test
type ScopeMembership struct {
	Products map[uuid.UUID]struct{}
	Combos   map[uuid.UUID]struct{}
}

func NewScopeMembership(productIDs, comboIDs []uuid.UUID) ScopeMembership {
	m := ScopeMembership{
		Products: make(map[uuid.UUID]struct{}, len(productIDs)),
		Combos:   make(map[uuid.UUID]struct{}, len(comboIDs)),
	}
	for _, id := range productIDs {
		m.Products[id] = struct{}{}
	}
	for _, id := range comboIDs {
		m.Combos[id] = struct{}{}
	}
	return m
}
