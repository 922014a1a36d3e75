package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	vouchermodel "restaurant-backend/internal/domains/voucher/model"
)

// RewardType: reward đổi ra voucher, hoặc grant trực tiếp product/combo
type RewardType string

const (
	RewardTypeVoucher RewardType = "voucher"
	RewardTypeProduct RewardType = "product"
	RewardTypeCombo   RewardType = "combo"
)

// ValidityUnit của redemption code
type ValidityUnit string

const (
	ValidityDay   ValidityUnit = "day"
	ValidityWeek  ValidityUnit = "week"
	ValidityMonth ValidityUnit = "month"
)

// VoucherTemplate là bản mẫu nhúng trong reward voucher-granting.
// Mỗi lần redeem mint VoucherQuantity voucher user-targeted từ template này.
type VoucherTemplate struct {
	ProductScope vouchermodel.ScopeKind `json:"product_scope" db:"tpl_product_scope"`
	ComboScope   vouchermodel.ScopeKind `json:"combo_scope" db:"tpl_combo_scope"`

	DiscountType                vouchermodel.DiscountType `json:"discount_type" db:"tpl_discount_type"`
	Discount                    decimal.Decimal           `json:"discount" db:"tpl_discount"`
	UnlimitedPercentageDiscount bool                      `json:"unlimited_percentage_discount" db:"tpl_unlimited_percentage_discount"`
	MaximumPercentageReduction  *decimal.Decimal          `json:"maximum_percentage_reduction,omitempty" db:"tpl_maximum_percentage_reduction"`

	MinimumRequirements   decimal.Decimal `json:"minimum_requirements" db:"tpl_minimum_requirements"`
	IsForNewUsersOnly     bool            `json:"is_for_new_users_only" db:"tpl_is_for_new_users_only"`
	HasCombinedUsageLimit bool            `json:"has_combined_usage_limit" db:"tpl_has_combined_usage_limit"`
	MaxCombinedUsageCount *int            `json:"max_combined_usage_count,omitempty" db:"tpl_max_combined_usage_count"`

	VoucherQuantity int `json:"voucher_quantity" db:"tpl_voucher_quantity"`
}

// Reward là một mục trong catalog đổi điểm
type Reward struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`
	Type        RewardType `json:"type" db:"type"`

	PointCost int64 `json:"point_cost" db:"point_cost"`

	// Quantity/Redeemed counters; IsQuantityUnlimited bỏ qua cap
	Quantity            int  `json:"quantity" db:"quantity"`
	Redeemed            int  `json:"redeemed" db:"redeemed"`
	IsQuantityUnlimited bool `json:"is_quantity_unlimited" db:"is_quantity_unlimited"`

	MinimumRank *loyalty.Rank `json:"minimum_rank,omitempty" db:"minimum_rank"`

	// Validity window của redemption code sinh ra
	ValidityValue       int          `json:"validity_value" db:"validity_value"`
	ValidityUnit        ValidityUnit `json:"validity_unit" db:"validity_unit"`
	IsValidityUnlimited bool         `json:"is_validity_unlimited" db:"is_validity_unlimited"`

	// Template chỉ có nghĩa khi Type = voucher
	Template *VoucherTemplate `json:"template,omitempty" db:"-"`

	IsPublish bool       `json:"is_publish" db:"is_publish"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsExhausted: hết lượt đổi khi không unlimited và Redeemed >= Quantity
func (r *Reward) IsExhausted() bool {
	return !r.IsQuantityUnlimited && r.Redeemed >= r.Quantity
}

// RedemptionValidTo tính hạn của code mint tại thời điểm now;
// nil khi validity unlimited.
func (r *Reward) RedemptionValidTo(now time.Time) *time.Time {
	if r.IsValidityUnlimited {
		return nil
	}

	var t time.Time
	switch r.ValidityUnit {
	case ValidityWeek:
		t = now.AddDate(0, 0, 7*r.ValidityValue)
	case ValidityMonth:
		t = now.AddDate(0, r.ValidityValue, 0)
	default:
		t = now.AddDate(0, 0, r.ValidityValue)
	}
	return &t
}

// RewardProduct là grant scope membership (specific products)
type RewardProduct struct {
	RewardID  uuid.UUID `json:"reward_id" db:"reward_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
}

// RewardCombo là grant scope membership (specific combos)
type RewardCombo struct {
	RewardID uuid.UUID `json:"reward_id" db:"reward_id"`
	ComboID  uuid.UUID `json:"combo_id" db:"combo_id"`
}

// RewardRedemption là một lần đổi điểm: code single-use, time-bounded.
// States: minted -> used | expired.
type RewardRedemption struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RewardID  uuid.UUID `json:"reward_id" db:"reward_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Code      string    `json:"code" db:"code"`
	PointCost int64     `json:"point_cost" db:"point_cost"`

	ValidFrom time.Time  `json:"valid_from" db:"valid_from"`
	ValidTo   *time.Time `json:"valid_to,omitempty" db:"valid_to"`

	IsUsed bool       `json:"is_used" db:"is_used"`
	UsedAt *time.Time `json:"used_at,omitempty" db:"used_at"`

	// Voucher đầu tiên mint từ template (nếu reward voucher-granting)
	VoucherID *uuid.UUID `json:"voucher_id,omitempty" db:"voucher_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsConsumable: chưa dùng và chưa hết hạn
func (r *RewardRedemption) IsConsumable(now time.Time) bool {
	if r.IsUsed {
		return false
	}
	if r.ValidTo != nil && r.ValidTo.Before(now) {
		return false
	}
	return true
}
