package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// RedeemResult trả về sau khi đổi điểm thành công
type RedeemResult struct {
	RedemptionID   uuid.UUID  `json:"redemption_id"`
	Code           string     `json:"code"`
	PointCharged   int64      `json:"point_charged"`
	RemainingPoint int64      `json:"remaining_point"`
	VoucherID      *uuid.UUID `json:"voucher_id,omitempty"`
}

// ConsumeResult trả về khi tiêu một redemption code
type ConsumeResult struct {
	RedemptionID uuid.UUID  `json:"redemption_id"`
	RewardID     uuid.UUID  `json:"reward_id"`
	UserID       uuid.UUID  `json:"user_id"`
	VoucherID    *uuid.UUID `json:"voucher_id,omitempty"`
}

// ConsumeRequest - tiêu redemption code (staff scan tại quầy)
type ConsumeRequest struct {
	Code string `json:"code"`
}

func (r ConsumeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code,
			validation.Required.Error("Mã đổi thưởng không được để trống"),
			validation.Length(12, 12).Error("Mã đổi thưởng phải đúng 12 ký tự"),
		),
	)
}

// CreateRewardRequest - admin tạo reward mới
type CreateRewardRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Type        string  `json:"type"`
	PointCost   int64   `json:"point_cost"`

	Quantity            int  `json:"quantity"`
	IsQuantityUnlimited bool `json:"is_quantity_unlimited"`

	MinimumRank *string `json:"minimum_rank"`

	ValidityValue       int    `json:"validity_value"`
	ValidityUnit        string `json:"validity_unit"`
	IsValidityUnlimited bool   `json:"is_validity_unlimited"`

	// Grant scope khi Type = product/combo
	ProductIDs []uuid.UUID `json:"product_ids"`
	ComboIDs   []uuid.UUID `json:"combo_ids"`

	// Template khi Type = voucher
	Template *VoucherTemplateInput `json:"template"`

	IsPublish bool `json:"is_publish"`
}

// VoucherTemplateInput là template trong request (float cho JSON tiện dụng)
type VoucherTemplateInput struct {
	ProductScope                string   `json:"product_scope"`
	ComboScope                  string   `json:"combo_scope"`
	DiscountType                string   `json:"discount_type"`
	Discount                    float64  `json:"discount"`
	UnlimitedPercentageDiscount bool     `json:"unlimited_percentage_discount"`
	MaximumPercentageReduction  *float64 `json:"maximum_percentage_reduction"`
	MinimumRequirements         float64  `json:"minimum_requirements"`
	IsForNewUsersOnly           bool     `json:"is_for_new_users_only"`
	HasCombinedUsageLimit       bool     `json:"has_combined_usage_limit"`
	MaxCombinedUsageCount       *int     `json:"max_combined_usage_count"`
	VoucherQuantity             int      `json:"voucher_quantity"`
}

func (r CreateRewardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Tên phần thưởng không được để trống"),
			validation.Length(1, 200),
		),
		validation.Field(&r.Type,
			validation.Required,
			validation.In(
				string(RewardTypeVoucher),
				string(RewardTypeProduct),
				string(RewardTypeCombo),
			),
		),
		validation.Field(&r.PointCost,
			validation.Required.Error("point_cost phải > 0"),
			validation.Min(1),
		),
		validation.Field(&r.Quantity,
			validation.When(!r.IsQuantityUnlimited, validation.Min(1)),
		),
		validation.Field(&r.ValidityValue,
			validation.When(!r.IsValidityUnlimited,
				validation.Required.Error("Phải khai báo validity_value"),
				validation.Min(1),
			),
		),
		validation.Field(&r.ValidityUnit,
			validation.When(!r.IsValidityUnlimited,
				validation.Required,
				validation.In(string(ValidityDay), string(ValidityWeek), string(ValidityMonth)),
			),
		),
		validation.Field(&r.Template,
			validation.When(r.Type == string(RewardTypeVoucher),
				validation.Required.Error("Reward loại voucher phải có template"),
			),
		),
	)
}

// UpdateRewardRequest - partial update
type UpdateRewardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PointCost   *int64  `json:"point_cost"`
	Quantity    *int    `json:"quantity"`
	IsPublish   *bool   `json:"is_publish"`
}

func (r UpdateRewardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
		validation.Field(&r.PointCost, validation.Min(int64(1))),
		validation.Field(&r.Quantity, validation.Min(0)),
	)
}
