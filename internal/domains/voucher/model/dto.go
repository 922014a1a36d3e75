package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EligibilityResult là kết quả đánh giá một voucher với một cart snapshot
type EligibilityResult struct {
	Eligible         bool            `json:"eligible"`
	Reason           *Denial         `json:"reason,omitempty"`
	EligibleSubtotal decimal.Decimal `json:"eligible_subtotal"`
}

// CheckoutVoucherOption là một lựa chọn voucher ở màn preview checkout
type CheckoutVoucherOption struct {
	VoucherID        uuid.UUID       `json:"voucher_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Description      *string         `json:"description,omitempty"`
	DiscountType     DiscountType    `json:"discount_type"`
	Discount         decimal.Decimal `json:"discount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	EligibleSubtotal decimal.Decimal `json:"eligible_subtotal"`
	EndTime          *time.Time      `json:"end_time,omitempty"`
	IsLifeTime       bool            `json:"is_life_time"`
}

// AppliedDiscount là discount đã chốt của một voucher trên đơn
type AppliedDiscount struct {
	VoucherID      uuid.UUID       `json:"voucher_id"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// ApplyVouchersResult trả về sau khi apply voucher vào đơn (transactional)
type ApplyVouchersResult struct {
	AppliedDiscounts []AppliedDiscount `json:"applied_discounts"`
	DiscountTotal    decimal.Decimal   `json:"discount_total"`
	NewOrderTotal    decimal.Decimal   `json:"new_order_total"`
}

// ApplyVouchersRequest - request apply voucher vào order tại checkout
type ApplyVouchersRequest struct {
	OrderID    uuid.UUID   `json:"order_id"`
	VoucherIDs []uuid.UUID `json:"voucher_ids"`
}

func (r ApplyVouchersRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.Required.Error("order_id không được để trống")),
		validation.Field(&r.VoucherIDs,
			validation.Required.Error("Phải chọn ít nhất một voucher"),
			validation.Length(1, 10).Error("Tối đa 10 voucher mỗi đơn"),
		),
	)
}

// CreateVoucherRequest - admin tạo voucher mới
type CreateVoucherRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Type        string  `json:"type"`

	ProductScope string      `json:"product_scope"`
	ComboScope   string      `json:"combo_scope"`
	ProductIDs   []uuid.UUID `json:"product_ids"`
	ComboIDs     []uuid.UUID `json:"combo_ids"`

	DiscountType                string   `json:"discount_type"`
	Discount                    float64  `json:"discount"`
	UnlimitedPercentageDiscount bool     `json:"unlimited_percentage_discount"`
	MaximumPercentageReduction  *float64 `json:"maximum_percentage_reduction"`

	Quantity int `json:"quantity"`

	StartTime  string  `json:"start_time"`
	EndTime    *string `json:"end_time"`
	IsLifeTime bool    `json:"is_life_time"`

	MinimumRequirements float64 `json:"minimum_requirements"`
	IsForNewUsersOnly   bool    `json:"is_for_new_users_only"`
	MinimumRank         *string `json:"minimum_rank"`

	HasCombinedUsageLimit bool `json:"has_combined_usage_limit"`
	MaxCombinedUsageCount *int `json:"max_combined_usage_count"`

	IsPublish bool `json:"is_publish"`
	IsShow    bool `json:"is_show"`
}

func (r CreateVoucherRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code,
			validation.Required.Error("Mã voucher không được để trống"),
			validation.Length(3, 50).Error("Mã voucher phải từ 3-50 ký tự"),
		),
		validation.Field(&r.Name,
			validation.Required.Error("Tên voucher không được để trống"),
			validation.Length(3, 200),
		),
		validation.Field(&r.Type,
			validation.Required,
			validation.In(string(VoucherTypeGeneral), string(VoucherTypeUserTargeted)),
		),
		validation.Field(&r.ProductScope,
			validation.Required,
			validation.In(string(ScopeAll), string(ScopeSpecific)),
		),
		validation.Field(&r.ComboScope,
			validation.Required,
			validation.In(string(ScopeAll), string(ScopeSpecific)),
		),
		validation.Field(&r.DiscountType,
			validation.Required,
			validation.In(string(DiscountTypeMoney), string(DiscountTypePercentage)),
		),
		validation.Field(&r.Discount,
			validation.Required.Error("Giá trị giảm phải > 0"),
			validation.Min(0.0).Exclusive(),
		),
		validation.Field(&r.Quantity, validation.Min(0)),
		validation.Field(&r.StartTime, validation.Required.Error("Thời gian bắt đầu không được để trống")),
		validation.Field(&r.MinimumRequirements, validation.Min(0.0)),
		validation.Field(&r.MaxCombinedUsageCount,
			validation.When(r.HasCombinedUsageLimit,
				validation.Required.Error("Phải khai báo max_combined_usage_count"),
			),
		),
	)
}

// NormalizeCode chuyển code về uppercase
func (r *CreateVoucherRequest) NormalizeCode() {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
}

// UpdateVoucherRequest - admin cập nhật voucher (partial update)
type UpdateVoucherRequest struct {
	Name                       *string  `json:"name"`
	Description                *string  `json:"description"`
	Quantity                   *int     `json:"quantity"`
	EndTime                    *string  `json:"end_time"`
	IsLifeTime                 *bool    `json:"is_life_time"`
	MinimumRequirements        *float64 `json:"minimum_requirements"`
	MaximumPercentageReduction *float64 `json:"maximum_percentage_reduction"`
	IsPublish                  *bool    `json:"is_publish"`
	IsShow                     *bool    `json:"is_show"`
}

func (r UpdateVoucherRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(3, 200)),
		validation.Field(&r.Quantity, validation.Min(0)),
		validation.Field(&r.MinimumRequirements, validation.Min(0.0)),
	)
}

// ListVouchersFilter - filter cho admin listing
type ListVouchersFilter struct {
	IsPublish *bool
	Type      *VoucherType
	Page      int
	Limit     int
}
