package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemDiscountType là discount gắn trực tiếp trên product/combo,
// độc lập với voucher (voucher áp trên effective price đã giảm)
type ItemDiscountType string

const (
	ItemDiscountNone       ItemDiscountType = "none"
	ItemDiscountPercentage ItemDiscountType = "percentage"
	ItemDiscountFixed      ItemDiscountType = "fixed"
)

func (dt ItemDiscountType) IsValid() bool {
	switch dt {
	case ItemDiscountNone, ItemDiscountPercentage, ItemDiscountFixed:
		return true
	}
	return false
}

// ProductType phân loại sản phẩm (món chính, đồ uống, tráng miệng...)
type ProductType struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Product là một món trong menu
type Product struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	Description   *string          `json:"description,omitempty" db:"description"`
	ProductTypeID *uuid.UUID       `json:"product_type_id,omitempty" db:"product_type_id"`
	Price         decimal.Decimal  `json:"price" db:"price"`
	DiscountType  ItemDiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value" db:"discount_value"`
	IsPublish     bool             `json:"is_publish" db:"is_publish"`
	Version       int              `json:"version" db:"version"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
}

// EffectivePrice tính giá bán thực tế sau discount của item.
// Không bao giờ âm, round 2 chữ số.
func (p *Product) EffectivePrice() decimal.Decimal {
	return effectivePrice(p.Price, p.DiscountType, p.DiscountValue)
}

// Combo là một gói nhiều sản phẩm với giá riêng
type Combo struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	Description   *string          `json:"description,omitempty" db:"description"`
	Price         decimal.Decimal  `json:"price" db:"price"`
	DiscountType  ItemDiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value" db:"discount_value"`
	IsPublish     bool             `json:"is_publish" db:"is_publish"`
	Version       int              `json:"version" db:"version"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`

	Items []ComboItem `json:"items,omitempty" db:"-"`
}

func (c *Combo) EffectivePrice() decimal.Decimal {
	return effectivePrice(c.Price, c.DiscountType, c.DiscountValue)
}

// ComboItem là một sản phẩm trong combo
type ComboItem struct {
	ComboID   uuid.UUID `json:"combo_id" db:"combo_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// Extra là topping/phần thêm, giá cố định không discount
type Extra struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	IsPublish bool            `json:"is_publish" db:"is_publish"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

var oneHundred = decimal.NewFromInt(100)

func effectivePrice(price decimal.Decimal, dt ItemDiscountType, value decimal.Decimal) decimal.Decimal {
	var result decimal.Decimal

	switch dt {
	case ItemDiscountPercentage:
		result = price.Sub(price.Mul(value).Div(oneHundred))
	case ItemDiscountFixed:
		result = price.Sub(value)
	default:
		result = price
	}

	if result.IsNegative() {
		return decimal.Zero
	}
	return result.Round(2)
}
