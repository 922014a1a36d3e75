package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// CreateProductRequest - admin tạo product mới
type CreateProductRequest struct {
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	ProductTypeID *uuid.UUID `json:"product_type_id"`
	Price         float64    `json:"price"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue float64    `json:"discount_value"`
	IsPublish     bool       `json:"is_publish"`
}

func (r CreateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Tên sản phẩm không được để trống"),
			validation.Length(1, 200),
		),
		validation.Field(&r.Price,
			validation.Min(0.0).Error("Giá phải >= 0"),
		),
		validation.Field(&r.DiscountType,
			validation.Required,
			validation.In(
				string(ItemDiscountNone),
				string(ItemDiscountPercentage),
				string(ItemDiscountFixed),
			),
		),
		validation.Field(&r.DiscountValue, validation.Min(0.0)),
	)
}

// UpdateProductRequest - partial update
type UpdateProductRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	DiscountType  *string  `json:"discount_type"`
	DiscountValue *float64 `json:"discount_value"`
	IsPublish     *bool    `json:"is_publish"`
}

func (r UpdateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
		validation.Field(&r.Price, validation.Min(0.0)),
		validation.Field(&r.DiscountValue, validation.Min(0.0)),
	)
}

// ComboItemInput là một dòng sản phẩm trong request tạo combo
type ComboItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func (i ComboItemInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.Required),
		validation.Field(&i.Quantity, validation.Min(1).Error("Số lượng phải >= 1")),
	)
}

// CreateComboRequest - admin tạo combo mới
type CreateComboRequest struct {
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Price         float64          `json:"price"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue float64          `json:"discount_value"`
	IsPublish     bool             `json:"is_publish"`
	Items         []ComboItemInput `json:"items"`
}

func (r CreateComboRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Tên combo không được để trống"),
			validation.Length(1, 200),
		),
		validation.Field(&r.Price, validation.Min(0.0)),
		validation.Field(&r.DiscountType,
			validation.Required,
			validation.In(
				string(ItemDiscountNone),
				string(ItemDiscountPercentage),
				string(ItemDiscountFixed),
			),
		),
		validation.Field(&r.Items,
			validation.Required.Error("Combo phải có ít nhất một sản phẩm"),
		),
	)
}
