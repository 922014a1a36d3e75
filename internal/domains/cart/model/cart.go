package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrCartEmpty = errors.New("cart is empty")

// ItemKind phân biệt dòng cart là product hay combo
type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindCombo   ItemKind = "combo"
)

// CartItem là một dòng trong giỏ. UnitPrice được refresh từ catalog
// mỗi lần đọc giỏ — giá trong Redis chỉ là hint hiển thị.
type CartItem struct {
	Kind      ItemKind        `json:"kind"`
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Cart là giỏ hàng của một user, lưu trong Redis theo key "cart:<userID>"
type Cart struct {
	UserID    uuid.UUID  `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Subtotal trước mọi voucher
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// AddItemRequest - thêm item vào giỏ
type AddItemRequest struct {
	Kind     string    `json:"kind"`
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

func (r AddItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind,
			validation.Required,
			validation.In(string(ItemKindProduct), string(ItemKindCombo)),
		),
		validation.Field(&r.ItemID, validation.Required.Error("item_id không được để trống")),
		validation.Field(&r.Quantity,
			validation.Min(1).Error("Số lượng phải >= 1"),
			validation.Max(99),
		),
	)
}

// UpdateItemRequest - đổi số lượng, quantity = 0 nghĩa là xóa dòng
type UpdateItemRequest struct {
	Kind     string    `json:"kind"`
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

func (r UpdateItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind,
			validation.Required,
			validation.In(string(ItemKindProduct), string(ItemKindCombo)),
		),
		validation.Field(&r.ItemID, validation.Required.Error("item_id không được để trống")),
		validation.Field(&r.Quantity, validation.Min(0), validation.Max(99)),
	)
}
