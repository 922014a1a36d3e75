package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialUnit là đơn vị đo của nguyên liệu
type MaterialUnit string

const (
	UnitKilogram MaterialUnit = "kg"
	UnitGram     MaterialUnit = "g"
	UnitLiter    MaterialUnit = "l"
	UnitMillili  MaterialUnit = "ml"
	UnitPiece    MaterialUnit = "pcs"
)

func (u MaterialUnit) IsValid() bool {
	switch u {
	case UnitKilogram, UnitGram, UnitLiter, UnitMillili, UnitPiece:
		return true
	}
	return false
}

// Material là một nguyên liệu trong kho.
// Stock không bao giờ âm: mọi adjustment đi qua guard SQL.
type Material struct {
	ID   uuid.UUID    `json:"id" db:"id"`
	Name string       `json:"name" db:"name"`
	Unit MaterialUnit `json:"unit" db:"unit"`

	Stock             decimal.Decimal `json:"stock" db:"stock"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold" db:"low_stock_threshold"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsLowStock: stock đã chạm hoặc xuống dưới ngưỡng cảnh báo
func (m *Material) IsLowStock() bool {
	return m.Stock.LessThanOrEqual(m.LowStockThreshold)
}

// CreateMaterialRequest - admin thêm nguyên liệu mới
type CreateMaterialRequest struct {
	Name              string  `json:"name"`
	Unit              string  `json:"unit"`
	Stock             float64 `json:"stock"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
}

func (r CreateMaterialRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Tên nguyên liệu không được để trống"),
			validation.Length(1, 200),
		),
		validation.Field(&r.Unit,
			validation.Required,
			validation.In(
				string(UnitKilogram), string(UnitGram),
				string(UnitLiter), string(UnitMillili), string(UnitPiece),
			).Error("Đơn vị không hợp lệ"),
		),
		validation.Field(&r.Stock, validation.Min(0.0)),
		validation.Field(&r.LowStockThreshold, validation.Min(0.0)),
	)
}

// UpdateMaterialRequest - partial update, không đụng tới stock
// (stock chỉ đổi qua adjustment)
type UpdateMaterialRequest struct {
	Name              *string  `json:"name"`
	Unit              *string  `json:"unit"`
	LowStockThreshold *float64 `json:"low_stock_threshold"`
}

func (r UpdateMaterialRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
		validation.Field(&r.LowStockThreshold, validation.Min(0.0)),
	)
}

// AdjustStockRequest - nhập/xuất kho, delta âm là xuất
type AdjustStockRequest struct {
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

func (r AdjustStockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Delta, validation.Required.Error("Delta không được bằng 0")),
		validation.Field(&r.Reason, validation.Length(0, 500)),
	)
}
