package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
)

// LineKind phân biệt line item là product hay combo
type LineKind string

const (
	LineKindProduct LineKind = "product"
	LineKindCombo   LineKind = "combo"
)

// CartLine là một dòng trong cart snapshot mà engine đánh giá.
// UnitPrice là effective price đã chốt tại thời điểm snapshot.
type CartLine struct {
	Kind      LineKind        `json:"kind"`
	ItemID    uuid.UUID       `json:"item_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal = unit price × quantity
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot là ảnh chụp giỏ hàng tại một thời điểm.
// Engine không bao giờ tin snapshot từ client giữa preview và checkout:
// phải re-evaluate với state hiện tại khi đặt đơn.
type CartSnapshot struct {
	Lines []CartLine `json:"lines"`
}

// Subtotal của toàn bộ snapshot (chưa giảm giá)
func (s CartSnapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// Shopper là thông tin user cần cho eligibility evaluation
type Shopper struct {
	ID              uuid.UUID
	Rank            loyalty.Rank
	CompletedOrders int
}

// IsNewCustomer: chưa có đơn hoàn tất nào
func (s Shopper) IsNewCustomer() bool {
	return s.CompletedOrders == 0
}
