package service

import (
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/voucher/model"
)

// DiscountCalculator xử lý logic tính toán discount
type DiscountCalculator struct{}

// NewDiscountCalculator tạo instance mới
func NewDiscountCalculator() *DiscountCalculator {
	return &DiscountCalculator{}
}

var oneHundred = decimal.NewFromInt(100)

// Calculate tính số tiền giảm giá của một voucher trên eligible subtotal.
//
// Business Logic:
//  1. Money: discount = min(magnitude, eligibleSubtotal)
//     (không giảm quá số tiền đơn hàng, không bao giờ âm)
//  2. Percentage: raw = eligibleSubtotal × magnitude / 100
//     - Nếu !unlimited_percentage_discount và có maximum_percentage_reduction:
//       raw = min(raw, maximum_percentage_reduction)
//     - discount = min(raw, eligibleSubtotal)
//
// Rounding: 2 chữ số thập phân, round half away from zero, áp dụng MỘT lần
// ở kết quả cuối — không round ở bước trung gian để tránh dồn sai số khi
// nhiều voucher tính trên các subtotal chồng nhau.
//
// Invariant: 0 <= discount <= eligibleSubtotal với mọi input,
// kể cả magnitude = 0, subtotal = 0, percentage > 100.
func (c *DiscountCalculator) Calculate(v *model.Voucher, eligibleSubtotal decimal.Decimal) decimal.Decimal {
	if eligibleSubtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var discount decimal.Decimal

	switch v.DiscountType {
	case model.DiscountTypeMoney:
		discount = v.Discount
		if discount.GreaterThan(eligibleSubtotal) {
			discount = eligibleSubtotal
		}

	case model.DiscountTypePercentage:
		discount = eligibleSubtotal.Mul(v.Discount).Div(oneHundred)

		// Cap chỉ có ý nghĩa khi percentage và không unlimited
		if !v.UnlimitedPercentageDiscount && v.MaximumPercentageReduction != nil {
			if discount.GreaterThan(*v.MaximumPercentageReduction) {
				discount = *v.MaximumPercentageReduction
			}
		}

		if discount.GreaterThan(eligibleSubtotal) {
			discount = eligibleSubtotal
		}

	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}

	// Round một lần ở kết quả cuối (half away from zero)
	return discount.Round(2)
}
