package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"restaurant-backend/internal/domains/voucher/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func moneyVoucher(amount string) *model.Voucher {
	return &model.Voucher{
		DiscountType: model.DiscountTypeMoney,
		Discount:     dec(amount),
	}
}

func percentVoucher(percent string, cap *decimal.Decimal, unlimited bool) *model.Voucher {
	return &model.Voucher{
		DiscountType:                model.DiscountTypePercentage,
		Discount:                    dec(percent),
		UnlimitedPercentageDiscount: unlimited,
		MaximumPercentageReduction:  cap,
	}
}

func TestCalculate_MoneyDiscount(t *testing.T) {
	calc := NewDiscountCalculator()

	t.Run("discount nhỏ hơn subtotal", func(t *testing.T) {
		got := calc.Calculate(moneyVoucher("20000"), dec("100000"))
		assert.True(t, dec("20000").Equal(got), "got %s", got)
	})

	t.Run("discount lớn hơn subtotal thì clamp về subtotal", func(t *testing.T) {
		got := calc.Calculate(moneyVoucher("50000"), dec("30000"))
		assert.True(t, dec("30000").Equal(got), "got %s", got)
	})

	t.Run("subtotal bằng 0 thì discount bằng 0", func(t *testing.T) {
		got := calc.Calculate(moneyVoucher("50000"), decimal.Zero)
		assert.True(t, got.IsZero())
	})

	t.Run("subtotal âm thì discount bằng 0", func(t *testing.T) {
		got := calc.Calculate(moneyVoucher("50000"), dec("-1"))
		assert.True(t, got.IsZero())
	})
}

func TestCalculate_PercentageDiscount(t *testing.T) {
	calc := NewDiscountCalculator()

	t.Run("percentage cơ bản", func(t *testing.T) {
		got := calc.Calculate(percentVoucher("10", nil, false), dec("100000"))
		assert.True(t, dec("10000").Equal(got), "got %s", got)
	})

	t.Run("cap giới hạn percentage discount", func(t *testing.T) {
		maxReduction := dec("5000")
		got := calc.Calculate(percentVoucher("10", &maxReduction, false), dec("100000"))
		assert.True(t, dec("5000").Equal(got), "got %s", got)
	})

	t.Run("unlimited flag bỏ qua cap", func(t *testing.T) {
		maxReduction := dec("5000")
		got := calc.Calculate(percentVoucher("10", &maxReduction, true), dec("100000"))
		assert.True(t, dec("10000").Equal(got), "got %s", got)
	})

	t.Run("percentage trên 100 clamp về subtotal", func(t *testing.T) {
		got := calc.Calculate(percentVoucher("150", nil, false), dec("40000"))
		assert.True(t, dec("40000").Equal(got), "got %s", got)
	})

	t.Run("round hai chữ số half away from zero", func(t *testing.T) {
		// 10% của 33.35 = 3.335 -> 3.34
		got := calc.Calculate(percentVoucher("10", nil, false), dec("33.35"))
		assert.True(t, dec("3.34").Equal(got), "got %s", got)

		// 10% của 33.33 = 3.333 -> 3.33
		got = calc.Calculate(percentVoucher("10", nil, false), dec("33.33"))
		assert.True(t, dec("3.33").Equal(got), "got %s", got)
	})

	t.Run("magnitude bằng 0", func(t *testing.T) {
		got := calc.Calculate(percentVoucher("0", nil, false), dec("100000"))
		assert.True(t, got.IsZero())
	})
}

func TestCalculate_InvariantNeverExceedsSubtotal(t *testing.T) {
	calc := NewDiscountCalculator()

	subtotals := []string{"0.01", "1", "99.99", "100000", "123456.78"}
	vouchers := []*model.Voucher{
		moneyVoucher("0"),
		moneyVoucher("50"),
		moneyVoucher("999999"),
		percentVoucher("1", nil, false),
		percentVoucher("50", nil, false),
		percentVoucher("100", nil, false),
		percentVoucher("200", nil, true),
	}

	for _, s := range subtotals {
		sub := dec(s)
		for _, v := range vouchers {
			got := calc.Calculate(v, sub)
			assert.False(t, got.IsNegative(), "discount âm với subtotal %s", s)
			assert.True(t, got.LessThanOrEqual(sub), "discount %s vượt subtotal %s", got, s)
		}
	}
}
