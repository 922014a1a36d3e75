package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEffectivePrice(t *testing.T) {
	t.Run("không discount giữ nguyên giá", func(t *testing.T) {
		p := &Product{Price: dec("45000"), DiscountType: ItemDiscountNone}
		assert.True(t, dec("45000").Equal(p.EffectivePrice()))
	})

	t.Run("percentage discount", func(t *testing.T) {
		p := &Product{Price: dec("50000"), DiscountType: ItemDiscountPercentage, DiscountValue: dec("20")}
		assert.True(t, dec("40000").Equal(p.EffectivePrice()))
	})

	t.Run("fixed discount", func(t *testing.T) {
		p := &Product{Price: dec("50000"), DiscountType: ItemDiscountFixed, DiscountValue: dec("15000")}
		assert.True(t, dec("35000").Equal(p.EffectivePrice()))
	})

	t.Run("fixed discount lớn hơn giá thì clamp về 0", func(t *testing.T) {
		p := &Product{Price: dec("10000"), DiscountType: ItemDiscountFixed, DiscountValue: dec("99000")}
		assert.True(t, p.EffectivePrice().IsZero())
	})

	t.Run("percentage trên 100 clamp về 0", func(t *testing.T) {
		p := &Product{Price: dec("10000"), DiscountType: ItemDiscountPercentage, DiscountValue: dec("150")}
		assert.True(t, p.EffectivePrice().IsZero())
	})

	t.Run("round hai chữ số", func(t *testing.T) {
		// 33.33 giảm 10% = 29.997 -> 30.00
		p := &Product{Price: dec("33.33"), DiscountType: ItemDiscountPercentage, DiscountValue: dec("10")}
		assert.True(t, dec("30.00").Equal(p.EffectivePrice()), "got %s", p.EffectivePrice())
	})

	t.Run("combo dùng cùng công thức", func(t *testing.T) {
		c := &Combo{Price: dec("120000"), DiscountType: ItemDiscountPercentage, DiscountValue: dec("25")}
		assert.True(t, dec("90000").Equal(c.EffectivePrice()))
	})
}

func TestItemDiscountTypeIsValid(t *testing.T) {
	assert.True(t, ItemDiscountNone.IsValid())
	assert.True(t, ItemDiscountPercentage.IsValid())
	assert.True(t, ItemDiscountFixed.IsValid())
	assert.False(t, ItemDiscountType("bogus").IsValid())
}
