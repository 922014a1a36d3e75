package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-backend/internal/domains/voucher/model"
)

// voucherID sinh UUID cố định để thứ tự duyệt candidates deterministic
func voucherID(n byte) uuid.UUID {
	var b [16]byte
	b[15] = n
	id, _ := uuid.FromBytes(b[:])
	return id
}

func combinable(n byte, maxCombined int, discount string) *model.Voucher {
	return &model.Voucher{
		ID:                    voucherID(n),
		DiscountType:          model.DiscountTypeMoney,
		Discount:              dec(discount),
		HasCombinedUsageLimit: true,
		MaxCombinedUsageCount: &maxCombined,
	}
}

func nonCombinable(n byte, discount string) *model.Voucher {
	return &model.Voucher{
		ID:           voucherID(n),
		DiscountType: model.DiscountTypeMoney,
		Discount:     dec(discount),
	}
}

func candidate(v *model.Voucher, subtotal string) Candidate {
	return Candidate{Voucher: v, EligibleSubtotal: dec(subtotal)}
}

func TestResolveCombination_CombinedUsageCap(t *testing.T) {
	calc := NewDiscountCalculator()

	a := combinable(1, 3, "1000")
	b := combinable(2, 3, "2000")
	c := combinable(3, 2, "3000")

	t.Run("hai voucher dưới cap đều được nhận", func(t *testing.T) {
		result := ResolveCombination([]Candidate{
			candidate(a, "100000"),
			candidate(b, "100000"),
		}, dec("100000"), calc)

		assert.Len(t, result.Accepted, 2)
		assert.Empty(t, result.Rejected)
	})

	t.Run("voucher thứ ba vượt cap của chính nó bị loại", func(t *testing.T) {
		result := ResolveCombination([]Candidate{
			candidate(a, "100000"),
			candidate(b, "100000"),
			candidate(c, "100000"),
		}, dec("100000"), calc)

		require.Len(t, result.Accepted, 2)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, c.ID, result.Rejected[0].Voucher.ID)
		assert.Equal(t, model.ErrCodeCombinationLimit, result.Rejected[0].Reason.Code)
	})

	t.Run("voucher cap thấp đứng một mình vẫn được nhận", func(t *testing.T) {
		result := ResolveCombination([]Candidate{
			candidate(c, "100000"),
		}, dec("100000"), calc)

		assert.Len(t, result.Accepted, 1)
		assert.Empty(t, result.Rejected)
	})

	t.Run("cap của voucher đã nhận chặn voucher mới", func(t *testing.T) {
		// c (cap 2) được nhận trước theo thứ tự id, voucher thứ ba vượt cap của c
		result := ResolveCombination([]Candidate{
			candidate(c, "100000"),
			candidate(combinable(4, 5, "500"), "100000"),
			candidate(combinable(5, 5, "500"), "100000"),
		}, dec("100000"), calc)

		assert.Len(t, result.Accepted, 2)
		assert.Len(t, result.Rejected, 1)
	})
}

func TestResolveCombination_NonCombinable(t *testing.T) {
	calc := NewDiscountCalculator()

	t.Run("chỉ một voucher không cộng dồn mỗi đơn", func(t *testing.T) {
		result := ResolveCombination([]Candidate{
			candidate(nonCombinable(1, "1000"), "100000"),
			candidate(nonCombinable(2, "2000"), "100000"),
		}, dec("100000"), calc)

		require.Len(t, result.Accepted, 1)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, voucherID(1), result.Accepted[0].Voucher.ID)
		assert.Equal(t, model.ErrCodeCombinationLimit, result.Rejected[0].Reason.Code)
	})

	t.Run("một non-combinable đi cùng combinable hợp lệ", func(t *testing.T) {
		result := ResolveCombination([]Candidate{
			candidate(nonCombinable(1, "1000"), "100000"),
			candidate(combinable(2, 3, "2000"), "100000"),
		}, dec("100000"), calc)

		assert.Len(t, result.Accepted, 2)
		assert.Empty(t, result.Rejected)
	})
}

func TestResolveCombination_AdditiveStacking(t *testing.T) {
	calc := NewDiscountCalculator()

	// Hai voucher trùng scope tính trên eligible subtotal riêng của từng cái,
	// không chia nhau
	result := ResolveCombination([]Candidate{
		candidate(combinable(1, 3, "10000"), "50000"),
		candidate(combinable(2, 3, "15000"), "50000"),
	}, dec("50000"), calc)

	require.Len(t, result.Accepted, 2)
	sum := result.Accepted[0].DiscountAmount.Add(result.Accepted[1].DiscountAmount)
	assert.True(t, dec("25000").Equal(sum), "got %s", sum)
}

func TestResolveCombination_FinalClamp(t *testing.T) {
	calc := NewDiscountCalculator()

	t.Run("tổng discount vượt order total thì scale xuống", func(t *testing.T) {
		// Mỗi voucher giảm 40000 trên subtotal riêng, tổng 80000 > total 60000
		result := ResolveCombination([]Candidate{
			candidate(combinable(1, 3, "40000"), "40000"),
			candidate(combinable(2, 3, "40000"), "40000"),
		}, dec("60000"), calc)

		require.Len(t, result.Accepted, 2)

		sum := decimal.Zero
		for _, a := range result.Accepted {
			assert.False(t, a.DiscountAmount.IsNegative())
			sum = sum.Add(a.DiscountAmount)
		}
		assert.True(t, dec("60000").Equal(sum), "tổng sau clamp phải đúng bằng total, got %s", sum)
	})

	t.Run("residual sau round dồn vào discount lớn nhất", func(t *testing.T) {
		result := ResolveCombination([]Candidate{
			candidate(combinable(1, 3, "10000"), "10000"),
			candidate(combinable(2, 3, "20000"), "20000"),
		}, dec("10000"), calc)

		require.Len(t, result.Accepted, 2)

		sum := decimal.Zero
		for _, a := range result.Accepted {
			assert.False(t, a.DiscountAmount.IsNegative())
			sum = sum.Add(a.DiscountAmount)
		}
		assert.True(t, dec("10000").Equal(sum), "got %s", sum)
	})

	t.Run("tổng dưới total thì giữ nguyên", func(t *testing.T) {
		result := ResolveCombination([]Candidate{
			candidate(combinable(1, 3, "5000"), "100000"),
		}, dec("100000"), calc)

		require.Len(t, result.Accepted, 1)
		assert.True(t, dec("5000").Equal(result.Accepted[0].DiscountAmount))
	})
}

func TestResolveCombination_DeterministicOrder(t *testing.T) {
	calc := NewDiscountCalculator()

	// Cùng một tập candidates đưa vào theo thứ tự khác nhau phải cho cùng
	// kết quả accept/reject
	x := nonCombinable(1, "1000")
	y := nonCombinable(2, "2000")

	r1 := ResolveCombination([]Candidate{
		candidate(x, "100000"), candidate(y, "100000"),
	}, dec("100000"), calc)
	r2 := ResolveCombination([]Candidate{
		candidate(y, "100000"), candidate(x, "100000"),
	}, dec("100000"), calc)

	require.Len(t, r1.Accepted, 1)
	require.Len(t, r2.Accepted, 1)
	assert.Equal(t, r1.Accepted[0].Voucher.ID, r2.Accepted[0].Voucher.ID)
}
