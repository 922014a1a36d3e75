package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/voucher/model"
)

var evalNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activeVoucher() *model.Voucher {
	return &model.Voucher{
		ID:           uuid.New(),
		Type:         model.VoucherTypeGeneral,
		ProductScope: model.ScopeAll,
		ComboScope:   model.ScopeAll,
		DiscountType: model.DiscountTypeMoney,
		Discount:     dec("10000"),
		StartTime:    evalNow.Add(-time.Hour),
		IsLifeTime:   true,
		IsPublish:    true,
	}
}

func snapshotOf(lines ...model.CartLine) model.CartSnapshot {
	return model.CartSnapshot{Lines: lines}
}

func productLine(id uuid.UUID, price string, qty int) model.CartLine {
	return model.CartLine{Kind: model.LineKindProduct, ItemID: id, UnitPrice: dec(price), Quantity: qty}
}

func comboLine(id uuid.UUID, price string, qty int) model.CartLine {
	return model.CartLine{Kind: model.LineKindCombo, ItemID: id, UnitPrice: dec(price), Quantity: qty}
}

func baseInput(v *model.Voucher) EvaluationInput {
	return EvaluationInput{
		Shopper:  model.Shopper{ID: uuid.New(), Rank: loyalty.RankBronze, CompletedOrders: 3},
		Voucher:  v,
		Snapshot: snapshotOf(productLine(uuid.New(), "50000", 2)),
		Now:      evalNow,
	}
}

func TestEvaluate_TemporalValidity(t *testing.T) {
	t.Run("chưa bắt đầu", func(t *testing.T) {
		v := activeVoucher()
		v.StartTime = evalNow.Add(time.Hour)

		result := Evaluate(baseInput(v))

		require.False(t, result.Eligible)
		assert.Equal(t, model.ErrCodeVoucherNotStarted, result.Reason.Code)
	})

	t.Run("đã hết hạn", func(t *testing.T) {
		v := activeVoucher()
		v.IsLifeTime = false
		end := evalNow.Add(-time.Minute)
		v.EndTime = &end

		result := Evaluate(baseInput(v))

		require.False(t, result.Eligible)
		assert.Equal(t, model.ErrCodeVoucherExpired, result.Reason.Code)
	})

	t.Run("lifetime voucher không bao giờ hết hạn", func(t *testing.T) {
		v := activeVoucher()
		v.StartTime = evalNow.AddDate(-10, 0, 0)

		result := Evaluate(baseInput(v))

		assert.True(t, result.Eligible)
	})
}

func TestEvaluate_Quantity(t *testing.T) {
	t.Run("hết lượt sử dụng", func(t *testing.T) {
		v := activeVoucher()
		v.Quantity = 5
		v.Used = 5

		result := Evaluate(baseInput(v))

		require.False(t, result.Eligible)
		assert.Equal(t, model.ErrCodeVoucherExhausted, result.Reason.Code)
	})

	t.Run("quantity 0 là unlimited", func(t *testing.T) {
		v := activeVoucher()
		v.Quantity = 0
		v.Used = 99999

		result := Evaluate(baseInput(v))

		assert.True(t, result.Eligible)
	})
}

func TestEvaluate_Ownership(t *testing.T) {
	t.Run("voucher user-targeted của người khác", func(t *testing.T) {
		otherUser := uuid.New()
		v := activeVoucher()
		v.Type = model.VoucherTypeUserTargeted
		v.UserID = &otherUser

		result := Evaluate(baseInput(v))

		require.False(t, result.Eligible)
		assert.Equal(t, model.ErrCodeVoucherNotOwned, result.Reason.Code)
	})

	t.Run("voucher thuộc về chính user", func(t *testing.T) {
		v := activeVoucher()
		v.Type = model.VoucherTypeUserTargeted

		in := baseInput(v)
		v.UserID = &in.Shopper.ID

		result := Evaluate(in)

		assert.True(t, result.Eligible)
	})

	t.Run("grant chưa tiêu cho phép dùng", func(t *testing.T) {
		otherUser := uuid.New()
		v := activeVoucher()
		v.Type = model.VoucherTypeUserTargeted
		v.UserID = &otherUser

		in := baseInput(v)
		in.HasGrant = true

		result := Evaluate(in)

		assert.True(t, result.Eligible)
	})
}

func TestEvaluate_NewUsersOnly(t *testing.T) {
	t.Run("user đã có đơn hoàn tất bị chặn", func(t *testing.T) {
		v := activeVoucher()
		v.IsForNewUsersOnly = true

		result := Evaluate(baseInput(v))

		require.False(t, result.Eligible)
		assert.Equal(t, model.ErrCodeVoucherNewUsersOnly, result.Reason.Code)
	})

	t.Run("khách hàng mới được dùng", func(t *testing.T) {
		v := activeVoucher()
		v.IsForNewUsersOnly = true

		in := baseInput(v)
		in.Shopper.CompletedOrders = 0

		result := Evaluate(in)

		assert.True(t, result.Eligible)
	})
}

func TestEvaluate_RankGate(t *testing.T) {
	t.Run("rank thấp hơn yêu cầu", func(t *testing.T) {
		minRank := loyalty.RankGold
		v := activeVoucher()
		v.MinimumRank = &minRank

		in := baseInput(v)
		in.Shopper.Rank = loyalty.RankSilver

		result := Evaluate(in)

		require.False(t, result.Eligible)
		assert.Equal(t, model.ErrCodeVoucherRankTooLow, result.Reason.Code)
	})

	t.Run("rank bằng hoặc cao hơn đều qua", func(t *testing.T) {
		minRank := loyalty.RankGold
		v := activeVoucher()
		v.MinimumRank = &minRank

		for _, rank := range []loyalty.Rank{loyalty.RankGold, loyalty.RankDiamond} {
			in := baseInput(v)
			in.Shopper.Rank = rank
			assert.True(t, Evaluate(in).Eligible, "rank %s phải qua", rank)
		}
	})
}

func TestEvaluate_ScopeAndMinSpend(t *testing.T) {
	t.Run("scope specific chỉ tính line trong membership", func(t *testing.T) {
		inScope := uuid.New()
		outScope := uuid.New()

		v := activeVoucher()
		v.ProductScope = model.ScopeSpecific
		v.ComboScope = model.ScopeSpecific

		in := baseInput(v)
		in.Membership = model.NewScopeMembership([]uuid.UUID{inScope}, nil)
		in.Snapshot = snapshotOf(
			productLine(inScope, "30000", 2),
			productLine(outScope, "99999", 1),
		)

		result := Evaluate(in)

		require.True(t, result.Eligible)
		assert.True(t, dec("60000").Equal(result.EligibleSubtotal), "got %s", result.EligibleSubtotal)
	})

	t.Run("combo line đánh giá theo combo scope", func(t *testing.T) {
		comboID := uuid.New()

		v := activeVoucher()
		v.ProductScope = model.ScopeSpecific // không có product nào
		v.ComboScope = model.ScopeAll

		in := baseInput(v)
		in.Snapshot = snapshotOf(
			productLine(uuid.New(), "50000", 1),
			comboLine(comboID, "80000", 1),
		)

		result := Evaluate(in)

		require.True(t, result.Eligible)
		assert.True(t, dec("80000").Equal(result.EligibleSubtotal), "got %s", result.EligibleSubtotal)
	})

	t.Run("minimum spend tính trên eligible subtotal", func(t *testing.T) {
		v := activeVoucher()
		v.MinimumRequirements = dec("150000")

		result := Evaluate(baseInput(v)) // subtotal 100000

		require.False(t, result.Eligible)
		assert.Equal(t, model.ErrCodeVoucherMinSpend, result.Reason.Code)
		assert.True(t, dec("100000").Equal(result.EligibleSubtotal))
	})

	t.Run("membership rỗng với scope specific thì không line nào eligible", func(t *testing.T) {
		v := activeVoucher()
		v.ProductScope = model.ScopeSpecific
		v.ComboScope = model.ScopeSpecific
		v.MinimumRequirements = dec("1")

		result := Evaluate(baseInput(v))

		require.False(t, result.Eligible)
		assert.Equal(t, model.ErrCodeVoucherMinSpend, result.Reason.Code)
		assert.True(t, result.EligibleSubtotal.IsZero())
	})
}
