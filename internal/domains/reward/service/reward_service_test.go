package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/reward/model"
	"restaurant-backend/internal/domains/reward/repository"
	usermodel "restaurant-backend/internal/domains/user/model"
	vouchermodel "restaurant-backend/internal/domains/voucher/model"
	"restaurant-backend/pkg/database"
)

// ===================================================================
// FAKES
// ===================================================================

type fakeRewardRepo struct {
	repository.RewardRepository

	rewards     map[uuid.UUID]*model.Reward
	redemptions map[string]*model.RewardRedemption

	// incrementErr mô phỏng guard fail khi reward vừa hết lượt
	incrementErr error
	// codeAlwaysExists ép mọi code sinh ra đều collision
	codeAlwaysExists bool

	incremented []uuid.UUID
	created     []*model.RewardRedemption
	markedUsed  []uuid.UUID
}

func newFakeRewardRepo(rewards ...*model.Reward) *fakeRewardRepo {
	r := &fakeRewardRepo{
		rewards:     make(map[uuid.UUID]*model.Reward),
		redemptions: make(map[string]*model.RewardRedemption),
	}
	for _, rw := range rewards {
		r.rewards[rw.ID] = rw
	}
	return r
}

func (r *fakeRewardRepo) FindByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*model.Reward, error) {
	rw, ok := r.rewards[id]
	if !ok {
		return nil, model.ErrRewardNotFound
	}
	return rw, nil
}

func (r *fakeRewardRepo) IncrementRedeemedTx(_ context.Context, _ pgx.Tx, rewardID uuid.UUID) error {
	if r.incrementErr != nil {
		return r.incrementErr
	}
	r.incremented = append(r.incremented, rewardID)
	return nil
}

func (r *fakeRewardRepo) CodeExists(_ context.Context, _ string) (bool, error) {
	return r.codeAlwaysExists, nil
}

func (r *fakeRewardRepo) CreateRedemptionTx(_ context.Context, _ pgx.Tx, rd *model.RewardRedemption) error {
	r.created = append(r.created, rd)
	r.redemptions[rd.Code] = rd
	return nil
}

func (r *fakeRewardRepo) FindRedemptionByCodeForUpdate(_ context.Context, _ pgx.Tx, code string) (*model.RewardRedemption, error) {
	rd, ok := r.redemptions[code]
	if !ok {
		return nil, model.ErrRedemptionNotFound
	}
	return rd, nil
}

func (r *fakeRewardRepo) MarkUsedTx(_ context.Context, _ pgx.Tx, redemptionID uuid.UUID) error {
	for _, rd := range r.redemptions {
		if rd.ID == redemptionID {
			if rd.IsUsed {
				return model.ErrRedemptionNotFound
			}
			rd.IsUsed = true
			r.markedUsed = append(r.markedUsed, redemptionID)
			return nil
		}
	}
	return model.ErrRedemptionNotFound
}

type fakeUserStore struct {
	user *usermodel.User

	debitErr error
	debited  []int64
}

func (s *fakeUserStore) FindByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*usermodel.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, usermodel.ErrUserNotFound
	}
	return s.user, nil
}

func (s *fakeUserStore) DebitPointsTx(_ context.Context, _ pgx.Tx, _ uuid.UUID, cost int64) error {
	if s.debitErr != nil {
		return s.debitErr
	}
	s.debited = append(s.debited, cost)
	return nil
}

type fakeVoucherMinter struct {
	minted []*vouchermodel.Voucher
}

func (m *fakeVoucherMinter) CreateTx(_ context.Context, _ pgx.Tx, v *vouchermodel.Voucher) error {
	m.minted = append(m.minted, v)
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) WithTx(_ context.Context, fn database.TxFunc) error {
	return fn(nil)
}

// ===================================================================
// FIXTURES
// ===================================================================

type redeemFixture struct {
	svc    RewardService
	repo   *fakeRewardRepo
	users  *fakeUserStore
	minter *fakeVoucherMinter

	userID uuid.UUID
	reward *model.Reward
}

func newRedeemFixture(reward *model.Reward, point int64, rank loyalty.Rank) *redeemFixture {
	userID := uuid.New()
	repo := newFakeRewardRepo(reward)
	users := &fakeUserStore{
		user: &usermodel.User{
			ID:    userID,
			Point: point,
			Rank:  rank,
		},
	}
	minter := &fakeVoucherMinter{}

	return &redeemFixture{
		svc:    NewRewardService(repo, fakeTxManager{}, users, minter),
		repo:   repo,
		users:  users,
		minter: minter,
		userID: userID,
		reward: reward,
	}
}

func voucherReward(pointCost int64) *model.Reward {
	return &model.Reward{
		ID:        uuid.New(),
		Name:      "Voucher giảm 20k",
		Type:      model.RewardTypeVoucher,
		PointCost: pointCost,

		Quantity: 10,

		ValidityValue: 7,
		ValidityUnit:  model.ValidityDay,

		Template: &model.VoucherTemplate{
			ProductScope: vouchermodel.ScopeAll,
			ComboScope:   vouchermodel.ScopeAll,
			DiscountType: vouchermodel.DiscountTypeMoney,
			Discount:     decimal.NewFromInt(20000),
		},

		IsPublish: true,
	}
}

// ===================================================================
// REDEEM
// ===================================================================

func TestRedeem_HappyPath(t *testing.T) {
	f := newRedeemFixture(voucherReward(500), 800, loyalty.RankBronze)

	result, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

	require.NoError(t, err)
	assert.Len(t, result.Code, codeLength)
	assert.Equal(t, int64(500), result.PointCharged)
	assert.Equal(t, int64(300), result.RemainingPoint)

	// Side effects: điểm bị trừ, counter tăng, redemption ghi, voucher mint
	assert.Equal(t, []int64{500}, f.users.debited)
	assert.Len(t, f.repo.incremented, 1)
	require.Len(t, f.repo.created, 1)
	require.Len(t, f.minter.minted, 1)

	// Voucher mint ra là user-targeted single-use của đúng user
	minted := f.minter.minted[0]
	assert.Equal(t, vouchermodel.VoucherTypeUserTargeted, minted.Type)
	require.NotNil(t, minted.UserID)
	assert.Equal(t, f.userID, *minted.UserID)
	assert.Equal(t, 1, minted.Quantity)
	assert.True(t, decimal.NewFromInt(20000).Equal(minted.Discount))

	// Redemption link tới voucher đầu tiên
	require.NotNil(t, result.VoucherID)
	assert.Equal(t, minted.ID, *result.VoucherID)
}

func TestRedeem_InsufficientPoints(t *testing.T) {
	f := newRedeemFixture(voucherReward(500), 200, loyalty.RankBronze)

	_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, model.ErrCodeInsufficientPoints, appErr.Code)
	assert.Equal(t, int64(300), appErr.Details["needed_point"])

	// Không side effect nào xảy ra
	assert.Empty(t, f.users.debited)
	assert.Empty(t, f.repo.incremented)
	assert.Empty(t, f.repo.created)
}

func TestRedeem_RankGate(t *testing.T) {
	minRank := loyalty.RankGold
	reward := voucherReward(100)
	reward.MinimumRank = &minRank

	t.Run("rank thấp hơn bị chặn", func(t *testing.T) {
		f := newRedeemFixture(reward, 1000, loyalty.RankSilver)

		_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, model.ErrCodeRankTooLow, appErr.Code)
		assert.Empty(t, f.users.debited)
	})

	t.Run("rank đủ thì qua", func(t *testing.T) {
		f := newRedeemFixture(reward, 1000, loyalty.RankDiamond)

		_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

		assert.NoError(t, err)
	})
}

func TestRedeem_Exhausted(t *testing.T) {
	reward := voucherReward(100)
	reward.Quantity = 5
	reward.Redeemed = 5

	f := newRedeemFixture(reward, 1000, loyalty.RankBronze)

	_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

	assert.Equal(t, model.ErrAppRewardExhausted, err)
}

func TestRedeem_UnlimitedQuantityIgnoresCap(t *testing.T) {
	reward := voucherReward(100)
	reward.Quantity = 0
	reward.Redeemed = 99999
	reward.IsQuantityUnlimited = true

	f := newRedeemFixture(reward, 1000, loyalty.RankBronze)

	_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

	assert.NoError(t, err)
}

func TestRedeem_Unpublished(t *testing.T) {
	reward := voucherReward(100)
	reward.IsPublish = false

	f := newRedeemFixture(reward, 1000, loyalty.RankBronze)

	_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

	assert.Equal(t, model.ErrAppRewardNotFound, err)
}

func TestRedeem_LastUnitRace(t *testing.T) {
	// Pre-check pass nhưng guard SQL fail: lượt cuối vừa bị request khác lấy
	f := newRedeemFixture(voucherReward(100), 1000, loyalty.RankBronze)
	f.repo.incrementErr = model.ErrRewardNotFound

	_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

	assert.Equal(t, model.ErrAppRewardExhausted, err)
	assert.Empty(t, f.repo.created, "không redemption nào được ghi khi counter fail")
}

func TestRedeem_MultiVoucherTemplate(t *testing.T) {
	reward := voucherReward(100)
	reward.Template.VoucherQuantity = 3

	f := newRedeemFixture(reward, 1000, loyalty.RankBronze)

	result, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

	require.NoError(t, err)
	require.Len(t, f.minter.minted, 3)

	// Code đánh suffix -1/-2/-3, redemption link voucher đầu tiên
	for i, v := range f.minter.minted {
		assert.True(t, strings.HasSuffix(v.Code, "-"+string('1'+rune(i))), "got %s", v.Code)
	}
	require.NotNil(t, result.VoucherID)
	assert.Equal(t, f.minter.minted[0].ID, *result.VoucherID)
}

func TestRedeem_ValidityWindow(t *testing.T) {
	t.Run("validity hữu hạn sinh ValidTo", func(t *testing.T) {
		f := newRedeemFixture(voucherReward(100), 1000, loyalty.RankBronze)

		_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

		require.NoError(t, err)
		rd := f.repo.created[0]
		require.NotNil(t, rd.ValidTo)
		assert.WithinDuration(t, rd.ValidFrom.AddDate(0, 0, 7), *rd.ValidTo, time.Second)
	})

	t.Run("validity unlimited thì ValidTo nil và voucher lifetime", func(t *testing.T) {
		reward := voucherReward(100)
		reward.IsValidityUnlimited = true

		f := newRedeemFixture(reward, 1000, loyalty.RankBronze)

		_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

		require.NoError(t, err)
		assert.Nil(t, f.repo.created[0].ValidTo)
		assert.True(t, f.minter.minted[0].IsLifeTime)
	})
}

// ===================================================================
// CONSUME
// ===================================================================

func TestConsume(t *testing.T) {
	mint := func(t *testing.T, f *redeemFixture) string {
		t.Helper()
		result, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)
		require.NoError(t, err)
		return result.Code
	}

	t.Run("consume lần đầu thành công", func(t *testing.T) {
		f := newRedeemFixture(voucherReward(100), 1000, loyalty.RankBronze)
		code := mint(t, f)

		result, err := f.svc.Consume(context.Background(), code)

		require.NoError(t, err)
		assert.Equal(t, f.userID, result.UserID)
		assert.Equal(t, f.reward.ID, result.RewardID)
	})

	t.Run("consume lần hai trả AlreadyUsed", func(t *testing.T) {
		f := newRedeemFixture(voucherReward(100), 1000, loyalty.RankBronze)
		code := mint(t, f)

		_, err := f.svc.Consume(context.Background(), code)
		require.NoError(t, err)

		_, err = f.svc.Consume(context.Background(), code)
		assert.Equal(t, model.ErrAppAlreadyUsed, err)
	})

	t.Run("code không tồn tại", func(t *testing.T) {
		f := newRedeemFixture(voucherReward(100), 1000, loyalty.RankBronze)

		_, err := f.svc.Consume(context.Background(), "KHONGTONTAI1")

		assert.Equal(t, model.ErrAppRedemptionNotFound, err)
	})

	t.Run("code hết hạn", func(t *testing.T) {
		f := newRedeemFixture(voucherReward(100), 1000, loyalty.RankBronze)
		code := mint(t, f)

		expired := time.Now().Add(-time.Hour)
		f.repo.redemptions[code].ValidTo = &expired

		_, err := f.svc.Consume(context.Background(), code)

		assert.Equal(t, model.ErrAppRedemptionExpired, err)
	})
}

func TestRedeem_CodeCollisionExhaustsAttempts(t *testing.T) {
	f := newRedeemFixture(voucherReward(100), 1000, loyalty.RankBronze)
	f.repo.codeAlwaysExists = true

	_, err := f.svc.Redeem(context.Background(), f.userID, f.reward.ID)

	assert.ErrorIs(t, err, model.ErrCodeCollision)
	assert.Empty(t, f.repo.created)
}

// ===================================================================
// CODE GENERATION
// ===================================================================

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	chars := make(map[rune]int)
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)

		assert.Len(t, code, codeLength)
		for _, ch := range code {
			assert.Contains(t, codeAlphabet, string(ch), "ký tự ngoài bảng mã: %c", ch)
			chars[ch]++
		}
		seen[code] = true
	}
	// 200 code 12 ký tự trùng nhau thì RNG có vấn đề nghiêm trọng
	assert.Greater(t, len(seen), 199)

	// 2400 sample đều trên 31 ký tự: mỗi ký tự phải xuất hiện
	// (xác suất vắng mặt ~ e^-77, fail nghĩa là sampling hỏng)
	for _, ch := range codeAlphabet {
		assert.Positive(t, chars[ch], "ký tự %c không bao giờ được sinh", ch)
	}
}
