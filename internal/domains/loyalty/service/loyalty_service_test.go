package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-backend/internal/config"
	loyalty "restaurant-backend/internal/domains/loyalty/model"
	ordermodel "restaurant-backend/internal/domains/order/model"
	orderrepo "restaurant-backend/internal/domains/order/repository"
	usermodel "restaurant-backend/internal/domains/user/model"
	userrepo "restaurant-backend/internal/domains/user/repository"
	"restaurant-backend/pkg/database"
)

// ===================================================================
// FAKES
// ===================================================================

type fakeOrderRepo struct {
	orderrepo.OrderRepository

	order *ordermodel.Order

	loyaltyAppliedSet bool
}

func (r *fakeOrderRepo) FindByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*ordermodel.Order, error) {
	if r.order == nil || r.order.ID != id {
		return nil, ordermodel.ErrOrderNotFound
	}
	return r.order, nil
}

func (r *fakeOrderRepo) SetLoyaltyAppliedTx(_ context.Context, _ pgx.Tx, _ uuid.UUID) error {
	r.loyaltyAppliedSet = true
	r.order.LoyaltyRewardsApplied = true
	return nil
}

type fakeUserRepo struct {
	userrepo.UserRepository

	user *usermodel.User

	accruedPoints int64
	accruedExp    int64
	accruedRank   loyalty.Rank
	accrualCalls  int
}

func (r *fakeUserRepo) FindByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*usermodel.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, usermodel.ErrUserNotFound
	}
	return r.user, nil
}

func (r *fakeUserRepo) ApplyAccrualTx(_ context.Context, _ pgx.Tx, _ uuid.UUID, points, exp int64, rank loyalty.Rank) error {
	r.accruedPoints = points
	r.accruedExp = exp
	r.accruedRank = rank
	r.accrualCalls++
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) WithTx(_ context.Context, fn database.TxFunc) error {
	return fn(nil)
}

// ===================================================================
// FIXTURES
// ===================================================================

func accrualConfig() config.LoyaltyConfig {
	return config.LoyaltyConfig{
		PointRate:      decimal.NewFromFloat(0.01),
		ExpRate:        decimal.NewFromFloat(0.01),
		RankThresholds: []int64{100, 500, 2000, 5000, 12000, 30000},
	}
}

type accrualFixture struct {
	svc    LoyaltyService
	orders *fakeOrderRepo
	users  *fakeUserRepo

	orderID uuid.UUID
}

func newAccrualFixture(total string, user *usermodel.User) *accrualFixture {
	orderID := uuid.New()
	orders := &fakeOrderRepo{
		order: &ordermodel.Order{
			ID:     orderID,
			UserID: user.ID,
			Status: ordermodel.StatusCompleted,
			Total:  decimal.RequireFromString(total),
		},
	}
	users := &fakeUserRepo{user: user}

	return &accrualFixture{
		svc:     NewLoyaltyService(orders, users, fakeTxManager{}, accrualConfig()),
		orders:  orders,
		users:   users,
		orderID: orderID,
	}
}

func shopper(exp int64, rank loyalty.Rank, booster string) *usermodel.User {
	return &usermodel.User{
		ID:      uuid.New(),
		Exp:     exp,
		Rank:    rank,
		Booster: decimal.RequireFromString(booster),
	}
}

// ===================================================================
// TESTS
// ===================================================================

func TestAccrueLoyalty_HappyPath(t *testing.T) {
	// total 150000 * rate 0.01 = 1500 point và 1500 exp
	user := shopper(0, loyalty.RankPotential, "1")
	f := newAccrualFixture("150000", user)

	result, err := f.svc.AccrueLoyalty(context.Background(), f.orderID)

	require.NoError(t, err)
	assert.False(t, result.AlreadyApplied)
	assert.Equal(t, int64(1500), result.PointsEarned)
	assert.Equal(t, int64(1500), result.ExpEarned)
	// exp 1500 nằm trong [500, 2000) -> Silver
	assert.Equal(t, loyalty.RankSilver, result.NewRank)

	assert.Equal(t, int64(1500), f.users.accruedPoints)
	assert.True(t, f.orders.loyaltyAppliedSet, "guard flag phải được set cùng transaction")
}

func TestAccrueLoyalty_BoosterMultiplies(t *testing.T) {
	// 150000 * 0.01 * 1.5 = 2250
	user := shopper(0, loyalty.RankPotential, "1.5")
	f := newAccrualFixture("150000", user)

	result, err := f.svc.AccrueLoyalty(context.Background(), f.orderID)

	require.NoError(t, err)
	assert.Equal(t, int64(2250), result.PointsEarned)
	assert.Equal(t, int64(2250), result.ExpEarned)
}

func TestAccrueLoyalty_FloorsFractionalPoints(t *testing.T) {
	// 12345 * 0.01 = 123.45 -> floor 123
	user := shopper(0, loyalty.RankPotential, "1")
	f := newAccrualFixture("12345", user)

	result, err := f.svc.AccrueLoyalty(context.Background(), f.orderID)

	require.NoError(t, err)
	assert.Equal(t, int64(123), result.PointsEarned)
}

func TestAccrueLoyalty_Idempotent(t *testing.T) {
	user := shopper(0, loyalty.RankPotential, "1")
	f := newAccrualFixture("150000", user)

	first, err := f.svc.AccrueLoyalty(context.Background(), f.orderID)
	require.NoError(t, err)
	require.False(t, first.AlreadyApplied)

	second, err := f.svc.AccrueLoyalty(context.Background(), f.orderID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyApplied)
	assert.Zero(t, second.PointsEarned)

	assert.Equal(t, 1, f.users.accrualCalls, "retry không được cộng kép")
}

func TestAccrueLoyalty_RankNeverDecreases(t *testing.T) {
	// User đang Diamond nhưng exp thấp (ví dụ migration cũ): rank giữ nguyên
	user := shopper(100, loyalty.RankDiamond, "1")
	f := newAccrualFixture("10000", user)

	result, err := f.svc.AccrueLoyalty(context.Background(), f.orderID)

	require.NoError(t, err)
	assert.Equal(t, loyalty.RankDiamond, result.NewRank)
	assert.Equal(t, loyalty.RankDiamond, f.users.accruedRank)
}

func TestAccrueLoyalty_RankPromotion(t *testing.T) {
	// exp 1900 + 150 = 2050 vượt ngưỡng Gold (2000)
	user := shopper(1900, loyalty.RankSilver, "1")
	f := newAccrualFixture("15000", user)

	result, err := f.svc.AccrueLoyalty(context.Background(), f.orderID)

	require.NoError(t, err)
	assert.Equal(t, loyalty.RankGold, result.NewRank)
}

func TestAccrueLoyalty_RequiresCompletedOrder(t *testing.T) {
	user := shopper(0, loyalty.RankPotential, "1")
	f := newAccrualFixture("150000", user)
	f.orders.order.Status = ordermodel.StatusPending

	_, err := f.svc.AccrueLoyalty(context.Background(), f.orderID)

	require.Error(t, err)
	assert.Zero(t, f.users.accrualCalls)
	assert.False(t, f.orders.loyaltyAppliedSet)
}

func TestAccrueLoyalty_OrderNotFound(t *testing.T) {
	user := shopper(0, loyalty.RankPotential, "1")
	f := newAccrualFixture("150000", user)

	_, err := f.svc.AccrueLoyalty(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ordermodel.ErrOrderNotFound)
}
