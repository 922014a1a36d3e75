package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/voucher/model"
	"restaurant-backend/internal/domains/voucher/repository"
	"restaurant-backend/pkg/cache"
	"restaurant-backend/pkg/database"
)

// ===================================================================
// FAKES
// ===================================================================

// fakeVoucherRepo embed interface để chỉ phải implement các method mà
// checkout flow thực sự gọi; method khác panic nếu bị chạm tới.
type fakeVoucherRepo struct {
	repository.VoucherRepository

	vouchers map[uuid.UUID]*model.Voucher

	// incrementErr cho phép mô phỏng guard clause fail (hết lượt dưới lock khác)
	incrementErr map[uuid.UUID]error

	incremented    []uuid.UUID
	consumedGrants []uuid.UUID
	orderVouchers  []*model.OrderVoucher
}

func newFakeRepo(vouchers ...*model.Voucher) *fakeVoucherRepo {
	r := &fakeVoucherRepo{
		vouchers:     make(map[uuid.UUID]*model.Voucher),
		incrementErr: make(map[uuid.UUID]error),
	}
	for _, v := range vouchers {
		r.vouchers[v.ID] = v
	}
	return r
}

func (r *fakeVoucherRepo) ListCandidatesForUser(_ context.Context, _ uuid.UUID) ([]*model.Voucher, error) {
	out := make([]*model.Voucher, 0, len(r.vouchers))
	for _, v := range r.vouchers {
		out = append(out, v)
	}
	return out, nil
}

func (r *fakeVoucherRepo) FindByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*model.Voucher, error) {
	// Cùng contract với repo thật: unpublished không lock được
	v, ok := r.vouchers[id]
	if !ok || !v.IsPublish {
		return nil, model.ErrVoucherNotFound
	}
	return v, nil
}

func (r *fakeVoucherRepo) GetScopeMembership(_ context.Context, _ uuid.UUID) (model.ScopeMembership, error) {
	return model.NewScopeMembership(nil, nil), nil
}

func (r *fakeVoucherRepo) HasUnconsumedGrant(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return false, nil
}

func (r *fakeVoucherRepo) IncrementUsedTx(_ context.Context, _ pgx.Tx, voucherID uuid.UUID) error {
	if err, ok := r.incrementErr[voucherID]; ok {
		return err
	}
	r.incremented = append(r.incremented, voucherID)
	return nil
}

func (r *fakeVoucherRepo) ConsumeGrantTx(_ context.Context, _ pgx.Tx, voucherID, _ uuid.UUID) error {
	r.consumedGrants = append(r.consumedGrants, voucherID)
	return nil
}

func (r *fakeVoucherRepo) CreateOrderVoucherTx(_ context.Context, _ pgx.Tx, ov *model.OrderVoucher) error {
	r.orderVouchers = append(r.orderVouchers, ov)
	return nil
}

// fakeTxManager chạy fn với nil tx: repo đã fake nên không cần connection
type fakeTxManager struct{}

func (fakeTxManager) WithTx(_ context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type fakeOrderStore struct {
	order *CheckoutOrder

	// lockErrs pop dần mỗi lần gọi, mô phỏng serialization failure rồi thành công
	lockErrs []error

	appliedDiscount *decimal.Decimal
	appliedNewTotal *decimal.Decimal
}

func (s *fakeOrderStore) GetPendingForUpdate(_ context.Context, _ pgx.Tx, orderID, userID uuid.UUID) (*CheckoutOrder, error) {
	if len(s.lockErrs) > 0 {
		err := s.lockErrs[0]
		s.lockErrs = s.lockErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if s.order == nil || s.order.ID != orderID || s.order.UserID != userID {
		return nil, errors.New("order not found")
	}
	return s.order, nil
}

func (s *fakeOrderStore) ApplyDiscountTx(_ context.Context, _ pgx.Tx, _ uuid.UUID, discountTotal, newTotal decimal.Decimal) error {
	s.appliedDiscount = &discountTotal
	s.appliedNewTotal = &newTotal
	s.order.DiscountTotal = discountTotal
	return nil
}

type fakeUserStore struct {
	shopper  model.Shopper
	snapshot model.CartSnapshot
}

func (s *fakeUserStore) GetShopper(_ context.Context, _ uuid.UUID) (model.Shopper, error) {
	return s.shopper, nil
}

func (s *fakeUserStore) GetCartSnapshot(_ context.Context, _ uuid.UUID) (model.CartSnapshot, error) {
	return s.snapshot, nil
}

// fakeCache luôn miss, Set/Delete no-op
type fakeCache struct{}

func (fakeCache) Get(_ context.Context, key string, _ interface{}) error {
	return &cache.CacheMissError{Key: key}
}
func (fakeCache) Set(_ context.Context, _ string, _ interface{}, _ time.Duration) error { return nil }
func (fakeCache) Delete(_ context.Context, _ ...string) error                           { return nil }
func (fakeCache) Exists(_ context.Context, _ string) (bool, error)                      { return false, nil }

// ===================================================================
// FIXTURES
// ===================================================================

type checkoutFixture struct {
	svc    VoucherService
	repo   *fakeVoucherRepo
	orders *fakeOrderStore
	users  *fakeUserStore

	userID  uuid.UUID
	orderID uuid.UUID
}

func newCheckoutFixture(orderTotal string, vouchers ...*model.Voucher) *checkoutFixture {
	userID := uuid.New()
	orderID := uuid.New()
	snapshot := snapshotOf(productLine(uuid.New(), "50000", 2))

	repo := newFakeRepo(vouchers...)
	orders := &fakeOrderStore{
		order: &CheckoutOrder{
			ID:       orderID,
			UserID:   userID,
			Total:    dec(orderTotal),
			Snapshot: snapshot,
		},
	}
	users := &fakeUserStore{
		shopper:  model.Shopper{ID: userID, Rank: loyalty.RankBronze, CompletedOrders: 3},
		snapshot: snapshot,
	}

	return &checkoutFixture{
		svc:     NewVoucherService(repo, fakeTxManager{}, fakeCache{}, orders, users),
		repo:    repo,
		orders:  orders,
		users:   users,
		userID:  userID,
		orderID: orderID,
	}
}

func (f *checkoutFixture) apply(ids ...uuid.UUID) (*model.ApplyVouchersResult, error) {
	return f.svc.ApplyVouchersToOrder(context.Background(), f.userID, &model.ApplyVouchersRequest{
		OrderID:    f.orderID,
		VoucherIDs: ids,
	})
}

func stackable(n byte, discount string) *model.Voucher {
	maxCombined := 5
	v := activeVoucher()
	v.ID = voucherID(n)
	v.Code = fmt.Sprintf("STACK%d", n)
	v.Discount = dec(discount)
	v.HasCombinedUsageLimit = true
	v.MaxCombinedUsageCount = &maxCombined
	return v
}

func appErrCode(t *testing.T, err error) model.ErrorCode {
	t.Helper()
	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

// ===================================================================
// PREVIEW
// ===================================================================

func TestGetApplicableVouchers(t *testing.T) {
	t.Run("cart rỗng trả danh sách rỗng", func(t *testing.T) {
		f := newCheckoutFixture("100000", stackable(1, "10000"))
		f.users.snapshot = model.CartSnapshot{}

		options, err := f.svc.GetApplicableVouchers(context.Background(), f.userID, evalNow)

		require.NoError(t, err)
		assert.Empty(t, options)
	})

	t.Run("chỉ voucher eligible xuất hiện, sort theo discount giảm dần", func(t *testing.T) {
		small := stackable(1, "5000")
		big := stackable(2, "20000")
		expired := stackable(3, "99999")
		expired.IsLifeTime = false
		end := evalNow.Add(-time.Hour)
		expired.EndTime = &end

		f := newCheckoutFixture("100000", small, big, expired)

		options, err := f.svc.GetApplicableVouchers(context.Background(), f.userID, evalNow)

		require.NoError(t, err)
		require.Len(t, options, 2)
		assert.Equal(t, big.ID, options[0].VoucherID)
		assert.Equal(t, small.ID, options[1].VoucherID)
		assert.True(t, dec("20000").Equal(options[0].DiscountAmount))
	})

	t.Run("preview không đụng counter", func(t *testing.T) {
		f := newCheckoutFixture("100000", stackable(1, "10000"))

		_, err := f.svc.GetApplicableVouchers(context.Background(), f.userID, evalNow)

		require.NoError(t, err)
		assert.Empty(t, f.repo.incremented)
	})
}

// ===================================================================
// APPLY
// ===================================================================

func TestApplyVouchersToOrder_HappyPath(t *testing.T) {
	a := stackable(1, "10000")
	b := stackable(2, "20000")
	f := newCheckoutFixture("100000", a, b)

	result, err := f.apply(a.ID, b.ID)

	require.NoError(t, err)
	require.Len(t, result.AppliedDiscounts, 2)
	assert.True(t, dec("30000").Equal(result.DiscountTotal), "got %s", result.DiscountTotal)
	assert.True(t, dec("70000").Equal(result.NewOrderTotal), "got %s", result.NewOrderTotal)

	// Side effects: counter, grant, snapshot và order totals đều được ghi
	assert.Len(t, f.repo.incremented, 2)
	assert.Len(t, f.repo.orderVouchers, 2)
	require.NotNil(t, f.orders.appliedDiscount)
	assert.True(t, dec("30000").Equal(*f.orders.appliedDiscount))
	assert.True(t, dec("70000").Equal(*f.orders.appliedNewTotal))
}

func TestApplyVouchersToOrder_Validation(t *testing.T) {
	f := newCheckoutFixture("100000")

	_, err := f.apply() // không chọn voucher nào

	assert.Equal(t, model.ErrCodeValidationFailed, appErrCode(t, err))
}

func TestApplyVouchersToOrder_VoucherNotFound(t *testing.T) {
	f := newCheckoutFixture("100000")

	_, err := f.apply(uuid.New())

	assert.Equal(t, model.ErrCodeVoucherNotFound, appErrCode(t, err))
}

func TestApplyVouchersToOrder_IneligibleAtApplyTime(t *testing.T) {
	// Preview có thể đã pass, nhưng apply re-evaluate với state hiện tại
	v := stackable(1, "10000")
	v.Quantity = 1
	v.Used = 1

	f := newCheckoutFixture("100000", v)

	_, err := f.apply(v.ID)

	assert.Equal(t, model.ErrCodeVoucherExhausted, appErrCode(t, err))
	assert.Empty(t, f.repo.incremented)
}

func TestApplyVouchersToOrder_CombinationRejected(t *testing.T) {
	// Hai voucher không cộng dồn: cả request fail, không apply một phần
	a := activeVoucher()
	a.ID = voucherID(1)
	b := activeVoucher()
	b.ID = voucherID(2)

	f := newCheckoutFixture("100000", a, b)

	_, err := f.apply(a.ID, b.ID)

	assert.Equal(t, model.ErrCodeCombinationLimit, appErrCode(t, err))
	assert.Empty(t, f.repo.incremented)
	assert.Nil(t, f.orders.appliedDiscount)
}

func TestApplyVouchersToOrder_ExhaustedUnderConcurrentLock(t *testing.T) {
	// Guard clause của UPDATE fail: lượt cuối vừa bị checkout khác lấy mất
	a := stackable(1, "10000")
	b := stackable(2, "20000")

	f := newCheckoutFixture("100000", a, b)
	f.repo.incrementErr[b.ID] = model.ErrVoucherNotFound

	_, err := f.apply(a.ID, b.ID)

	assert.Equal(t, model.ErrCodeVoucherExhausted, appErrCode(t, err))
	assert.Nil(t, f.orders.appliedDiscount, "order totals không được ghi khi request fail")
}

func TestApplyVouchersToOrder_RepeatApplyRejected(t *testing.T) {
	// Client retry cùng request trên đơn đã apply: không được tiêu thêm
	// lượt voucher hay ghi đè discount đã chốt
	a := stackable(1, "10000")
	b := stackable(2, "20000")
	f := newCheckoutFixture("100000", a, b)

	_, err := f.apply(a.ID)
	require.NoError(t, err)

	_, err = f.apply(a.ID)
	assert.Equal(t, model.ErrCodeOrderNotPending, appErrCode(t, err))

	_, err = f.apply(b.ID)
	assert.Equal(t, model.ErrCodeOrderNotPending, appErrCode(t, err), "apply voucher khác trên đơn đã apply cũng bị chặn")

	// Chỉ lần apply đầu để lại side effect
	assert.Len(t, f.repo.incremented, 1)
	assert.Len(t, f.repo.orderVouchers, 1)
	assert.True(t, dec("10000").Equal(*f.orders.appliedDiscount))
}

func TestApplyVouchersToOrder_UnpublishedVoucherRejected(t *testing.T) {
	// Admin unpublish giữa preview và checkout: apply theo ID phải fail
	v := stackable(1, "10000")
	v.IsPublish = false

	f := newCheckoutFixture("100000", v)

	_, err := f.apply(v.ID)

	assert.Equal(t, model.ErrCodeVoucherNotFound, appErrCode(t, err))
	assert.Empty(t, f.repo.incremented)
}

func TestApplyVouchersToOrder_DuplicateIDsDeduped(t *testing.T) {
	v := stackable(1, "10000")
	f := newCheckoutFixture("100000", v)

	result, err := f.apply(v.ID, v.ID, v.ID)

	require.NoError(t, err)
	assert.Len(t, result.AppliedDiscounts, 1)
	assert.Len(t, f.repo.incremented, 1)
}

func TestApplyVouchersToOrder_RetryOnSerializationFailure(t *testing.T) {
	v := stackable(1, "10000")
	f := newCheckoutFixture("100000", v)
	f.orders.lockErrs = []error{
		&pgconn.PgError{Code: "40001"},
		nil,
	}

	result, err := f.apply(v.ID)

	require.NoError(t, err, "serialization failure phải được retry trong suốt")
	assert.True(t, dec("10000").Equal(result.DiscountTotal))
}

func TestApplyVouchersToOrder_RetriesExhausted(t *testing.T) {
	v := stackable(1, "10000")
	f := newCheckoutFixture("100000", v)
	f.orders.lockErrs = []error{
		&pgconn.PgError{Code: "40P01"},
		&pgconn.PgError{Code: "40P01"},
		&pgconn.PgError{Code: "40P01"},
	}

	_, err := f.apply(v.ID)

	assert.Equal(t, model.ErrAppConcurrencyConflict, err)
}

func TestApplyVouchersToOrder_DiscountNeverExceedsTotal(t *testing.T) {
	a := stackable(1, "80000")
	b := stackable(2, "80000")
	f := newCheckoutFixture("100000", a, b)

	result, err := f.apply(a.ID, b.ID)

	require.NoError(t, err)
	assert.True(t, dec("100000").Equal(result.DiscountTotal), "got %s", result.DiscountTotal)
	assert.True(t, result.NewOrderTotal.IsZero(), "got %s", result.NewOrderTotal)
}
