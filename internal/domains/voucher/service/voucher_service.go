package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/voucher/model"
	"restaurant-backend/internal/domains/voucher/repository"
	"restaurant-backend/pkg/cache"
	"restaurant-backend/pkg/database"
	"restaurant-backend/pkg/logger"
)

const (
	publishedCacheKey = "vouchers:published"
	publishedCacheTTL = 5 * time.Minute

	// Số lần retry khi PostgreSQL báo serialization failure / deadlock
	applyMaxAttempts = 3
)

type voucherService struct {
	repo   repository.VoucherRepository
	txm    database.TxManager
	cache  cache.Cache
	orders OrderStore
	users  UserStore
	calc   *DiscountCalculator
}

// NewVoucherService tạo voucher service với dependencies
func NewVoucherService(
	repo repository.VoucherRepository,
	txm database.TxManager,
	c cache.Cache,
	orders OrderStore,
	users UserStore,
) VoucherService {
	return &voucherService{
		repo:   repo,
		txm:    txm,
		cache:  c,
		orders: orders,
		users:  users,
		calc:   NewDiscountCalculator(),
	}
}

// ===================================================================
// CHECKOUT FLOW
// ===================================================================

// GetApplicableVouchers đánh giá mọi voucher candidate với cart hiện tại
// của user và trả về các option eligible kèm discount ước tính.
//
// Đây là preview thuần read-only: không counter nào thay đổi, và kết quả
// KHÔNG phải reservation — voucher có thể hết lượt trước khi user đặt đơn.
func (s *voucherService) GetApplicableVouchers(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.CheckoutVoucherOption, error) {
	// Step 1: load shopper profile và cart snapshot
	shopper, err := s.users.GetShopper(ctx, userID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.users.GetCartSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Lines) == 0 {
		return []*model.CheckoutVoucherOption{}, nil
	}

	// Step 2: load candidates (general published + user-targeted của user)
	candidates, err := s.repo.ListCandidatesForUser(ctx, userID)
	if err != nil {
		logger.Error("failed to list voucher candidates", err)
		return nil, err
	}

	// Step 3: evaluate từng voucher, giữ lại voucher eligible
	options := make([]*model.CheckoutVoucherOption, 0, len(candidates))
	for _, v := range candidates {
		membership, hasGrant, err := s.loadEvaluationState(ctx, v, userID)
		if err != nil {
			return nil, err
		}

		result := Evaluate(EvaluationInput{
			Shopper:    shopper,
			Voucher:    v,
			Membership: membership,
			HasGrant:   hasGrant,
			Snapshot:   snapshot,
			Now:        now,
		})
		if !result.Eligible {
			continue
		}

		amount := s.calc.Calculate(v, result.EligibleSubtotal)
		options = append(options, &model.CheckoutVoucherOption{
			VoucherID:        v.ID,
			Code:             v.Code,
			Name:             v.Name,
			Description:      v.Description,
			DiscountType:     v.DiscountType,
			Discount:         v.Discount,
			DiscountAmount:   amount,
			EligibleSubtotal: result.EligibleSubtotal,
			EndTime:          v.EndTime,
			IsLifeTime:       v.IsLifeTime,
		})
	}

	// Discount lớn nhất lên đầu cho UI
	sort.Slice(options, func(i, j int) bool {
		return options[i].DiscountAmount.GreaterThan(options[j].DiscountAmount)
	})

	return options, nil
}

// ApplyVouchersToOrder chốt các voucher đã chọn vào một đơn pending.
//
// Toàn bộ chạy trong MỘT transaction với row lock:
//  1. Lock order row, kiểm tra ownership + trạng thái pending + chưa từng
//     apply (client retry trên đơn đã có discount bị từ chối, không tiêu
//     thêm lượt voucher)
//  2. Lock từng voucher row theo thứ tự id tăng dần (tránh deadlock chéo)
//  3. Re-evaluate eligibility với state hiện tại — không tin preview cũ
//  4. Resolve combination rules trên toàn bộ selection
//  5. Increment used counter (guarded), consume grant, ghi snapshot discount
//  6. Cập nhật order totals
//
// All-or-nothing: một voucher fail là cả request fail, không apply một phần.
// Serialization failure và deadlock được retry tối đa applyMaxAttempts lần.
func (s *voucherService) ApplyVouchersToOrder(ctx context.Context, userID uuid.UUID, req *model.ApplyVouchersRequest) (*model.ApplyVouchersResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	voucherIDs := dedupeIDs(req.VoucherIDs)
	// Lock theo thứ tự cố định để hai checkout chéo voucher không deadlock nhau
	sort.Slice(voucherIDs, func(i, j int) bool {
		return voucherIDs[i].String() < voucherIDs[j].String()
	})

	var result *model.ApplyVouchersResult
	var err error
	for attempt := 1; attempt <= applyMaxAttempts; attempt++ {
		result, err = s.applyOnce(ctx, userID, req.OrderID, voucherIDs)
		if err == nil {
			return result, nil
		}
		if !database.IsConcurrencyConflict(err) {
			return nil, err
		}

		logger.Warn("voucher apply hit concurrency conflict, retrying", map[string]interface{}{
			"order_id": req.OrderID,
			"attempt":  attempt,
		})
	}

	return nil, model.ErrAppConcurrencyConflict
}

func (s *voucherService) applyOnce(ctx context.Context, userID, orderID uuid.UUID, voucherIDs []uuid.UUID) (*model.ApplyVouchersResult, error) {
	shopper, err := s.users.GetShopper(ctx, userID)
	if err != nil {
		return nil, err
	}

	var result *model.ApplyVouchersResult
	err = s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		// Step 1: lock order, validate trạng thái
		order, err := s.orders.GetPendingForUpdate(ctx, tx, orderID, userID)
		if err != nil {
			return err
		}
		if order.DiscountTotal.IsPositive() {
			// Đơn đã qua apply: chạy lại sẽ tiêu lượt voucher lần hai và
			// ghi đè discount cũ, nên chặn ngay dưới lock
			return model.ErrAppVouchersApplied
		}

		// Step 2+3: lock từng voucher và re-evaluate
		now := time.Now()
		candidates := make([]Candidate, 0, len(voucherIDs))
		for _, id := range voucherIDs {
			v, err := s.repo.FindByIDForUpdate(ctx, tx, id)
			if err != nil {
				if errors.Is(err, model.ErrVoucherNotFound) {
					return model.ErrAppVoucherNotFound
				}
				return err
			}

			membership, hasGrant, err := s.loadEvaluationState(ctx, v, userID)
			if err != nil {
				return err
			}

			res := Evaluate(EvaluationInput{
				Shopper:    shopper,
				Voucher:    v,
				Membership: membership,
				HasGrant:   hasGrant,
				Snapshot:   order.Snapshot,
				Now:        now,
			})
			if !res.Eligible {
				return res.Reason.ToAppError()
			}

			candidates = append(candidates, Candidate{
				Voucher:          v,
				EligibleSubtotal: res.EligibleSubtotal,
			})
		}

		// Step 4: combination rules trên toàn bộ selection
		combo := ResolveCombination(candidates, order.Total, s.calc)
		if len(combo.Rejected) > 0 {
			return combo.Rejected[0].Reason.ToAppError()
		}

		// Step 5: commit side effects cho từng voucher accepted
		applied := make([]model.AppliedDiscount, 0, len(combo.Accepted))
		discountTotal := decimal.Zero
		for _, a := range combo.Accepted {
			if err := s.repo.IncrementUsedTx(ctx, tx, a.Voucher.ID); err != nil {
				if errors.Is(err, model.ErrVoucherNotFound) {
					// Guard clause fail: voucher vừa hết lượt dưới lock khác
					return (&model.Denial{
						Code:    model.ErrCodeVoucherExhausted,
						Message: "Mã giảm giá đã hết lượt sử dụng",
					}).ToAppError()
				}
				return err
			}

			if err := s.repo.ConsumeGrantTx(ctx, tx, a.Voucher.ID, userID); err != nil {
				return err
			}

			ov := &model.OrderVoucher{
				OrderID:        order.ID,
				VoucherID:      a.Voucher.ID,
				DiscountAmount: a.DiscountAmount,
			}
			if err := s.repo.CreateOrderVoucherTx(ctx, tx, ov); err != nil {
				return err
			}

			applied = append(applied, model.AppliedDiscount{
				VoucherID:      a.Voucher.ID,
				Code:           a.Voucher.Code,
				DiscountAmount: a.DiscountAmount,
			})
			discountTotal = discountTotal.Add(a.DiscountAmount)
		}

		// Step 6: cập nhật order totals. Combiner đã clamp nên không âm,
		// floor ở 0 là safety net cuối.
		newTotal := order.Total.Sub(discountTotal)
		if newTotal.IsNegative() {
			newTotal = decimal.Zero
		}
		if err := s.orders.ApplyDiscountTx(ctx, tx, order.ID, discountTotal, newTotal); err != nil {
			return err
		}

		result = &model.ApplyVouchersResult{
			AppliedDiscounts: applied,
			DiscountTotal:    discountTotal,
			NewOrderTotal:    newTotal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("vouchers applied to order", map[string]interface{}{
		"order_id":       orderID,
		"user_id":        userID,
		"voucher_count":  len(result.AppliedDiscounts),
		"discount_total": result.DiscountTotal,
	})

	return result, nil
}

// loadEvaluationState prefetch scope membership và grant status cho evaluator
func (s *voucherService) loadEvaluationState(ctx context.Context, v *model.Voucher, userID uuid.UUID) (model.ScopeMembership, bool, error) {
	var membership model.ScopeMembership
	if v.ProductScope == model.ScopeSpecific || v.ComboScope == model.ScopeSpecific {
		m, err := s.repo.GetScopeMembership(ctx, v.ID)
		if err != nil {
			return model.ScopeMembership{}, false, err
		}
		membership = m
	}

	hasGrant := false
	if v.Type == model.VoucherTypeUserTargeted {
		g, err := s.repo.HasUnconsumedGrant(ctx, v.ID, userID)
		if err != nil {
			return model.ScopeMembership{}, false, err
		}
		hasGrant = g
	}

	return membership, hasGrant, nil
}

// ===================================================================
// STOREFRONT
// ===================================================================

// ListPublished trả về voucher công khai, cache 5 phút
func (s *voucherService) ListPublished(ctx context.Context) ([]*model.Voucher, error) {
	var cached []*model.Voucher
	if err := s.cache.Get(ctx, publishedCacheKey, &cached); err == nil {
		return cached, nil
	}

	vouchers, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, publishedCacheKey, vouchers, publishedCacheTTL); err != nil {
		// Cache fail không chặn response
		logger.Warn("failed to cache published vouchers", map[string]interface{}{"error": err.Error()})
	}

	return vouchers, nil
}

func (s *voucherService) SaveVoucher(ctx context.Context, userID, voucherID uuid.UUID) error {
	v, err := s.repo.FindByID(ctx, voucherID)
	if err != nil {
		if errors.Is(err, model.ErrVoucherNotFound) {
			return model.ErrAppVoucherNotFound
		}
		return err
	}
	if !v.IsPublish {
		return model.ErrAppVoucherNotFound
	}

	return s.repo.SaveForUser(ctx, voucherID, userID)
}

func (s *voucherService) ListSavedVouchers(ctx context.Context, userID uuid.UUID) ([]*model.Voucher, error) {
	return s.repo.ListSavedForUser(ctx, userID)
}

// ===================================================================
// ADMIN
// ===================================================================

func (s *voucherService) CreateVoucher(ctx context.Context, createdBy uuid.UUID, req *model.CreateVoucherRequest) (*model.Voucher, error) {
	req.NormalizeCode()
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	// Check duplicate code
	exists, err := s.repo.CheckCodeExists(ctx, req.Code, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &model.AppError{
			Code:       model.ErrCodeDuplicateCode,
			Message:    fmt.Sprintf("Mã voucher '%s' đã tồn tại", req.Code),
			HTTPStatus: 400,
		}
	}

	v, err := buildVoucherFromRequest(req)
	if err != nil {
		return nil, err
	}
	v.CreatedBy = &createdBy

	if err := s.repo.Create(ctx, v, req.ProductIDs, req.ComboIDs); err != nil {
		logger.Error("failed to create voucher", err)
		return nil, err
	}

	s.invalidatePublishedCache(ctx)

	logger.Info("voucher created", map[string]interface{}{
		"voucher_id": v.ID,
		"code":       v.Code,
	})

	return v, nil
}

func (s *voucherService) UpdateVoucher(ctx context.Context, id uuid.UUID, req *model.UpdateVoucherRequest) (*model.Voucher, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrVoucherNotFound) {
			return nil, model.ErrAppVoucherNotFound
		}
		return nil, err
	}

	applyUpdate(v, req)

	if err := s.repo.Update(ctx, v); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			return nil, model.ErrAppConcurrencyConflict
		}
		return nil, err
	}

	s.invalidatePublishedCache(ctx)
	return v, nil
}

func (s *voucherService) DeleteVoucher(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, model.ErrVoucherNotFound) {
			return model.ErrAppVoucherNotFound
		}
		return err
	}

	s.invalidatePublishedCache(ctx)
	return nil
}

func (s *voucherService) GetVoucher(ctx context.Context, id uuid.UUID) (*model.Voucher, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrVoucherNotFound) {
			return nil, model.ErrAppVoucherNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *voucherService) ListVouchers(ctx context.Context, filter *model.ListVouchersFilter) ([]*model.Voucher, int, error) {
	return s.repo.ListAdmin(ctx, filter)
}

func (s *voucherService) invalidatePublishedCache(ctx context.Context) {
	if err := s.cache.Delete(ctx, publishedCacheKey); err != nil {
		logger.Warn("failed to invalidate voucher cache", map[string]interface{}{"error": err.Error()})
	}
}

// ===================================================================
// HELPERS
// ===================================================================

func buildVoucherFromRequest(req *model.CreateVoucherRequest) (*model.Voucher, error) {
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    "start_time phải theo định dạng RFC3339",
			HTTPStatus: 400,
		}
	}

	var endTime *time.Time
	if req.EndTime != nil && !req.IsLifeTime {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return nil, &model.AppError{
				Code:       model.ErrCodeValidationFailed,
				Message:    "end_time phải theo định dạng RFC3339",
				HTTPStatus: 400,
			}
		}
		if !t.After(startTime) {
			return nil, &model.AppError{
				Code:       model.ErrCodeValidationFailed,
				Message:    "end_time phải sau start_time",
				HTTPStatus: 400,
			}
		}
		endTime = &t
	}

	var minimumRank *loyalty.Rank
	if req.MinimumRank != nil {
		rank, err := loyalty.ParseRank(*req.MinimumRank)
		if err != nil {
			return nil, &model.AppError{
				Code:       model.ErrCodeValidationFailed,
				Message:    fmt.Sprintf("Hạng '%s' không hợp lệ", *req.MinimumRank),
				HTTPStatus: 400,
			}
		}
		minimumRank = &rank
	}

	var maxReduction *decimal.Decimal
	if req.MaximumPercentageReduction != nil {
		d := decimal.NewFromFloat(*req.MaximumPercentageReduction)
		maxReduction = &d
	}

	return &model.Voucher{
		ID:          uuid.New(),
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Type:        model.VoucherType(req.Type),

		ProductScope: model.ScopeKind(req.ProductScope),
		ComboScope:   model.ScopeKind(req.ComboScope),

		DiscountType:                model.DiscountType(req.DiscountType),
		Discount:                    decimal.NewFromFloat(req.Discount),
		UnlimitedPercentageDiscount: req.UnlimitedPercentageDiscount,
		MaximumPercentageReduction:  maxReduction,

		Quantity: req.Quantity,

		StartTime:  startTime,
		EndTime:    endTime,
		IsLifeTime: req.IsLifeTime,

		MinimumRequirements: decimal.NewFromFloat(req.MinimumRequirements),
		IsForNewUsersOnly:   req.IsForNewUsersOnly,
		MinimumRank:         minimumRank,

		HasCombinedUsageLimit: req.HasCombinedUsageLimit,
		MaxCombinedUsageCount: req.MaxCombinedUsageCount,

		IsPublish: req.IsPublish,
		IsShow:    req.IsShow,
	}, nil
}

func applyUpdate(v *model.Voucher, req *model.UpdateVoucherRequest) {
	if req.Name != nil {
		v.Name = *req.Name
	}
	if req.Description != nil {
		v.Description = req.Description
	}
	if req.Quantity != nil {
		v.Quantity = *req.Quantity
	}
	if req.EndTime != nil {
		if t, err := time.Parse(time.RFC3339, *req.EndTime); err == nil {
			v.EndTime = &t
		}
	}
	if req.IsLifeTime != nil {
		v.IsLifeTime = *req.IsLifeTime
	}
	if req.MinimumRequirements != nil {
		v.MinimumRequirements = decimal.NewFromFloat(*req.MinimumRequirements)
	}
	if req.MaximumPercentageReduction != nil {
		d := decimal.NewFromFloat(*req.MaximumPercentageReduction)
		v.MaximumPercentageReduction = &d
	}
	if req.IsPublish != nil {
		v.IsPublish = *req.IsPublish
	}
	if req.IsShow != nil {
		v.IsShow = *req.IsShow
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
