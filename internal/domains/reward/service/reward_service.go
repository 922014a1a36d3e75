package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/reward/model"
	"restaurant-backend/internal/domains/reward/repository"
	usermodel "restaurant-backend/internal/domains/user/model"
	vouchermodel "restaurant-backend/internal/domains/voucher/model"
	"restaurant-backend/pkg/database"
	"restaurant-backend/pkg/logger"
)

const (
	redeemMaxAttempts  = 3
	codeGenMaxAttempts = 5
)

// UserStore là phần user domain mà redemption engine cần:
// đọc dưới lock và trừ điểm có guard.
type UserStore interface {
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*usermodel.User, error)
	DebitPointsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, cost int64) error
}

// VoucherMinter mint voucher row trong transaction của redemption
type VoucherMinter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, v *vouchermodel.Voucher) error
}

// RewardService là business logic của reward domain
type RewardService interface {
	// Redemption engine
	Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*model.RedeemResult, error)
	Consume(ctx context.Context, code string) (*model.ConsumeResult, error)

	// Storefront
	ListPublished(ctx context.Context) ([]*model.Reward, error)
	ListMyRedemptions(ctx context.Context, userID uuid.UUID) ([]*model.RewardRedemption, error)

	// Admin
	CreateReward(ctx context.Context, createdBy uuid.UUID, req *model.CreateRewardRequest) (*model.Reward, error)
	UpdateReward(ctx context.Context, id uuid.UUID, req *model.UpdateRewardRequest) (*model.Reward, error)
	DeleteReward(ctx context.Context, id uuid.UUID) error
}

type rewardService struct {
	repo     repository.RewardRepository
	txm      database.TxManager
	users    UserStore
	vouchers VoucherMinter
}

func NewRewardService(
	repo repository.RewardRepository,
	txm database.TxManager,
	users UserStore,
	vouchers VoucherMinter,
) RewardService {
	return &rewardService{repo: repo, txm: txm, users: users, vouchers: vouchers}
}

// ===================================================================
// REDEMPTION ENGINE
// ===================================================================

// Redeem đổi điểm lấy một redemption code.
//
// Toàn bộ trong MỘT transaction:
//  1. Lock user row, lock reward row
//  2. Validate: publish, rank gate, quantity gate, đủ điểm
//  3. Trừ điểm (guarded), tăng redeemed (guarded)
//  4. Sinh code unique (collision-checked), tính validity window
//  5. Mint voucher từ template nếu reward loại voucher
//  6. Ghi redemption row
//
// Fail ở bất kỳ bước nào là rollback tất cả — không bao giờ để user
// mất điểm mà không có code.
func (s *rewardService) Redeem(ctx context.Context, userID, rewardID uuid.UUID) (*model.RedeemResult, error) {
	var result *model.RedeemResult
	var err error

	for attempt := 1; attempt <= redeemMaxAttempts; attempt++ {
		result, err = s.redeemOnce(ctx, userID, rewardID)
		if err == nil {
			return result, nil
		}
		if !database.IsConcurrencyConflict(err) {
			return nil, err
		}

		logger.Warn("reward redeem hit concurrency conflict, retrying", map[string]interface{}{
			"reward_id": rewardID,
			"attempt":   attempt,
		})
	}

	return nil, model.ErrAppConcurrencyConflict
}

func (s *rewardService) redeemOnce(ctx context.Context, userID, rewardID uuid.UUID) (*model.RedeemResult, error) {
	var result *model.RedeemResult

	err := s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		// Step 1: lock user trước reward (thứ tự cố định tránh deadlock)
		user, err := s.users.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		reward, err := s.repo.FindByIDForUpdate(ctx, tx, rewardID)
		if err != nil {
			if errors.Is(err, model.ErrRewardNotFound) {
				return model.ErrAppRewardNotFound
			}
			return err
		}

		// Step 2: gates
		if !reward.IsPublish {
			return model.ErrAppRewardNotFound
		}
		if reward.MinimumRank != nil && !user.Rank.AtLeast(*reward.MinimumRank) {
			return &model.AppError{
				Code:    model.ErrCodeRankTooLow,
				Message: fmt.Sprintf("Yêu cầu hạng %s trở lên", reward.MinimumRank.String()),
				Details: map[string]interface{}{
					"minimum_rank": reward.MinimumRank.String(),
					"current_rank": user.Rank.String(),
				},
				HTTPStatus: 400,
			}
		}
		if reward.IsExhausted() {
			return model.ErrAppRewardExhausted
		}
		if user.Point < reward.PointCost {
			return &model.AppError{
				Code:    model.ErrCodeInsufficientPoints,
				Message: "Không đủ điểm để đổi phần thưởng này",
				Details: map[string]interface{}{
					"point_cost":    reward.PointCost,
					"current_point": user.Point,
					"needed_point":  reward.PointCost - user.Point,
				},
				HTTPStatus: 400,
			}
		}

		// Step 3: mutate counters với guard SQL
		if err := s.users.DebitPointsTx(ctx, tx, userID, reward.PointCost); err != nil {
			if errors.Is(err, usermodel.ErrInsufficientPoints) {
				return &model.AppError{
					Code:       model.ErrCodeInsufficientPoints,
					Message:    "Không đủ điểm để đổi phần thưởng này",
					HTTPStatus: 400,
				}
			}
			return err
		}
		if err := s.repo.IncrementRedeemedTx(ctx, tx, rewardID); err != nil {
			if errors.Is(err, model.ErrRewardNotFound) {
				return model.ErrAppRewardExhausted
			}
			return err
		}

		// Step 4: code + validity
		now := time.Now()
		code, err := s.mintCode(ctx)
		if err != nil {
			return err
		}

		redemption := &model.RewardRedemption{
			ID:        uuid.New(),
			RewardID:  rewardID,
			UserID:    userID,
			Code:      code,
			PointCost: reward.PointCost,
			ValidFrom: now,
			ValidTo:   reward.RedemptionValidTo(now),
		}

		// Step 5: mint voucher từ template
		if reward.Type == model.RewardTypeVoucher && reward.Template != nil {
			voucherID, err := s.mintVouchers(ctx, tx, user.ID, reward, redemption, now)
			if err != nil {
				return err
			}
			redemption.VoucherID = voucherID
		}

		// Step 6: ghi redemption
		if err := s.repo.CreateRedemptionTx(ctx, tx, redemption); err != nil {
			return err
		}

		result = &model.RedeemResult{
			RedemptionID:   redemption.ID,
			Code:           redemption.Code,
			PointCharged:   reward.PointCost,
			RemainingPoint: user.Point - reward.PointCost,
			VoucherID:      redemption.VoucherID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("reward redeemed", map[string]interface{}{
		"reward_id": rewardID,
		"user_id":   userID,
		"code":      result.Code,
	})

	return result, nil
}

// Consume tiêu một redemption code (single-use, idempotent guard).
// Gọi lần hai với cùng code trả AlreadyUsed, không bao giờ success kép.
func (s *rewardService) Consume(ctx context.Context, code string) (*model.ConsumeResult, error) {
	var result *model.ConsumeResult

	err := s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		redemption, err := s.repo.FindRedemptionByCodeForUpdate(ctx, tx, code)
		if err != nil {
			if errors.Is(err, model.ErrRedemptionNotFound) {
				return model.ErrAppRedemptionNotFound
			}
			return err
		}

		now := time.Now()
		if redemption.IsUsed {
			return model.ErrAppAlreadyUsed
		}
		if redemption.ValidTo != nil && redemption.ValidTo.Before(now) {
			return model.ErrAppRedemptionExpired
		}

		if err := s.repo.MarkUsedTx(ctx, tx, redemption.ID); err != nil {
			// Guard fail dưới race: code vừa bị tiêu bởi request khác
			if errors.Is(err, model.ErrRedemptionNotFound) {
				return model.ErrAppAlreadyUsed
			}
			return err
		}

		result = &model.ConsumeResult{
			RedemptionID: redemption.ID,
			RewardID:     redemption.RewardID,
			UserID:       redemption.UserID,
			VoucherID:    redemption.VoucherID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("redemption consumed", map[string]interface{}{
		"redemption_id": result.RedemptionID,
	})

	return result, nil
}

// mintCode sinh code và check collision, regenerate tối đa codeGenMaxAttempts lần.
// Unique index trên cột code là chốt chặn cuối cùng.
func (s *rewardService) mintCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeGenMaxAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}

		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", model.ErrCodeCollision
}

// mintVouchers tạo VoucherQuantity voucher user-targeted từ template.
// Trả về ID của voucher đầu tiên để link vào redemption.
func (s *rewardService) mintVouchers(ctx context.Context, tx pgx.Tx, userID uuid.UUID, reward *model.Reward, redemption *model.RewardRedemption, now time.Time) (*uuid.UUID, error) {
	tpl := reward.Template

	count := tpl.VoucherQuantity
	if count < 1 {
		count = 1
	}

	var firstID *uuid.UUID
	for i := 0; i < count; i++ {
		code := redemption.Code
		if count > 1 {
			code = fmt.Sprintf("%s-%d", redemption.Code, i+1)
		}

		v := &vouchermodel.Voucher{
			ID:          uuid.New(),
			Code:        code,
			Name:        reward.Name,
			Description: reward.Description,
			Type:        vouchermodel.VoucherTypeUserTargeted,
			UserID:      &userID,

			ProductScope: tpl.ProductScope,
			ComboScope:   tpl.ComboScope,

			DiscountType:                tpl.DiscountType,
			Discount:                    tpl.Discount,
			UnlimitedPercentageDiscount: tpl.UnlimitedPercentageDiscount,
			MaximumPercentageReduction:  tpl.MaximumPercentageReduction,

			// Mỗi voucher mint ra dùng được đúng một lần
			Quantity: 1,

			StartTime:  now,
			EndTime:    redemption.ValidTo,
			IsLifeTime: redemption.ValidTo == nil,

			MinimumRequirements:   tpl.MinimumRequirements,
			IsForNewUsersOnly:     tpl.IsForNewUsersOnly,
			HasCombinedUsageLimit: tpl.HasCombinedUsageLimit,
			MaxCombinedUsageCount: tpl.MaxCombinedUsageCount,

			IsPublish: true,
			IsShow:    false,
		}

		if err := s.vouchers.CreateTx(ctx, tx, v); err != nil {
			return nil, fmt.Errorf("mint voucher from template: %w", err)
		}

		if firstID == nil {
			id := v.ID
			firstID = &id
		}
	}

	return firstID, nil
}

// ===================================================================
// STOREFRONT
// ===================================================================

func (s *rewardService) ListPublished(ctx context.Context) ([]*model.Reward, error) {
	return s.repo.ListPublished(ctx)
}

func (s *rewardService) ListMyRedemptions(ctx context.Context, userID uuid.UUID) ([]*model.RewardRedemption, error) {
	return s.repo.ListRedemptionsByUser(ctx, userID)
}

// ===================================================================
// ADMIN
// ===================================================================

func (s *rewardService) CreateReward(ctx context.Context, createdBy uuid.UUID, req *model.CreateRewardRequest) (*model.Reward, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	reward, err := buildRewardFromRequest(req)
	if err != nil {
		return nil, err
	}
	reward.CreatedBy = &createdBy

	if err := s.repo.Create(ctx, reward, req.ProductIDs, req.ComboIDs); err != nil {
		logger.Error("failed to create reward", err)
		return nil, err
	}

	logger.Info("reward created", map[string]interface{}{"reward_id": reward.ID})
	return reward, nil
}

func (s *rewardService) UpdateReward(ctx context.Context, id uuid.UUID, req *model.UpdateRewardRequest) (*model.Reward, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	reward, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRewardNotFound) {
			return nil, model.ErrAppRewardNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		reward.Name = *req.Name
	}
	if req.Description != nil {
		reward.Description = req.Description
	}
	if req.PointCost != nil {
		reward.PointCost = *req.PointCost
	}
	if req.Quantity != nil {
		reward.Quantity = *req.Quantity
	}
	if req.IsPublish != nil {
		reward.IsPublish = *req.IsPublish
	}

	if err := s.repo.Update(ctx, reward); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			return nil, model.ErrAppConcurrencyConflict
		}
		return nil, err
	}

	return reward, nil
}

func (s *rewardService) DeleteReward(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, model.ErrRewardNotFound) {
			return model.ErrAppRewardNotFound
		}
		return err
	}
	return nil
}

func buildRewardFromRequest(req *model.CreateRewardRequest) (*model.Reward, error) {
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

	reward := &model.Reward{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Type:        model.RewardType(req.Type),
		PointCost:   req.PointCost,

		Quantity:            req.Quantity,
		IsQuantityUnlimited: req.IsQuantityUnlimited,

		MinimumRank: minimumRank,

		ValidityValue:       req.ValidityValue,
		ValidityUnit:        model.ValidityUnit(req.ValidityUnit),
		IsValidityUnlimited: req.IsValidityUnlimited,

		IsPublish: req.IsPublish,
	}

	if req.Template != nil {
		tpl, err := buildTemplate(req.Template)
		if err != nil {
			return nil, err
		}
		reward.Template = tpl
	}

	return reward, nil
}

func buildTemplate(in *model.VoucherTemplateInput) (*model.VoucherTemplate, error) {
	productScope := vouchermodel.ScopeKind(in.ProductScope)
	if productScope == "" {
		productScope = vouchermodel.ScopeAll
	}
	comboScope := vouchermodel.ScopeKind(in.ComboScope)
	if comboScope == "" {
		comboScope = vouchermodel.ScopeAll
	}

	discountType := vouchermodel.DiscountType(in.DiscountType)
	if !discountType.IsValid() {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    fmt.Sprintf("discount_type '%s' không hợp lệ", in.DiscountType),
			HTTPStatus: 400,
		}
	}

	tpl := &model.VoucherTemplate{
		ProductScope: productScope,
		ComboScope:   comboScope,

		DiscountType:                discountType,
		Discount:                    decimal.NewFromFloat(in.Discount),
		UnlimitedPercentageDiscount: in.UnlimitedPercentageDiscount,

		MinimumRequirements:   decimal.NewFromFloat(in.MinimumRequirements),
		IsForNewUsersOnly:     in.IsForNewUsersOnly,
		HasCombinedUsageLimit: in.HasCombinedUsageLimit,
		MaxCombinedUsageCount: in.MaxCombinedUsageCount,

		VoucherQuantity: in.VoucherQuantity,
	}
	if in.MaximumPercentageReduction != nil {
		maxReduction := decimal.NewFromFloat(*in.MaximumPercentageReduction)
		tpl.MaximumPercentageReduction = &maxReduction
	}

	return tpl, nil
}
