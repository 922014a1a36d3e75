package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"restaurant-backend/internal/config"
	"restaurant-backend/internal/domains/loyalty/model"
	ordermodel "restaurant-backend/internal/domains/order/model"
	orderrepo "restaurant-backend/internal/domains/order/repository"
	userrepo "restaurant-backend/internal/domains/user/repository"
	"restaurant-backend/pkg/database"
	"restaurant-backend/pkg/logger"
)

// LoyaltyService tích điểm và exp khi đơn hàng completed
type LoyaltyService interface {
	AccrueLoyalty(ctx context.Context, orderID uuid.UUID) (*model.AccrualResult, error)
}

type loyaltyService struct {
	orders orderrepo.OrderRepository
	users  userrepo.UserRepository
	txm    database.TxManager
	cfg    config.LoyaltyConfig
}

func NewLoyaltyService(
	orders orderrepo.OrderRepository,
	users userrepo.UserRepository,
	txm database.TxManager,
	cfg config.LoyaltyConfig,
) LoyaltyService {
	return &loyaltyService{orders: orders, users: users, txm: txm, cfg: cfg}
}

// AccrueLoyalty cộng point/exp cho chủ đơn hàng completed.
//
// Idempotent: cột loyalty_rewards_applied là guard, gọi lại trên đơn đã
// accrue trả AlreadyApplied mà không cộng gì thêm. Point, exp và guard flag
// cùng một transaction nên không bao giờ cộng kép dưới retry.
//
// Rank chỉ đi lên: rank mới = max(rank hiện tại, rank theo exp mới).
func (s *loyaltyService) AccrueLoyalty(ctx context.Context, orderID uuid.UUID) (*model.AccrualResult, error) {
	var result *model.AccrualResult

	err := s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orders.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if order.Status != ordermodel.StatusCompleted {
			return fmt.Errorf("accrue loyalty: order %s is %s, want completed", orderID, order.Status)
		}
		if order.LoyaltyRewardsApplied {
			result = &model.AccrualResult{AlreadyApplied: true}
			return nil
		}

		user, err := s.users.FindByIDForUpdate(ctx, tx, order.UserID)
		if err != nil {
			return err
		}

		// floor(total * rate * booster), không bao giờ âm
		points := order.Total.Mul(s.cfg.PointRate).Mul(user.Booster).Floor().IntPart()
		exp := order.Total.Mul(s.cfg.ExpRate).Mul(user.Booster).Floor().IntPart()
		if points < 0 {
			points = 0
		}
		if exp < 0 {
			exp = 0
		}

		newRank := model.MaxRank(user.Rank, model.RankFromExp(user.Exp+exp, s.cfg.RankThresholds))

		if err := s.users.ApplyAccrualTx(ctx, tx, user.ID, points, exp, newRank); err != nil {
			return err
		}

		// Guard flag cùng transaction với point/exp, fail ở đây rollback tất cả
		if err := s.orders.SetLoyaltyAppliedTx(ctx, tx, orderID); err != nil {
			return err
		}

		result = &model.AccrualResult{
			PointsEarned: points,
			ExpEarned:    exp,
			NewRank:      newRank,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyApplied {
		logger.Info("loyalty accrued", map[string]interface{}{
			"order_id": orderID,
			"points":   result.PointsEarned,
			"exp":      result.ExpEarned,
			"rank":     result.NewRank.String(),
		})
	}

	return result, nil
}
