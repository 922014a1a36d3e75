package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	cartservice "restaurant-backend/internal/domains/cart/service"
	loyaltymodel "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/order/model"
	"restaurant-backend/internal/domains/order/repository"
	vouchermodel "restaurant-backend/internal/domains/voucher/model"
	"restaurant-backend/pkg/database"
	"restaurant-backend/pkg/logger"
)

// LoyaltyAccruer là hook sang loyalty domain, gọi sau khi đơn hoàn tất.
// Accrual tự guard idempotence qua LoyaltyRewardsApplied nên gọi lại vô hại.
type LoyaltyAccruer interface {
	AccrueLoyalty(ctx context.Context, orderID uuid.UUID) (*loyaltymodel.AccrualResult, error)
}

// OrderService là business logic của order domain
type OrderService interface {
	CreateFromCart(ctx context.Context, userID uuid.UUID) (*model.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]*model.Order, int, error)

	// Status transitions (admin/staff)
	MarkPaid(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
}

type orderService struct {
	repo    repository.OrderRepository
	txm     database.TxManager
	cart    cartservice.CartService
	loyalty LoyaltyAccruer
}

func NewOrderService(
	repo repository.OrderRepository,
	txm database.TxManager,
	cart cartservice.CartService,
	loyalty LoyaltyAccruer,
) OrderService {
	return &orderService{repo: repo, txm: txm, cart: cart, loyalty: loyalty}
}

// CreateFromCart chốt giỏ hàng thành đơn pending.
// Giá được snapshot tại đây và immutable từ đó về sau.
func (s *orderService) CreateFromCart(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	snapshot, err := s.cart.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Lines) == 0 {
		return nil, model.ErrAppEmptyCart
	}

	order := &model.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: model.StatusPending,
	}

	subtotal := decimal.Zero
	for _, line := range snapshot.Lines {
		kind := model.LineKindProduct
		if line.Kind == vouchermodel.LineKindCombo {
			kind = model.LineKindCombo
		}
		order.Lines = append(order.Lines, model.OrderLine{
			Kind:      kind,
			ItemID:    line.ItemID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
		subtotal = subtotal.Add(line.LineTotal())
	}
	order.Subtotal = subtotal
	order.DiscountTotal = decimal.Zero
	order.Total = subtotal

	if err := s.repo.Create(ctx, order); err != nil {
		logger.Error("failed to create order", err)
		return nil, err
	}

	// Giỏ đã chốt thành đơn
	if err := s.cart.ClearCart(ctx, userID); err != nil {
		logger.Warn("failed to clear cart after order creation", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	logger.Info("order created", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.Total,
	})

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, model.ErrAppOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.ErrAppOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]*model.Order, int, error) {
	return s.repo.ListByUser(ctx, userID, page, limit)
}

func (s *orderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, orderID, model.StatusPaid)
}

// Complete chuyển đơn sang completed rồi cộng điểm loyalty.
// Accrual idempotent nên status churn không double-credit.
func (s *orderService) Complete(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.transition(ctx, orderID, model.StatusCompleted)
	if err != nil {
		return nil, err
	}

	if _, err := s.loyalty.AccrueLoyalty(ctx, orderID); err != nil {
		// Đơn đã completed, accrual fail không rollback status.
		// Gọi lại AccrueLoyalty sau là an toàn nhờ idempotence guard.
		logger.Error("loyalty accrual failed after order completion", err)
	}

	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, orderID, model.StatusCancelled)
}

func (s *orderService) transition(ctx context.Context, orderID uuid.UUID, next model.OrderStatus) (*model.Order, error) {
	var order *model.Order
	err := s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		o, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, model.ErrOrderNotFound) {
				return model.ErrAppOrderNotFound
			}
			return err
		}

		if !o.Status.CanTransitionTo(next) {
			return &model.AppError{
				Code:    model.ErrCodeInvalidTransition,
				Message: "Trạng thái đơn không cho phép chuyển đổi này",
				Details: map[string]interface{}{
					"current": o.Status,
					"next":    next,
				},
				HTTPStatus: 400,
			}
		}

		if err := s.repo.UpdateStatusTx(ctx, tx, orderID, next); err != nil {
			return err
		}

		o.Status = next
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("order status changed", map[string]interface{}{
		"order_id": orderID,
		"status":   next,
	})

	return order, nil
}
