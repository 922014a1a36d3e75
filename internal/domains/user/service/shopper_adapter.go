package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	cartservice "restaurant-backend/internal/domains/cart/service"
	"restaurant-backend/internal/domains/user/model"
	"restaurant-backend/internal/domains/user/repository"
	vouchermodel "restaurant-backend/internal/domains/voucher/model"
	voucherservice "restaurant-backend/internal/domains/voucher/service"
)

// OrderCounter là phần duy nhất của order domain mà shopper view cần
type OrderCounter interface {
	CountCompletedByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// ShopperAdapter expose user + cart data cho voucher domain dưới dạng
// voucherservice.UserStore.
type ShopperAdapter struct {
	users  repository.UserRepository
	orders OrderCounter
	cart   cartservice.CartService
}

func NewShopperAdapter(users repository.UserRepository, orders OrderCounter, cart cartservice.CartService) *ShopperAdapter {
	return &ShopperAdapter{users: users, orders: orders, cart: cart}
}

var _ voucherservice.UserStore = (*ShopperAdapter)(nil)

func (a *ShopperAdapter) GetShopper(ctx context.Context, userID uuid.UUID) (vouchermodel.Shopper, error) {
	u, err := a.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return vouchermodel.Shopper{}, model.ErrAppUserNotFound
		}
		return vouchermodel.Shopper{}, err
	}

	completed, err := a.orders.CountCompletedByUser(ctx, userID)
	if err != nil {
		return vouchermodel.Shopper{}, err
	}

	return vouchermodel.Shopper{
		ID:              u.ID,
		Rank:            u.Rank,
		CompletedOrders: completed,
	}, nil
}

func (a *ShopperAdapter) GetCartSnapshot(ctx context.Context, userID uuid.UUID) (vouchermodel.CartSnapshot, error) {
	return a.cart.Snapshot(ctx, userID)
}
