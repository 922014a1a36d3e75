package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/order/model"
	"restaurant-backend/internal/domains/order/repository"
	vouchermodel "restaurant-backend/internal/domains/voucher/model"
	voucherservice "restaurant-backend/internal/domains/voucher/service"
)

// CheckoutAdapter expose order data cho voucher domain dưới dạng
// voucherservice.OrderStore, giữ hai domain không import chéo nhau.
type CheckoutAdapter struct {
	repo repository.OrderRepository
}

func NewCheckoutAdapter(repo repository.OrderRepository) *CheckoutAdapter {
	return &CheckoutAdapter{repo: repo}
}

var _ voucherservice.OrderStore = (*CheckoutAdapter)(nil)

// GetPendingForUpdate lock order row và trả về view tối thiểu cho voucher
// engine: snapshot build từ order lines đã chốt giá.
func (a *CheckoutAdapter) GetPendingForUpdate(ctx context.Context, tx pgx.Tx, orderID, userID uuid.UUID) (*voucherservice.CheckoutOrder, error) {
	order, err := a.repo.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, model.ErrAppOrderNotFound
		}
		return nil, err
	}

	if order.UserID != userID {
		return nil, model.ErrAppOrderNotFound
	}
	if order.Status != model.StatusPending {
		return nil, model.ErrAppOrderNotPending
	}

	lines, err := a.repo.LoadLinesTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	snapshot := vouchermodel.CartSnapshot{
		Lines: make([]vouchermodel.CartLine, 0, len(lines)),
	}
	for _, l := range lines {
		kind := vouchermodel.LineKindProduct
		if l.Kind == model.LineKindCombo {
			kind = vouchermodel.LineKindCombo
		}
		snapshot.Lines = append(snapshot.Lines, vouchermodel.CartLine{
			Kind:      kind,
			ItemID:    l.ItemID,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}

	return &voucherservice.CheckoutOrder{
		ID:            order.ID,
		UserID:        order.UserID,
		Total:         order.Subtotal,
		DiscountTotal: order.DiscountTotal,
		Snapshot:      snapshot,
	}, nil
}

func (a *CheckoutAdapter) ApplyDiscountTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, discountTotal, newTotal decimal.Decimal) error {
	return a.repo.ApplyDiscountTx(ctx, tx, orderID, discountTotal, newTotal)
}
