package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	cartmodel "restaurant-backend/internal/domains/cart/model"
	catalogservice "restaurant-backend/internal/domains/catalog/service"
	vouchermodel "restaurant-backend/internal/domains/voucher/model"
	"restaurant-backend/pkg/cache"
)

const cartTTL = 7 * 24 * time.Hour

// CartService quản lý giỏ hàng per-user trong Redis.
// Giá luôn được re-price từ catalog khi đọc — item đã ngừng bán bị loại
// khỏi giỏ và giá cũ không bao giờ được tin.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*cartmodel.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *cartmodel.AddItemRequest) (*cartmodel.Cart, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, req *cartmodel.UpdateItemRequest) (*cartmodel.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error

	// Snapshot build cart snapshot cho voucher engine và order creation
	Snapshot(ctx context.Context, userID uuid.UUID) (vouchermodel.CartSnapshot, error)
}

type cartService struct {
	cache   cache.Cache
	catalog catalogservice.CatalogService
}

func NewCartService(c cache.Cache, catalog catalogservice.CatalogService) CartService {
	return &cartService{cache: c, catalog: catalog}
}

func cartKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*cartmodel.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.reprice(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *cartmodel.AddItemRequest) (*cartmodel.Cart, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	kind := cartmodel.ItemKind(req.Kind)

	// Item phải tồn tại và đang bán
	priced, err := s.priceOne(ctx, kind, req.ItemID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].Kind == kind && cart.Items[i].ItemID == req.ItemID {
			cart.Items[i].Quantity += req.Quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, cartmodel.CartItem{
			Kind:      kind,
			ItemID:    req.ItemID,
			Name:      priced.Name,
			UnitPrice: priced.EffectivePrice,
			Quantity:  req.Quantity,
		})
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartService) UpdateItem(ctx context.Context, userID uuid.UUID, req *cartmodel.UpdateItemRequest) (*cartmodel.Cart, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	kind := cartmodel.ItemKind(req.Kind)
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.Kind == kind && item.ItemID == req.ItemID {
			if req.Quantity == 0 {
				continue
			}
			item.Quantity = req.Quantity
		}
		items = append(items, item)
	}
	cart.Items = items

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Delete(ctx, cartKey(userID))
}

// Snapshot chốt giá hiện tại từ catalog cho toàn bộ giỏ.
// Đây là input duy nhất voucher engine nhìn thấy.
func (s *cartService) Snapshot(ctx context.Context, userID uuid.UUID) (vouchermodel.CartSnapshot, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return vouchermodel.CartSnapshot{}, err
	}
	if err := s.reprice(ctx, cart); err != nil {
		return vouchermodel.CartSnapshot{}, err
	}

	snapshot := vouchermodel.CartSnapshot{
		Lines: make([]vouchermodel.CartLine, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		kind := vouchermodel.LineKindProduct
		if item.Kind == cartmodel.ItemKindCombo {
			kind = vouchermodel.LineKindCombo
		}
		snapshot.Lines = append(snapshot.Lines, vouchermodel.CartLine{
			Kind:      kind,
			ItemID:    item.ItemID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	return snapshot, nil
}

// -------------------------------------------------------------------
// INTERNALS
// -------------------------------------------------------------------

func (s *cartService) load(ctx context.Context, userID uuid.UUID) (*cartmodel.Cart, error) {
	var cart cartmodel.Cart
	err := s.cache.Get(ctx, cartKey(userID), &cart)
	if err != nil {
		var miss *cache.CacheMissError
		if errors.As(err, &miss) {
			return &cartmodel.Cart{UserID: userID, Items: []cartmodel.CartItem{}}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

func (s *cartService) save(ctx context.Context, cart *cartmodel.Cart) error {
	cart.UpdatedAt = time.Now()
	if err := s.cache.Set(ctx, cartKey(cart.UserID), cart, cartTTL); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// reprice refresh giá và tên từ catalog, loại item đã ngừng bán
func (s *cartService) reprice(ctx context.Context, cart *cartmodel.Cart) error {
	var productIDs, comboIDs []uuid.UUID
	for _, item := range cart.Items {
		switch item.Kind {
		case cartmodel.ItemKindProduct:
			productIDs = append(productIDs, item.ItemID)
		case cartmodel.ItemKindCombo:
			comboIDs = append(comboIDs, item.ItemID)
		}
	}

	products, err := s.catalog.PriceProducts(ctx, productIDs)
	if err != nil {
		return err
	}
	combos, err := s.catalog.PriceCombos(ctx, comboIDs)
	if err != nil {
		return err
	}

	items := cart.Items[:0]
	for _, item := range cart.Items {
		var priced catalogservice.PricedItem
		var ok bool
		switch item.Kind {
		case cartmodel.ItemKindProduct:
			priced, ok = products[item.ItemID]
		case cartmodel.ItemKindCombo:
			priced, ok = combos[item.ItemID]
		}
		if !ok {
			// Item đã xóa hoặc ngừng bán
			continue
		}
		item.Name = priced.Name
		item.UnitPrice = priced.EffectivePrice
		items = append(items, item)
	}
	cart.Items = items

	return nil
}

func (s *cartService) priceOne(ctx context.Context, kind cartmodel.ItemKind, id uuid.UUID) (catalogservice.PricedItem, error) {
	var m map[uuid.UUID]catalogservice.PricedItem
	var err error

	switch kind {
	case cartmodel.ItemKindProduct:
		m, err = s.catalog.PriceProducts(ctx, []uuid.UUID{id})
	case cartmodel.ItemKindCombo:
		m, err = s.catalog.PriceCombos(ctx, []uuid.UUID{id})
	}
	if err != nil {
		return catalogservice.PricedItem{}, err
	}

	priced, ok := m[id]
	if !ok {
		return catalogservice.PricedItem{}, fmt.Errorf("item %s not available", id)
	}
	return priced, nil
}
