package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/catalog/model"
	"restaurant-backend/internal/domains/catalog/repository"
	"restaurant-backend/pkg/logger"
)

// PricedItem là giá đã chốt của một item, dùng khi build cart snapshot
type PricedItem struct {
	ID             uuid.UUID
	Name           string
	EffectivePrice decimal.Decimal
}

// CatalogService là business logic của catalog domain
type CatalogService interface {
	// Storefront
	ListProducts(ctx context.Context) ([]*model.Product, error)
	ListCombos(ctx context.Context) ([]*model.Combo, error)
	ListProductTypes(ctx context.Context) ([]*model.ProductType, error)
	ListExtras(ctx context.Context) ([]*model.Extra, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetCombo(ctx context.Context, id uuid.UUID) (*model.Combo, error)

	// Pricing cho cart/order (batch, giá đã qua item discount)
	PriceProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PricedItem, error)
	PriceCombos(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PricedItem, error)

	// Admin
	CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *model.UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	CreateCombo(ctx context.Context, req *model.CreateComboRequest) (*model.Combo, error)
	DeleteCombo(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) CatalogService {
	return &catalogService{repo: repo}
}

// ===================================================================
// STOREFRONT
// ===================================================================

func (s *catalogService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	return s.repo.ListPublishedProducts(ctx)
}

func (s *catalogService) ListCombos(ctx context.Context) ([]*model.Combo, error) {
	return s.repo.ListPublishedCombos(ctx)
}

func (s *catalogService) ListProductTypes(ctx context.Context) ([]*model.ProductType, error) {
	return s.repo.ListProductTypes(ctx)
}

func (s *catalogService) ListExtras(ctx context.Context) ([]*model.Extra, error) {
	return s.repo.ListPublishedExtras(ctx)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, model.ErrAppNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *catalogService) GetCombo(ctx context.Context, id uuid.UUID) (*model.Combo, error) {
	c, err := s.repo.FindComboByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrComboNotFound) {
			return nil, model.ErrAppNotFound
		}
		return nil, err
	}
	return c, nil
}

// ===================================================================
// PRICING
// ===================================================================

// PriceProducts chốt effective price cho một batch product.
// Item không publish hoặc đã xóa sẽ vắng mặt trong map — caller phải check.
func (s *catalogService) PriceProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PricedItem, error) {
	products, err := s.repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]PricedItem, len(products))
	for id, p := range products {
		if !p.IsPublish {
			continue
		}
		result[id] = PricedItem{
			ID:             id,
			Name:           p.Name,
			EffectivePrice: p.EffectivePrice(),
		}
	}
	return result, nil
}

func (s *catalogService) PriceCombos(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]PricedItem, error) {
	combos, err := s.repo.FindCombosByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]PricedItem, len(combos))
	for id, c := range combos {
		if !c.IsPublish {
			continue
		}
		result[id] = PricedItem{
			ID:             id,
			Name:           c.Name,
			EffectivePrice: c.EffectivePrice(),
		}
	}
	return result, nil
}

// ===================================================================
// ADMIN
// ===================================================================

func (s *catalogService) CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	p := &model.Product{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		ProductTypeID: req.ProductTypeID,
		Price:         decimal.NewFromFloat(req.Price),
		DiscountType:  model.ItemDiscountType(req.DiscountType),
		DiscountValue: decimal.NewFromFloat(req.DiscountValue),
		IsPublish:     req.IsPublish,
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		logger.Error("failed to create product", err)
		return nil, err
	}

	return p, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *model.UpdateProductRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	p, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return nil, model.ErrAppNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Price != nil {
		p.Price = decimal.NewFromFloat(*req.Price)
	}
	if req.DiscountType != nil {
		p.DiscountType = model.ItemDiscountType(*req.DiscountType)
	}
	if req.DiscountValue != nil {
		p.DiscountValue = decimal.NewFromFloat(*req.DiscountValue)
	}
	if req.IsPublish != nil {
		p.IsPublish = *req.IsPublish
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			return nil, model.ErrAppConcurrencyConflict
		}
		return nil, err
	}

	return p, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteProduct(ctx, id); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return model.ErrAppNotFound
		}
		return err
	}
	return nil
}

func (s *catalogService) CreateCombo(ctx context.Context, req *model.CreateComboRequest) (*model.Combo, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	// Mọi product trong combo phải tồn tại
	ids := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ProductID
	}
	found, err := s.repo.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if _, ok := found[item.ProductID]; !ok {
			return nil, &model.AppError{
				Code:       model.ErrCodeValidationFailed,
				Message:    "Sản phẩm trong combo không tồn tại",
				Details:    map[string]interface{}{"product_id": item.ProductID},
				HTTPStatus: 400,
			}
		}
	}

	c := &model.Combo{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		Price:         decimal.NewFromFloat(req.Price),
		DiscountType:  model.ItemDiscountType(req.DiscountType),
		DiscountValue: decimal.NewFromFloat(req.DiscountValue),
		IsPublish:     req.IsPublish,
	}
	for _, item := range req.Items {
		c.Items = append(c.Items, model.ComboItem{
			ComboID:   c.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := s.repo.CreateCombo(ctx, c); err != nil {
		logger.Error("failed to create combo", err)
		return nil, err
	}

	return c, nil
}

func (s *catalogService) DeleteCombo(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDeleteCombo(ctx, id); err != nil {
		if errors.Is(err, model.ErrComboNotFound) {
			return model.ErrAppNotFound
		}
		return err
	}
	return nil
}
