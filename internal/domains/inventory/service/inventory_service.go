package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-backend/internal/domains/inventory/model"
	"restaurant-backend/internal/domains/inventory/repository"
	"restaurant-backend/pkg/logger"
)

// InventoryService là business logic của kho nguyên liệu
type InventoryService interface {
	GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error)
	ListMaterials(ctx context.Context) ([]*model.Material, error)
	ListLowStock(ctx context.Context) ([]*model.Material, error)

	CreateMaterial(ctx context.Context, req *model.CreateMaterialRequest) (*model.Material, error)
	UpdateMaterial(ctx context.Context, id uuid.UUID, req *model.UpdateMaterialRequest) (*model.Material, error)
	DeleteMaterial(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, req *model.AdjustStockRequest) (*model.Material, error)
}

type inventoryService struct {
	repo repository.InventoryRepository
}

func NewInventoryService(repo repository.InventoryRepository) InventoryService {
	return &inventoryService{repo: repo}
}

func (s *inventoryService) GetMaterial(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrMaterialNotFound) {
			return nil, model.ErrAppMaterialNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *inventoryService) ListMaterials(ctx context.Context) ([]*model.Material, error) {
	return s.repo.List(ctx)
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]*model.Material, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *inventoryService) CreateMaterial(ctx context.Context, req *model.CreateMaterialRequest) (*model.Material, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	m := &model.Material{
		ID:                uuid.New(),
		Name:              req.Name,
		Unit:              model.MaterialUnit(req.Unit),
		Stock:             decimal.NewFromFloat(req.Stock),
		LowStockThreshold: decimal.NewFromFloat(req.LowStockThreshold),
	}

	if err := s.repo.Create(ctx, m); err != nil {
		logger.Error("failed to create material", err)
		return nil, err
	}

	logger.Info("material created", map[string]interface{}{"material_id": m.ID})
	return m, nil
}

func (s *inventoryService) UpdateMaterial(ctx context.Context, id uuid.UUID, req *model.UpdateMaterialRequest) (*model.Material, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrMaterialNotFound) {
			return nil, model.ErrAppMaterialNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Unit != nil {
		unit := model.MaterialUnit(*req.Unit)
		if !unit.IsValid() {
			return nil, &model.AppError{
				Code:       model.ErrCodeValidationFailed,
				Message:    "Đơn vị không hợp lệ",
				HTTPStatus: 400,
			}
		}
		m.Unit = unit
	}
	if req.LowStockThreshold != nil {
		m.LowStockThreshold = decimal.NewFromFloat(*req.LowStockThreshold)
	}

	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			return nil, model.ErrAppConcurrencyConflict
		}
		return nil, err
	}

	return m, nil
}

func (s *inventoryService) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, model.ErrMaterialNotFound) {
			return model.ErrAppMaterialNotFound
		}
		return err
	}
	return nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, id uuid.UUID, req *model.AdjustStockRequest) (*model.Material, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	delta := decimal.NewFromFloat(req.Delta)
	m, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMaterialNotFound):
			return nil, model.ErrAppMaterialNotFound
		case errors.Is(err, model.ErrInsufficientStock):
			return nil, model.ErrAppInsufficientStock
		}
		return nil, err
	}

	logger.Info("stock adjusted", map[string]interface{}{
		"material_id": id,
		"delta":       req.Delta,
		"reason":      req.Reason,
	})

	return m, nil
}
