package repository

import (
	"context"

	"github.com/google/uuid"

	"restaurant-backend/internal/domains/catalog/model"
)

// CatalogRepository gom data access của products, combos, types, extras.
// Catalog nhỏ và các entity gần nhau nên một repository là đủ.
type CatalogRepository interface {
	// Products
	FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	ListPublishedProducts(ctx context.Context) ([]*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	SoftDeleteProduct(ctx context.Context, id uuid.UUID) error

	// Combos
	FindComboByID(ctx context.Context, id uuid.UUID) (*model.Combo, error)
	FindCombosByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Combo, error)
	ListPublishedCombos(ctx context.Context) ([]*model.Combo, error)
	CreateCombo(ctx context.Context, c *model.Combo) error
	SoftDeleteCombo(ctx context.Context, id uuid.UUID) error

	// Product types
	ListProductTypes(ctx context.Context) ([]*model.ProductType, error)
	CreateProductType(ctx context.Context, t *model.ProductType) error

	// Extras
	ListPublishedExtras(ctx context.Context) ([]*model.Extra, error)
	CreateExtra(ctx context.Context, e *model.Extra) error
}
