package product

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
)

type TxRepository interface {
	inventory.TxRepository

	Create(ctx context.Context, product *model.Product) error
}

type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error

	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)

	// Check SKU uniqueness
	IsSKUUnique(ctx context.Context, sku string) (bool, error)
}

// ListCache holds serialized list pages. Implementations must tolerate being unavailable.
type ListCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
	Invalidate(ctx context.Context) error
}
