package product

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*dto.ProductView, error)
	GetProduct(ctx context.Context, id string) (*dto.ProductView, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]dto.ProductView, int, error)
}
