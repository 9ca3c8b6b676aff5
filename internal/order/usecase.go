package order

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
)

type UseCase interface {
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	CancelOrder(ctx context.Context, input *dto.CancelOrderInput) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, input *dto.UpdateStatusInput) (*model.Order, error)
	ValidateStockAvailability(ctx context.Context, items []dto.OrderItemInput) (*dto.AvailabilityReport, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
}

// ProductCache is a product read-model cache that goes stale when product rows change
// without a stock event.
type ProductCache interface {
	Invalidate(ctx context.Context) error
}
