package order

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
)

// TxRepository extends the stock write surface with the order tables, so one transaction
// covers products, movements, alerts and the order itself.
type TxRepository interface {
	inventory.TxRepository

	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	// NextOrderNumber atomically increments and returns the counter for day.
	NextOrderNumber(ctx context.Context, day string) (int, error)
	CreateOrder(ctx context.Context, o *model.Order) error
	// LockOrder returns the order with its items, locked for update, or nil if it does not exist.
	LockOrder(ctx context.Context, id string) (*model.Order, error)
	SaveOrderStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error
	AppendStatusHistory(ctx context.Context, h *model.OrderStatusHistory) error
}

type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error

	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	// GetProducts reads without locking. Unknown ids are absent from the result.
	GetProducts(ctx context.Context, ids []string) (map[string]model.Product, error)
}
