package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// TxRepository is the write surface of one stock transaction. Every product it returns
// stays row-locked until the transaction ends.
type TxRepository interface {
	alert.TxRepository

	// LockProducts locks the given rows in ascending id order. Unknown ids are absent
	// from the result.
	LockProducts(ctx context.Context, ids []string) (map[string]*model.Product, error)
	LockProductsByCategory(ctx context.Context, categoryID string) ([]model.Product, error)
	// SaveStock persists stock, reservation, version and attribution columns and refreshes
	// p.LastUpdatedByName.
	SaveStock(ctx context.Context, p *model.Product) error
	AppendMovement(ctx context.Context, m *model.InventoryMovement) error
	UpdateReorderPoint(ctx context.Context, productID string, reorderPoint int, at time.Time) error
}

type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error

	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListAtOrBelowReorderPoint(ctx context.Context) ([]model.Product, error)

	// Ledger reads. Nothing in this service updates or deletes a movement.
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	ProductMovements(ctx context.Context, productID string) ([]model.InventoryMovement, error)
	SumSalesSince(ctx context.Context, productID string, since time.Time) (int, error)
	MovementStatistics(ctx context.Context, from, to *time.Time) ([]dto.MovementStat, error)
}
