// Package notifier broadcasts committed stock changes. Delivery is best effort: events are
// neither persisted nor retried, and a slow subscriber loses events rather than slowing
// the stock path.
package notifier

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

const EventStockUpdated = "stock_updated"

type StockEvent struct {
	ProductID         string             `json:"product_id"`
	SKU               string             `json:"sku"`
	Name              string             `json:"name"`
	StockQuantity     int                `json:"stock_quantity"`
	StockLastUpdated  *time.Time         `json:"stock_last_updated"`
	LastUpdatedByName *string            `json:"last_updated_by_name"`
	Version           int                `json:"version"`
	MovementType      model.MovementType `json:"movement_type"`
	QuantityChange    int                `json:"quantity_change"`
}

// NewStockEvent builds the event from post-commit values.
func NewStockEvent(p *model.Product, m *model.InventoryMovement) StockEvent {
	return StockEvent{
		ProductID:         p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		StockQuantity:     p.StockQuantity,
		StockLastUpdated:  p.StockLastUpdated,
		LastUpdatedByName: p.LastUpdatedByName,
		Version:           p.Version,
		MovementType:      m.MovementType,
		QuantityChange:    m.Quantity,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev StockEvent) error
}

// Tracker records advisory per-product subscriptions.
type Tracker interface {
	Track(ctx context.Context, subscriberID, productID string) error
}

type nop struct{}

func (nop) Publish(context.Context, StockEvent) error { return nil }

// Nop discards every event.
func Nop() Publisher { return nop{} }
