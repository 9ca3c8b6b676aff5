package alert

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/google/uuid"
)

type Transition int

const (
	TransitionNone Transition = iota
	TransitionOpen
	TransitionResolve
)

func (t Transition) String() string {
	switch t {
	case TransitionOpen:
		return "open"
	case TransitionResolve:
		return "resolve"
	default:
		return "none"
	}
}

// Evaluate classifies a stock change by its zero-crossing.
func Evaluate(previousStock, newStock int) Transition {
	switch {
	case previousStock > 0 && newStock == 0:
		return TransitionOpen
	case previousStock == 0 && newStock > 0:
		return TransitionResolve
	default:
		return TransitionNone
	}
}

// Apply runs the automaton for one committed-to-be stock change. It must be called inside
// the transaction holding the product row lock, after the product's new stock is persisted.
func Apply(ctx context.Context, tx TxRepository, p *model.Product, previousStock int, at time.Time) (Transition, error) {
	transition := Evaluate(previousStock, p.StockQuantity)
	switch transition {
	case TransitionOpen:
		active, err := tx.FindActiveAlert(ctx, p.ID, model.AlertOutOfStock)
		if err != nil {
			return transition, err
		}
		if active != nil {
			return TransitionNone, nil
		}
		return transition, tx.CreateAlert(ctx, NewOutOfStockAlert(p, at))
	case TransitionResolve:
		n, err := tx.ResolveAlerts(ctx, p.ID, model.AlertOutOfStock, at)
		if err != nil {
			return transition, err
		}
		if n == 0 {
			return TransitionNone, nil
		}
	}
	return transition, nil
}

func NewOutOfStockAlert(p *model.Product, at time.Time) *model.InventoryAlert {
	return &model.InventoryAlert{
		ID:           uuid.New().String(),
		ProductID:    p.ID,
		AlertType:    model.AlertOutOfStock,
		CurrentStock: p.StockQuantity,
		ReorderPoint: p.ReorderPoint,
		IsActive:     true,
		CreatedAt:    at,
	}
}
