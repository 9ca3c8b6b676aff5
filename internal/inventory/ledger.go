package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/google/uuid"
)

// StockChange is one ledger-backed mutation of a locked product.
type StockChange struct {
	Delta          int
	ReservedDelta  int
	UserID         string
	MovementType   model.MovementType
	Reason         *string
	Reference      *string
	Notes          *string
	RelatedOrderID *string
	At             time.Time
}

// ApplyStockChange mutates p, which must be locked by tx, and writes its movement. The
// alert automaton runs in the same transaction so alert state never disagrees with stock.
func ApplyStockChange(ctx context.Context, tx TxRepository, p *model.Product, c StockChange) (*model.InventoryMovement, alert.Transition, error) {
	previous := p.StockQuantity
	next := previous + c.Delta
	if next < 0 {
		return nil, alert.TransitionNone, apperror.NewInsufficientStock(p.ID, p.Name, -c.Delta, previous)
	}

	p.StockQuantity = next
	p.ReservedStock += c.ReservedDelta
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
	p.Version++
	at := c.At
	userID := c.UserID
	p.StockLastUpdated = &at
	p.LastUpdatedByID = &userID
	p.UpdatedAt = at

	if err := tx.SaveStock(ctx, p); err != nil {
		return nil, alert.TransitionNone, err
	}

	m := &model.InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      p.ID,
		UserID:         c.UserID,
		MovementType:   c.MovementType,
		Quantity:       c.Delta,
		PreviousStock:  previous,
		NewStock:       next,
		Reason:         c.Reason,
		Reference:      c.Reference,
		Notes:          c.Notes,
		RelatedOrderID: c.RelatedOrderID,
		CreatedAt:      at,
	}
	if err := tx.AppendMovement(ctx, m); err != nil {
		return nil, alert.TransitionNone, err
	}

	transition, err := alert.Apply(ctx, tx, p, previous, at)
	if err != nil {
		return nil, alert.TransitionNone, err
	}
	return m, transition, nil
}

// ReleaseReservation turns reserved units into a permanent deduction. On-hand stock was
// already reduced at reservation time, so no movement is written.
func ReleaseReservation(ctx context.Context, tx TxRepository, p *model.Product, qty int, userID string, at time.Time) error {
	p.ReservedStock -= qty
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
	p.Version++
	p.LastUpdatedByID = &userID
	p.UpdatedAt = at
	return tx.SaveStock(ctx, p)
}

// ReplayLedger folds a product's movements in creation order and returns the final stock.
// It fails on the first row that does not balance or does not continue from its predecessor.
func ReplayLedger(movements []model.InventoryMovement) (int, error) {
	if len(movements) == 0 {
		return 0, nil
	}
	stock := movements[0].PreviousStock
	for i, m := range movements {
		if m.PreviousStock != stock {
			return stock, fmt.Errorf("movement %d (%s) starts at %d, ledger is at %d", i, m.ID, m.PreviousStock, stock)
		}
		if m.NewStock != m.PreviousStock+m.Quantity {
			return stock, fmt.Errorf("movement %d (%s) does not balance: %d %+d != %d",
				i, m.ID, m.PreviousStock, m.Quantity, m.NewStock)
		}
		if m.NewStock < 0 {
			return stock, fmt.Errorf("movement %d (%s) leaves negative stock %d", i, m.ID, m.NewStock)
		}
		stock = m.NewStock
	}
	return stock, nil
}
