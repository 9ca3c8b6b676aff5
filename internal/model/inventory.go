package model

import "time"

type MovementType string

const (
	MovementInitialStock      MovementType = "initial_stock"
	MovementPurchase          MovementType = "purchase"
	MovementSale              MovementType = "sale"
	MovementManualAdjustment  MovementType = "manual_adjustment"
	MovementOrderReservation  MovementType = "order_reservation"
	MovementOrderCancellation MovementType = "order_cancellation"
)

var movementTypes = map[MovementType]struct{}{
	MovementInitialStock:      {},
	MovementPurchase:          {},
	MovementSale:              {},
	MovementManualAdjustment:  {},
	MovementOrderReservation:  {},
	MovementOrderCancellation: {},
}

func (t MovementType) Valid() bool {
	_, ok := movementTypes[t]
	return ok
}

// InventoryMovement is one append-only ledger row. NewStock == PreviousStock + Quantity.
type InventoryMovement struct {
	ID             string       `db:"id" json:"id"`
	ProductID      string       `db:"product_id" json:"product_id"`
	UserID         string       `db:"user_id" json:"user_id"`
	MovementType   MovementType `db:"movement_type" json:"movement_type"`
	Quantity       int          `db:"quantity" json:"quantity"`
	PreviousStock  int          `db:"previous_stock" json:"previous_stock"`
	NewStock       int          `db:"new_stock" json:"new_stock"`
	Reason         *string      `db:"reason" json:"reason"`
	Reference      *string      `db:"reference" json:"reference"`
	Notes          *string      `db:"notes" json:"notes,omitempty"`
	RelatedOrderID *string      `db:"related_order_id" json:"related_order_id"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

type AlertType string

const AlertOutOfStock AlertType = "out_of_stock"

type InventoryAlert struct {
	ID           string     `db:"id" json:"id"`
	ProductID    string     `db:"product_id" json:"product_id"`
	AlertType    AlertType  `db:"alert_type" json:"alert_type"`
	CurrentStock int        `db:"current_stock" json:"current_stock"`
	ReorderPoint int        `db:"reorder_point" json:"reorder_point"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt   *time.Time `db:"resolved_at" json:"resolved_at"`
}
