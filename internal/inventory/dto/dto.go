package dto

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type MovementFilters struct {
	ProductID    string
	MovementType string
	UserID       string
	OrderID      string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

type AdjustmentFilters struct {
	ProductID string
	UserID    string
	Limit     int
}

type MovementStat struct {
	MovementType  model.MovementType `db:"movement_type" json:"movement_type"`
	Count         int                `db:"movement_count" json:"count"`
	TotalQuantity int                `db:"total_quantity" json:"total_quantity"`
}

type StockResult struct {
	Product     *model.Product           `json:"product"`
	Movement    *model.InventoryMovement `json:"movement"`
	StockStatus model.StockStatus        `json:"stock_status"`
}

type LedgerReport struct {
	ProductID     string `json:"product_id"`
	StockQuantity int    `json:"stock_quantity"`
	ReplayedStock int    `json:"replayed_stock"`
	Movements     int    `json:"movements"`
	Consistent    bool   `json:"consistent"`
	Problem       string `json:"problem,omitempty"`
}
