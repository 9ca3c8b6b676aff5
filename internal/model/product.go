package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusInStock    StockStatus = "in_stock"
)

// Product is the aggregate root for stock. StockQuantity is a materialized cache of
// the product's ledger; Version increases by one on every stock mutation.
type Product struct {
	BaseModel
	CategoryID        *string         `db:"category_id" json:"category_id"`
	SKU               string          `db:"sku" json:"sku"`
	Name              string          `db:"name" json:"name"`
	CostPrice         decimal.Decimal `db:"cost_price" json:"cost_price"`
	SalePrice         decimal.Decimal `db:"sale_price" json:"sale_price"`
	StockQuantity     int             `db:"stock_quantity" json:"stock_quantity"`
	ReservedStock     int             `db:"reserved_stock" json:"reserved_stock"`
	ReorderPoint      int             `db:"reorder_point" json:"reorder_point"`
	Version           int             `db:"version" json:"version"`
	IsActive          bool            `db:"is_active" json:"is_active"`
	StockLastUpdated  *time.Time      `db:"stock_last_updated" json:"stock_last_updated"`
	LastUpdatedByID   *string         `db:"last_updated_by_id" json:"last_updated_by_id"`
	LastUpdatedByName *string         `db:"last_updated_by_name" json:"last_updated_by_name"` // Joined from users
}

func (p *Product) IsOutOfStock() bool {
	return p.StockQuantity == 0
}

func (p *Product) IsLowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= p.ReorderPoint
}

func (p *Product) StockStatus() StockStatus {
	switch {
	case p.IsOutOfStock():
		return StockStatusOutOfStock
	case p.IsLowStock():
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// StockValue is on-hand units valued at cost.
func (p *Product) StockValue() decimal.Decimal {
	return p.CostPrice.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}
