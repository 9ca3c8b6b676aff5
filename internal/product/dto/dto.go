package dto

import (
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

type ProductFilters struct {
	CategoryID  string `json:"category_id,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
	StockStatus string `json:"stock_status,omitempty"`
	SearchQuery string `json:"q,omitempty"`          // name or sku
	SortBy      string `json:"sort_by,omitempty"`    // name, price, stock, created_at
	SortOrder   string `json:"sort_order,omitempty"` // asc, desc
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
}

type CreateProductInput struct {
	CategoryID   *string         `json:"category_id"`
	SKU          string          `json:"sku" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	InitialStock int             `json:"initial_stock"`
	ReorderPoint *int            `json:"reorder_point"`
	UserID       string          `json:"-"`
}

type ProductView struct {
	model.Product
	StockStatus model.StockStatus `json:"stock_status"`
	StockValue  decimal.Decimal   `json:"stock_value"`
}

func NewProductView(p model.Product) ProductView {
	return ProductView{
		Product:     p,
		StockStatus: p.StockStatus(),
		StockValue:  p.StockValue(),
	}
}
