package dto

import (
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateOrderInput struct {
	CustomerID            string           `json:"customer_id" binding:"required"`
	Items                 []OrderItemInput `json:"items"`
	TaxPercentage         decimal.Decimal  `json:"tax_percentage"`
	ShippingCost          decimal.Decimal  `json:"shipping_cost"`
	DiscountAmount        decimal.Decimal  `json:"discount_amount"`
	DiscountJustification *string          `json:"discount_justification"`
	Notes                 *string          `json:"notes"`
	UserID                string           `json:"-"`
}

type CancelOrderInput struct {
	OrderID string
	UserID  string
	Notes   *string
}

type UpdateStatusInput struct {
	OrderID string
	Status  model.OrderStatus
	UserID  string
	Notes   *string
}
