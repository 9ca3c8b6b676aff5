package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

const PaymentStatusPending = "pending"

// orderTransitions is the legal status graph. Delivered and Cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the statuses reachable from s.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

type Order struct {
	BaseModel
	OrderNumber           string          `db:"order_number" json:"order_number"`
	CustomerID            string          `db:"customer_id" json:"customer_id"`
	CreatedByID           string          `db:"created_by_id" json:"created_by_id"`
	Status                OrderStatus     `db:"status" json:"status"`
	PaymentStatus         string          `db:"payment_status" json:"payment_status"`
	Subtotal              decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxPercentage         decimal.Decimal `db:"tax_percentage" json:"tax_percentage"`
	TaxAmount             decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	ShippingCost          decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	DiscountAmount        decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	DiscountJustification *string         `db:"discount_justification" json:"discount_justification"`
	Total                 decimal.Decimal `db:"total" json:"total"`
	Notes                 *string         `db:"notes" json:"notes"`

	Items         []OrderItem          `db:"-" json:"items"`
	StatusHistory []OrderStatusHistory `db:"-" json:"status_history,omitempty"`
}

// ReservedQuantity is the total number of units this order holds in reserved_stock.
func (o *Order) ReservedQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// OrderItem is an immutable snapshot of the product at order time.
type OrderItem struct {
	ID          string          `db:"id" json:"id"`
	OrderID     string          `db:"order_id" json:"order_id"`
	ProductID   string          `db:"product_id" json:"product_id"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal"`
	ProductName string          `db:"product_name" json:"product_name"`
	ProductSKU  string          `db:"product_sku" json:"product_sku"`
}

type OrderStatusHistory struct {
	ID          string      `db:"id" json:"id"`
	OrderID     string      `db:"order_id" json:"order_id"`
	ChangedByID string      `db:"changed_by_id" json:"changed_by_id"`
	Status      OrderStatus `db:"status" json:"status"`
	Notes       *string     `db:"notes" json:"notes"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// FormatOrderNumber renders ORD-YYYYMMDD-NNNN for the given calendar day and daily sequence.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("ORD-%s-%04d", day.Format("20060102"), seq)
}

// OrderDayKey is the per-day counter key used by the order sequence.
func OrderDayKey(day time.Time) string {
	return day.Format("20060102")
}
