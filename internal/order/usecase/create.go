package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

type totals struct {
	subtotal decimal.Decimal
	tax      decimal.Decimal
	total    decimal.Decimal
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	items, err := mergeItems(input.Items)
	if err != nil {
		return nil, err
	}
	sums, err := validateOrder(input, items)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	now := uc.now()
	var (
		created *model.Order
		writes  []stockWrite
	)
	err = uc.repo.RunInTx(ctx, func(ctx context.Context, tx order.TxRepository) error {
		customer, err := tx.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return apperror.NewValidationError("customer_id", "customer %s not found", input.CustomerID)
		}
		if !customer.IsActive {
			return apperror.NewValidationError("customer_id", "customer %s is not active", input.CustomerID)
		}

		locked, err := lockItems(ctx, tx, items)
		if err != nil {
			return err
		}

		// Every line is checked before any product is touched.
		var shortfalls []apperror.Shortfall
		for _, item := range items {
			p := locked[item.ProductID]
			if p.StockQuantity < item.Quantity {
				shortfalls = append(shortfalls, apperror.Shortfall{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   item.Quantity,
					Available:   p.StockQuantity,
				})
			}
		}
		if len(shortfalls) > 0 {
			return apperror.NewInsufficientStockForItems(shortfalls)
		}

		seq, err := tx.NextOrderNumber(ctx, model.OrderDayKey(now))
		if err != nil {
			return err
		}

		o := &model.Order{
			BaseModel:             model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			OrderNumber:           model.FormatOrderNumber(now, seq),
			CustomerID:            input.CustomerID,
			CreatedByID:           input.UserID,
			Status:                model.OrderStatusPending,
			PaymentStatus:         model.PaymentStatusPending,
			Subtotal:              sums.subtotal,
			TaxPercentage:         input.TaxPercentage,
			TaxAmount:             sums.tax,
			ShippingCost:          input.ShippingCost,
			DiscountAmount:        input.DiscountAmount,
			DiscountJustification: input.DiscountJustification,
			Total:                 sums.total,
			Notes:                 input.Notes,
		}
		for _, item := range items {
			p := locked[item.ProductID]
			o.Items = append(o.Items, model.OrderItem{
				ID:          uuid.New().String(),
				OrderID:     o.ID,
				ProductID:   p.ID,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Subtotal:    item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
				ProductName: p.Name,
				ProductSKU:  p.SKU,
			})
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}

		for _, item := range items {
			p := locked[item.ProductID]
			m, transition, err := inventory.ApplyStockChange(ctx, tx, p, inventory.StockChange{
				Delta:          -item.Quantity,
				ReservedDelta:  item.Quantity,
				UserID:         input.UserID,
				MovementType:   model.MovementOrderReservation,
				Reference:      &o.OrderNumber,
				RelatedOrderID: &o.ID,
				At:             now,
			})
			if err != nil {
				return err
			}
			writes = append(writes, stockWrite{product: *p, movement: m, transition: transition})
		}

		history := newHistory(o.ID, input.UserID, model.OrderStatusPending, nil, now)
		if err := tx.AppendStatusHistory(ctx, &history); err != nil {
			return err
		}
		o.StatusHistory = []model.OrderStatusHistory{history}
		created = o
		return nil
	})
	uc.metrics.ObserveTx("create_order", start)
	uc.metrics.RecordOrder("create", err)
	if err != nil {
		uc.logRejection("order creation rejected", input.CustomerID, err)
		return nil, apperror.Wrap("create order", err)
	}

	uc.logger.Info("order created",
		zap.String("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.Int("items", len(created.Items)),
		zap.String("total", created.Total.StringFixed(2)),
	)
	uc.afterCommit(ctx, writes)
	return created, nil
}

func (uc *orderUseCase) ValidateStockAvailability(ctx context.Context, input []dto.OrderItemInput) (*dto.AvailabilityReport, error) {
	items, err := mergeItems(input)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	products, err := uc.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, apperror.Wrap("check availability", err)
	}

	report := &dto.AvailabilityReport{AllAvailable: true}
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, apperror.NewValidationError("items", "product %s not found", item.ProductID)
		}
		entry := dto.ItemAvailability{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   item.Quantity,
			Available:   p.StockQuantity,
			Sufficient:  p.IsActive && p.StockQuantity >= item.Quantity,
		}
		report.AllAvailable = report.AllAvailable && entry.Sufficient
		report.Items = append(report.Items, entry)
	}
	return report, nil
}

// mergeItems folds duplicate product lines into one and returns them sorted by product id.
func mergeItems(in []dto.OrderItemInput) ([]dto.OrderItemInput, error) {
	if len(in) == 0 {
		return nil, apperror.NewValidationError("items", "order must contain at least one item")
	}
	byID := make(map[string]int, len(in))
	var out []dto.OrderItemInput
	for _, item := range in {
		if item.ProductID == "" {
			return nil, apperror.NewValidationError("items", "product id is required")
		}
		if item.Quantity <= 0 {
			return nil, apperror.NewValidationError("items", "quantity for product %s must be positive", item.ProductID)
		}
		if item.UnitPrice.IsNegative() {
			return nil, apperror.NewValidationError("items", "unit price for product %s cannot be negative", item.ProductID)
		}
		if i, ok := byID[item.ProductID]; ok {
			if !out[i].UnitPrice.Equal(item.UnitPrice) {
				return nil, apperror.NewValidationError("items", "product %s is listed with different unit prices", item.ProductID)
			}
			out[i].Quantity += item.Quantity
			continue
		}
		byID[item.ProductID] = len(out)
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func validateOrder(input *dto.CreateOrderInput, items []dto.OrderItemInput) (totals, error) {
	var t totals
	if input.UserID == "" {
		return t, apperror.NewValidationError("user_id", "user id is required")
	}
	if input.CustomerID == "" {
		return t, apperror.NewValidationError("customer_id", "customer id is required")
	}
	if input.TaxPercentage.IsNegative() || input.TaxPercentage.GreaterThan(hundred) {
		return t, apperror.NewValidationError("tax_percentage", "tax percentage must be between 0 and 100")
	}
	if input.ShippingCost.IsNegative() {
		return t, apperror.NewValidationError("shipping_cost", "shipping cost cannot be negative")
	}
	if input.DiscountAmount.IsNegative() {
		return t, apperror.NewValidationError("discount_amount", "discount cannot be negative")
	}
	if input.DiscountAmount.IsPositive() &&
		(input.DiscountJustification == nil || strings.TrimSpace(*input.DiscountJustification) == "") {
		return t, apperror.NewValidationError("discount_justification", "a discount requires a justification")
	}

	for _, item := range items {
		t.subtotal = t.subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	t.tax = t.subtotal.Mul(input.TaxPercentage).Div(hundred).Round(2)
	gross := t.subtotal.Add(t.tax).Add(input.ShippingCost)
	if input.DiscountAmount.GreaterThan(gross) {
		return t, apperror.NewValidationError("discount_amount", "discount %s exceeds order amount %s",
			input.DiscountAmount.StringFixed(2), gross.StringFixed(2))
	}
	t.total = gross.Sub(input.DiscountAmount)
	return t, nil
}

// lockItems locks every product on the order and rejects unknown or inactive ones.
func lockItems(ctx context.Context, tx order.TxRepository, items []dto.OrderItemInput) (map[string]*model.Product, error) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	locked, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		p, ok := locked[id]
		if !ok {
			return nil, apperror.NewValidationError("items", "product %s not found", id)
		}
		if !p.IsActive {
			return nil, apperror.NewValidationError("items", "product %s is not active", id)
		}
	}
	return locked, nil
}

func newHistory(orderID, userID string, status model.OrderStatus, notes *string, at time.Time) model.OrderStatusHistory {
	return model.OrderStatusHistory{
		ID:          uuid.New().String(),
		OrderID:     orderID,
		ChangedByID: userID,
		Status:      status,
		Notes:       notes,
		CreatedAt:   at,
	}
}
