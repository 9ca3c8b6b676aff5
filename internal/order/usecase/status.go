package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"go.uber.org/zap"
)

// CancelOrder restores every reserved unit. Only pending orders can be cancelled, even though
// the status graph lists cancellation from later states.
func (uc *orderUseCase) CancelOrder(ctx context.Context, input *dto.CancelOrderInput) (*model.Order, error) {
	if input.UserID == "" {
		return nil, apperror.NewValidationError("user_id", "user id is required")
	}

	start := time.Now()
	now := uc.now()
	var writes []stockWrite
	err := uc.repo.RunInTx(ctx, func(ctx context.Context, tx order.TxRepository) error {
		o, err := lockOrder(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderStatusPending {
			return apperror.NewValidationError("status", "order %s is %s; only pending orders can be cancelled", o.OrderNumber, o.Status)
		}

		locked, err := lockOrderProducts(ctx, tx, o)
		if err != nil {
			return err
		}
		for _, item := range o.Items {
			p := locked[item.ProductID]
			m, transition, err := inventory.ApplyStockChange(ctx, tx, p, inventory.StockChange{
				Delta:          item.Quantity,
				ReservedDelta:  -item.Quantity,
				UserID:         input.UserID,
				MovementType:   model.MovementOrderCancellation,
				Reference:      &o.OrderNumber,
				Notes:          input.Notes,
				RelatedOrderID: &o.ID,
				At:             now,
			})
			if err != nil {
				return err
			}
			writes = append(writes, stockWrite{product: *p, movement: m, transition: transition})
		}

		return changeStatus(ctx, tx, o, model.OrderStatusCancelled, input.UserID, input.Notes, now)
	})
	uc.metrics.ObserveTx("cancel_order", start)
	uc.metrics.RecordOrder("cancel", err)
	if err != nil {
		uc.logRejection("order cancellation rejected", input.OrderID, err)
		return nil, apperror.Wrap("cancel order", err)
	}

	uc.logger.Info("order cancelled", zap.String("order_id", input.OrderID), zap.Int("items", len(writes)))
	uc.afterCommit(ctx, writes)
	return uc.GetOrder(ctx, input.OrderID)
}

func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, input *dto.UpdateStatusInput) (*model.Order, error) {
	if !input.Status.Valid() {
		return nil, apperror.NewValidationError("status", "unknown order status %q", input.Status)
	}
	if input.Status == model.OrderStatusCancelled {
		return uc.CancelOrder(ctx, &dto.CancelOrderInput{OrderID: input.OrderID, UserID: input.UserID, Notes: input.Notes})
	}
	if input.UserID == "" {
		return nil, apperror.NewValidationError("user_id", "user id is required")
	}

	start := time.Now()
	now := uc.now()
	var previous model.OrderStatus
	err := uc.repo.RunInTx(ctx, func(ctx context.Context, tx order.TxRepository) error {
		o, err := lockOrder(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		previous = o.Status
		if !o.Status.CanTransitionTo(input.Status) {
			return apperror.NewValidationError("status", "cannot move order %s from %s to %s (allowed: %v)",
				o.OrderNumber, o.Status, input.Status, o.Status.AllowedTransitions())
		}

		if input.Status == model.OrderStatusDelivered {
			locked, err := lockOrderProducts(ctx, tx, o)
			if err != nil {
				return err
			}
			for _, item := range o.Items {
				if err := inventory.ReleaseReservation(ctx, tx, locked[item.ProductID], item.Quantity, input.UserID, now); err != nil {
					return err
				}
			}
		}

		return changeStatus(ctx, tx, o, input.Status, input.UserID, input.Notes, now)
	})
	uc.metrics.ObserveTx("update_order_status", start)
	uc.metrics.RecordOrder("status_"+string(input.Status), err)
	if err != nil {
		uc.logRejection("order status change rejected", input.OrderID, err)
		return nil, apperror.Wrap("update order status", err)
	}

	// Delivery moves reserved stock and versions without a stock event.
	if input.Status == model.OrderStatusDelivered {
		uc.invalidateProductCache(ctx)
	}

	uc.logger.Info("order status changed",
		zap.String("order_id", input.OrderID),
		zap.String("from", string(previous)),
		zap.String("to", string(input.Status)),
	)
	return uc.GetOrder(ctx, input.OrderID)
}

func lockOrder(ctx context.Context, tx order.TxRepository, id string) (*model.Order, error) {
	o, err := tx.LockOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperror.NewNotFound("order", id)
	}
	return o, nil
}

func lockOrderProducts(ctx context.Context, tx order.TxRepository, o *model.Order) (map[string]*model.Product, error) {
	ids := make([]string, len(o.Items))
	for i, item := range o.Items {
		ids[i] = item.ProductID
	}
	locked, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, apperror.NewNotFound("product", id)
		}
	}
	return locked, nil
}

func changeStatus(ctx context.Context, tx order.TxRepository, o *model.Order, status model.OrderStatus, userID string, notes *string, at time.Time) error {
	if err := tx.SaveOrderStatus(ctx, o.ID, status, at); err != nil {
		return err
	}
	h := newHistory(o.ID, userID, status, notes, at)
	return tx.AppendStatusHistory(ctx, &h)
}
