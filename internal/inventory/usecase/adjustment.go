package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateManualAdjustment validates, classifies and applies a human-entered correction in
// one transaction under the product row lock.
func (uc *inventoryUseCase) CreateManualAdjustment(ctx context.Context, input *dto.AdjustmentInput) (*dto.AdjustmentResult, error) {
	if err := uc.validateAdjustmentInput(input); err != nil {
		return nil, err
	}

	delta := input.Quantity
	if input.Direction == dto.AdjustmentDecrease {
		delta = -input.Quantity
	}
	reason := strings.TrimSpace(input.Reason)
	notes := fmt.Sprintf("manual adjustment: %s", input.Direction)

	start := time.Now()
	result := &dto.AdjustmentResult{}
	var transition alert.Transition
	err := uc.repo.RunInTx(ctx, func(ctx context.Context, tx inventory.TxRepository) error {
		locked, err := tx.LockProducts(ctx, []string{input.ProductID})
		if err != nil {
			return err
		}
		p, ok := locked[input.ProductID]
		if !ok {
			return apperror.NewNotFound("product", input.ProductID)
		}

		current := p.StockQuantity
		if current+delta < 0 {
			return apperror.NewAdjustmentValidationError(
				"adjustment would leave negative stock: current %d, decrease %d", current, input.Quantity)
		}

		result.ValueImpact = valueImpact(p.CostPrice, current, delta)
		result.IsSignificant = uc.isSignificant(current, input.Quantity)

		if uc.requiresConfirmation(input.Direction, current, input.Quantity) && !input.Confirmed {
			snapshot := *p
			result.Product = &snapshot
			result.RequiresConfirmation = true
			result.Message = fmt.Sprintf("this adjustment decreases stock by more than %d%%, confirm to continue",
				int(uc.rules.Adjustment.DoubleConfirmRatio*100))
			return nil
		}

		movement, t, err := inventory.ApplyStockChange(ctx, tx, p, inventory.StockChange{
			Delta:        delta,
			UserID:       input.UserID,
			MovementType: model.MovementManualAdjustment,
			Reason:       &reason,
			Notes:        &notes,
			At:           uc.now(),
		})
		if err != nil {
			return err
		}
		transition = t
		result.Product = p
		result.Movement = movement
		result.Message = "inventory adjustment applied"
		return nil
	})
	uc.metrics.ObserveTx("manual_adjustment", start)
	if err != nil {
		err = apperror.WithProductID(err, input.ProductID)
		uc.metrics.RecordStockMutation(string(model.MovementManualAdjustment), err)
		uc.logRejection("manual adjustment rejected", input.ProductID, err)
		return nil, apperror.Wrap("manual adjustment", err)
	}

	if result.RequiresConfirmation {
		uc.logger.Info("manual adjustment awaiting confirmation",
			zap.String("product_id", input.ProductID),
			zap.Int("quantity", delta),
			zap.String("impact", result.ValueImpact.Impact.String()),
		)
		return result, nil
	}

	uc.metrics.RecordStockMutation(string(model.MovementManualAdjustment), nil)
	uc.recordAlert(result.Product.ID, transition)
	if result.IsSignificant {
		uc.logger.Warn("significant inventory adjustment",
			zap.String("product_id", result.Product.ID),
			zap.String("product_name", result.Product.Name),
			zap.Int("quantity", delta),
			zap.String("user_id", input.UserID),
			zap.String("impact", result.ValueImpact.Impact.String()),
		)
	}
	uc.notify(ctx, result.Product, result.Movement)
	return result, nil
}

func (uc *inventoryUseCase) validateAdjustmentInput(input *dto.AdjustmentInput) error {
	rules := uc.rules.Adjustment
	if input.Direction != dto.AdjustmentIncrease && input.Direction != dto.AdjustmentDecrease {
		return apperror.NewAdjustmentValidationError("direction must be %q or %q", dto.AdjustmentIncrease, dto.AdjustmentDecrease)
	}
	if input.Quantity <= 0 {
		return apperror.NewAdjustmentValidationError("adjustment quantity must be greater than 0")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return apperror.NewAdjustmentValidationError("a reason is required")
	}
	if len([]rune(reason)) < rules.MinReasonLength {
		return apperror.NewAdjustmentValidationError("reason must be at least %d characters", rules.MinReasonLength)
	}
	if len([]rune(reason)) > rules.MaxReasonLength {
		return apperror.NewAdjustmentValidationError("reason cannot exceed %d characters", rules.MaxReasonLength)
	}
	if input.UserID == "" {
		return apperror.NewAdjustmentValidationError("user id is required")
	}
	return nil
}

func (uc *inventoryUseCase) requiresConfirmation(direction dto.AdjustmentDirection, current, qty int) bool {
	if direction != dto.AdjustmentDecrease || current <= 0 {
		return false
	}
	return float64(qty)/float64(current) > uc.rules.Adjustment.DoubleConfirmRatio
}

func (uc *inventoryUseCase) isSignificant(current, qty int) bool {
	if current <= 0 {
		return false
	}
	return float64(qty)/float64(current) > uc.rules.Adjustment.SignificantRatio
}

func valueImpact(costPrice decimal.Decimal, current, delta int) dto.ValueImpact {
	previous := costPrice.Mul(decimal.NewFromInt(int64(current)))
	next := costPrice.Mul(decimal.NewFromInt(int64(current + delta)))
	return dto.ValueImpact{
		PreviousValue: previous.Round(2),
		NewValue:      next.Round(2),
		Impact:        next.Sub(previous).Round(2),
		CostPrice:     costPrice,
	}
}

func (uc *inventoryUseCase) ListAdjustments(ctx context.Context, filters *dto.AdjustmentFilters) ([]model.InventoryMovement, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	items, _, err := uc.repo.ListMovements(ctx, &dto.MovementFilters{
		ProductID:    filters.ProductID,
		UserID:       filters.UserID,
		MovementType: string(model.MovementManualAdjustment),
		Page:         1,
		PageSize:     limit,
	})
	if err != nil {
		return nil, apperror.Wrap("list adjustments", err)
	}
	return items, nil
}
