package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"go.uber.org/zap"
)

const retryBackoff = 20 * time.Millisecond

func (uc *inventoryUseCase) UpdateStock(ctx context.Context, input *dto.UpdateStockInput) (*dto.StockResult, error) {
	if input.ProductID == "" {
		return nil, apperror.NewValidationError("product_id", "product id is required")
	}
	if input.UserID == "" {
		return nil, apperror.NewValidationError("user_id", "user id is required")
	}
	if !input.MovementType.Valid() {
		return nil, apperror.NewValidationError("movement_type", "unknown movement type %q", input.MovementType)
	}

	start := time.Now()
	var (
		product    *model.Product
		movement   *model.InventoryMovement
		transition alert.Transition
	)
	err := uc.repo.RunInTx(ctx, func(ctx context.Context, tx inventory.TxRepository) error {
		locked, err := tx.LockProducts(ctx, []string{input.ProductID})
		if err != nil {
			return err
		}
		p, ok := locked[input.ProductID]
		if !ok {
			return apperror.NewNotFound("product", input.ProductID)
		}
		if input.ExpectedVersion != nil && *input.ExpectedVersion != p.Version {
			return &apperror.ConcurrencyError{
				ProductID:       p.ID,
				ExpectedVersion: *input.ExpectedVersion,
				ActualVersion:   p.Version,
			}
		}

		movement, transition, err = inventory.ApplyStockChange(ctx, tx, p, inventory.StockChange{
			Delta:        input.Delta,
			UserID:       input.UserID,
			MovementType: input.MovementType,
			Reason:       input.Reason,
			Reference:    input.Reference,
			Notes:        input.Notes,
			At:           uc.now(),
		})
		product = p
		return err
	})
	err = apperror.WithProductID(err, input.ProductID)
	uc.metrics.ObserveTx("update_stock", start)
	uc.metrics.RecordStockMutation(string(input.MovementType), err)
	if err != nil {
		uc.logRejection("stock update rejected", input.ProductID, err)
		return nil, apperror.Wrap("update stock", err)
	}

	uc.recordAlert(product.ID, transition)
	uc.logger.Info("stock updated",
		zap.String("product_id", product.ID),
		zap.String("movement_type", string(movement.MovementType)),
		zap.Int("quantity", movement.Quantity),
		zap.Int("new_stock", movement.NewStock),
		zap.Int("version", product.Version),
	)
	uc.notify(ctx, product, movement)

	return &dto.StockResult{Product: product, Movement: movement, StockStatus: product.StockStatus()}, nil
}

// RetryWithLatestVersion reads the current version and retries UpdateStock on conflict,
// up to the configured number of attempts.
func (uc *inventoryUseCase) RetryWithLatestVersion(ctx context.Context, input *dto.UpdateStockInput) (*dto.StockResult, error) {
	attempts := uc.rules.MaxVersionRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		current, err := uc.repo.GetProduct(ctx, input.ProductID)
		if err != nil {
			return nil, apperror.Wrap("read product version", err)
		}
		if current == nil {
			return nil, apperror.NewNotFound("product", input.ProductID)
		}

		attemptInput := *input
		version := current.Version
		attemptInput.ExpectedVersion = &version

		result, err := uc.UpdateStock(ctx, &attemptInput)
		if err == nil {
			return result, nil
		}
		if !apperror.IsConcurrency(err) {
			return nil, err
		}
		lastErr = err
		uc.logger.Debug("version conflict, retrying",
			zap.String("product_id", input.ProductID),
			zap.Int("attempt", attempt),
		)

		select {
		case <-ctx.Done():
			return nil, apperror.Wrap("retry stock update", ctx.Err())
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return nil, lastErr
}

// SetStockLevel records a manual count: the difference to the current stock becomes one
// manual_adjustment movement.
func (uc *inventoryUseCase) SetStockLevel(ctx context.Context, input *dto.SetStockLevelInput) (*dto.StockResult, error) {
	if input.NewQuantity < 0 {
		return nil, apperror.NewValidationError("new_quantity", "stock level cannot be negative")
	}
	current, err := uc.repo.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, apperror.Wrap("read product", err)
	}
	if current == nil {
		return nil, apperror.NewNotFound("product", input.ProductID)
	}

	delta := input.NewQuantity - current.StockQuantity
	if delta == 0 {
		return nil, apperror.NewValidationError("new_quantity", "stock is already %d", input.NewQuantity)
	}

	version := current.Version
	return uc.UpdateStock(ctx, &dto.UpdateStockInput{
		ProductID:       input.ProductID,
		Delta:           delta,
		UserID:          input.UserID,
		MovementType:    model.MovementManualAdjustment,
		Reason:          optional(input.Reason),
		Notes:           input.Notes,
		ExpectedVersion: &version,
	})
}

func (uc *inventoryUseCase) logRejection(msg, productID string, err error) {
	var appErr apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code() == apperror.CodeStockUpdate {
			uc.logger.Error(msg, zap.String("product_id", productID), zap.Error(err))
			return
		}
		uc.logger.Info(msg,
			zap.String("product_id", productID),
			zap.String("code", appErr.Code()),
			zap.String("reason", err.Error()),
		)
		return
	}
	uc.logger.Error(msg, zap.String("product_id", productID), zap.Error(err))
}
