package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 50

func (uc *inventoryUseCase) GetStockHistory(ctx context.Context, productID string, limit int) ([]model.InventoryMovement, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	items, _, err := uc.repo.ListMovements(ctx, &dto.MovementFilters{
		ProductID: productID,
		Page:      1,
		PageSize:  limit,
	})
	if err != nil {
		return nil, apperror.Wrap("stock history", err)
	}
	return items, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	if filters.MovementType != "" && !model.MovementType(filters.MovementType).Valid() {
		return nil, 0, apperror.NewValidationError("movement_type", "unknown movement type %q", filters.MovementType)
	}
	items, total, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Wrap("list movements", err)
	}
	return items, total, nil
}

func (uc *inventoryUseCase) MovementStatistics(ctx context.Context, from, to *time.Time) ([]dto.MovementStat, error) {
	stats, err := uc.repo.MovementStatistics(ctx, from, to)
	if err != nil {
		return nil, apperror.Wrap("movement statistics", err)
	}
	return stats, nil
}

// VerifyProductLedger replays a product's movements and compares the result with the
// materialized stock_quantity.
func (uc *inventoryUseCase) VerifyProductLedger(ctx context.Context, productID string) (*dto.LedgerReport, error) {
	p, err := uc.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, apperror.Wrap("read product", err)
	}
	if p == nil {
		return nil, apperror.NewNotFound("product", productID)
	}
	movements, err := uc.repo.ProductMovements(ctx, productID)
	if err != nil {
		return nil, apperror.Wrap("read ledger", err)
	}

	report := &dto.LedgerReport{
		ProductID:     productID,
		StockQuantity: p.StockQuantity,
		Movements:     len(movements),
	}
	replayed, err := inventory.ReplayLedger(movements)
	report.ReplayedStock = replayed
	switch {
	case err != nil:
		report.Problem = err.Error()
	case replayed != p.StockQuantity:
		report.Problem = "replayed stock differs from stock_quantity"
	default:
		report.Consistent = true
	}

	if !report.Consistent {
		uc.logger.Error("ledger inconsistency",
			zap.String("product_id", productID),
			zap.Int("stock_quantity", p.StockQuantity),
			zap.Int("replayed_stock", replayed),
			zap.String("problem", report.Problem),
		)
	}
	return report, nil
}
