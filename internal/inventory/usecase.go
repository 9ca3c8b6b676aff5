package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	// Stock mutator
	UpdateStock(ctx context.Context, input *dto.UpdateStockInput) (*dto.StockResult, error)
	RetryWithLatestVersion(ctx context.Context, input *dto.UpdateStockInput) (*dto.StockResult, error)
	SetStockLevel(ctx context.Context, input *dto.SetStockLevelInput) (*dto.StockResult, error)

	// Ledger
	GetStockHistory(ctx context.Context, productID string, limit int) ([]model.InventoryMovement, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
	MovementStatistics(ctx context.Context, from, to *time.Time) ([]dto.MovementStat, error)
	VerifyProductLedger(ctx context.Context, productID string) (*dto.LedgerReport, error)

	// Manual adjustments
	CreateManualAdjustment(ctx context.Context, input *dto.AdjustmentInput) (*dto.AdjustmentResult, error)
	ListAdjustments(ctx context.Context, filters *dto.AdjustmentFilters) ([]model.InventoryMovement, error)

	// Reorder advisor
	SuggestReorderPoint(ctx context.Context, productID string, leadTimeDays, safetyStockDays int) (*dto.ReorderSuggestion, error)
	ValidateReorderPoint(ctx context.Context, productID string, reorderPoint int) (*dto.ReorderValidation, error)
	UpdateReorderPoint(ctx context.Context, productID string, reorderPoint int) (*model.Product, error)
	BulkUpdateReorderPoints(ctx context.Context, input *dto.BulkReorderInput) (*dto.BulkReorderResult, error)
	ListAtOrBelowReorderPoint(ctx context.Context) ([]model.Product, error)
}
