package usecase

import (
	"context"
	"math"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"go.uber.org/zap"
)

// SuggestReorderPoint derives a reorder point from trailing sales:
// ceil(avgDaily * leadTime) + ceil(avgDaily * safetyDays).
func (uc *inventoryUseCase) SuggestReorderPoint(ctx context.Context, productID string, leadTimeDays, safetyStockDays int) (*dto.ReorderSuggestion, error) {
	rules := uc.rules.Reorder
	if leadTimeDays <= 0 {
		leadTimeDays = rules.DefaultLeadTimeDays
	}
	if safetyStockDays < 0 {
		safetyStockDays = rules.DefaultSafetyStockDays
	}

	p, err := uc.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, apperror.Wrap("read product", err)
	}
	if p == nil {
		return nil, apperror.NewNotFound("product", productID)
	}

	since := uc.now().AddDate(0, 0, -rules.SalesWindowDays)
	sold, err := uc.repo.SumSalesSince(ctx, productID, since)
	if err != nil {
		return nil, apperror.Wrap("sum sales", err)
	}

	s := &dto.ReorderSuggestion{
		ProductID:           p.ID,
		ProductName:         p.Name,
		CurrentReorderPoint: p.ReorderPoint,
		TotalSold:           sold,
		WindowDays:          rules.SalesWindowDays,
		LeadTimeDays:        leadTimeDays,
		SafetyStockDays:     safetyStockDays,
	}
	if sold == 0 || rules.SalesWindowDays <= 0 {
		s.SuggestedReorderPoint = rules.FallbackSuggestion
		s.UsedFallback = true
		return s, nil
	}

	avg := float64(sold) / float64(rules.SalesWindowDays)
	s.AverageDailySales = math.Round(avg*100) / 100
	s.SafetyStock = int(math.Ceil(avg * float64(safetyStockDays)))
	s.SuggestedReorderPoint = int(math.Ceil(avg*float64(leadTimeDays))) + s.SafetyStock
	if s.SuggestedReorderPoint < 1 {
		s.SuggestedReorderPoint = 1
	}
	return s, nil
}

func (uc *inventoryUseCase) checkReorderRange(value int) error {
	if value < 0 {
		return apperror.NewValidationError("reorder_point", "reorder point cannot be negative")
	}
	if value > uc.rules.Reorder.MaxReorderPoint {
		return apperror.NewValidationError("reorder_point", "reorder point cannot exceed %d units", uc.rules.Reorder.MaxReorderPoint)
	}
	return nil
}

func (uc *inventoryUseCase) ValidateReorderPoint(ctx context.Context, productID string, reorderPoint int) (*dto.ReorderValidation, error) {
	if err := uc.checkReorderRange(reorderPoint); err != nil {
		return &dto.ReorderValidation{Valid: false, Error: apperror.As(err).PublicMessage()}, nil
	}

	result := &dto.ReorderValidation{Valid: true}
	if reorderPoint == 0 {
		result.Warning = "no reorder alerts will be raised for this product"
	}
	if productID != "" {
		p, err := uc.repo.GetProduct(ctx, productID)
		if err != nil {
			return nil, apperror.Wrap("read product", err)
		}
		if p == nil {
			return nil, apperror.NewNotFound("product", productID)
		}
		if reorderPoint >= p.StockQuantity {
			result.Warning = "current stock is already at or below this reorder point"
		}
	}
	return result, nil
}

func (uc *inventoryUseCase) UpdateReorderPoint(ctx context.Context, productID string, reorderPoint int) (*model.Product, error) {
	if err := uc.checkReorderRange(reorderPoint); err != nil {
		return nil, err
	}

	var product *model.Product
	err := uc.repo.RunInTx(ctx, func(ctx context.Context, tx inventory.TxRepository) error {
		locked, err := tx.LockProducts(ctx, []string{productID})
		if err != nil {
			return err
		}
		p, ok := locked[productID]
		if !ok {
			return apperror.NewNotFound("product", productID)
		}
		at := uc.now()
		if err := tx.UpdateReorderPoint(ctx, productID, reorderPoint, at); err != nil {
			return err
		}
		p.ReorderPoint = reorderPoint
		p.UpdatedAt = at
		product = p
		return nil
	})
	if err != nil {
		return nil, apperror.Wrap("update reorder point", apperror.WithProductID(err, productID))
	}
	return product, nil
}

// BulkUpdateReorderPoints applies one reorder point to every active product in a category.
// Without OverwriteExisting, products already moved off the default are left alone.
func (uc *inventoryUseCase) BulkUpdateReorderPoints(ctx context.Context, input *dto.BulkReorderInput) (*dto.BulkReorderResult, error) {
	if input.CategoryID == "" {
		return nil, apperror.NewValidationError("category_id", "category id is required")
	}
	if err := uc.checkReorderRange(input.ReorderPoint); err != nil {
		return nil, err
	}

	result := &dto.BulkReorderResult{Updated: []dto.ReorderChange{}, Skipped: []dto.ReorderSkip{}}
	err := uc.repo.RunInTx(ctx, func(ctx context.Context, tx inventory.TxRepository) error {
		products, err := tx.LockProductsByCategory(ctx, input.CategoryID)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return apperror.NewValidationError("category_id", "no active products found in category %s", input.CategoryID)
		}

		at := uc.now()
		for _, p := range products {
			if !input.OverwriteExisting && p.ReorderPoint != uc.rules.Reorder.DefaultReorderPoint {
				result.Skipped = append(result.Skipped, dto.ReorderSkip{
					ProductID:    p.ID,
					SKU:          p.SKU,
					Name:         p.Name,
					ReorderPoint: p.ReorderPoint,
					Reason:       "product already has a custom reorder point",
				})
				continue
			}
			if err := tx.UpdateReorderPoint(ctx, p.ID, input.ReorderPoint, at); err != nil {
				return err
			}
			result.Updated = append(result.Updated, dto.ReorderChange{
				ProductID:       p.ID,
				SKU:             p.SKU,
				Name:            p.Name,
				OldReorderPoint: p.ReorderPoint,
				NewReorderPoint: input.ReorderPoint,
			})
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Wrap("bulk update reorder points", err)
	}

	uc.logger.Info("reorder points updated",
		zap.String("category_id", input.CategoryID),
		zap.Int("updated", len(result.Updated)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (uc *inventoryUseCase) ListAtOrBelowReorderPoint(ctx context.Context) ([]model.Product, error) {
	products, err := uc.repo.ListAtOrBelowReorderPoint(ctx)
	if err != nil {
		return nil, apperror.Wrap("list products at reorder point", err)
	}
	return products, nil
}
