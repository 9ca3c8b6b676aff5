package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/notifier"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo      product.Repository
	cache     product.ListCache
	publisher notifier.Publisher
	reorder   inventory.ReorderRules
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewProductUseCase accepts a nil cache and a nil publisher.
func NewProductUseCase(
	repo product.Repository,
	cache product.ListCache,
	publisher notifier.Publisher,
	reorder inventory.ReorderRules,
	log logger.ZapLogger,
) product.UseCase {
	if publisher == nil {
		publisher = notifier.Nop()
	}
	return &productUseCase{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		reorder:   reorder,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*dto.ProductView, error) {
	if err := uc.validate(input); err != nil {
		return nil, err
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.SKU)
	if err != nil {
		return nil, apperror.Wrap("check sku", err)
	}
	if !unique {
		return nil, apperror.NewValidationError("sku", "SKU %s already exists", input.SKU)
	}

	now := uc.now()
	reorderPoint := uc.reorder.DefaultReorderPoint
	if input.ReorderPoint != nil {
		reorderPoint = *input.ReorderPoint
	}
	userID := input.UserID

	p := &model.Product{
		BaseModel:       model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CategoryID:      input.CategoryID,
		SKU:             strings.TrimSpace(input.SKU),
		Name:            strings.TrimSpace(input.Name),
		CostPrice:       input.CostPrice,
		SalePrice:       input.SalePrice,
		StockQuantity:   input.InitialStock,
		ReorderPoint:    reorderPoint,
		Version:         1,
		IsActive:        true,
		LastUpdatedByID: &userID,
	}
	if input.InitialStock > 0 {
		p.StockLastUpdated = &now
	}

	var movement *model.InventoryMovement
	err = uc.repo.RunInTx(ctx, func(ctx context.Context, tx product.TxRepository) error {
		if err := tx.Create(ctx, p); err != nil {
			return err
		}
		if input.InitialStock == 0 {
			return nil
		}
		movement = &model.InventoryMovement{
			ID:            uuid.New().String(),
			ProductID:     p.ID,
			UserID:        userID,
			MovementType:  model.MovementInitialStock,
			Quantity:      input.InitialStock,
			PreviousStock: 0,
			NewStock:      input.InitialStock,
			CreatedAt:     now,
		}
		return tx.AppendMovement(ctx, movement)
	})
	if err != nil {
		uc.logger.Error("failed to create product", zap.String("sku", input.SKU), zap.Error(err))
		return nil, apperror.Wrap("create product", err)
	}

	uc.logger.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("sku", p.SKU),
		zap.Int("initial_stock", p.StockQuantity),
	)
	uc.invalidateListCache(ctx)
	// Reload for the joined user name.
	if stored, err := uc.repo.FindByID(ctx, p.ID); err == nil && stored != nil {
		p = stored
	}
	if movement != nil {
		if err := uc.publisher.Publish(ctx, notifier.NewStockEvent(p, movement)); err != nil {
			uc.logger.Warn("stock event publish failed", zap.String("product_id", p.ID), zap.Error(err))
		}
	}

	view := dto.NewProductView(*p)
	return &view, nil
}

func (uc *productUseCase) validate(input *dto.CreateProductInput) error {
	switch {
	case input.UserID == "":
		return apperror.NewValidationError("user_id", "user id is required")
	case strings.TrimSpace(input.SKU) == "":
		return apperror.NewValidationError("sku", "SKU is required")
	case strings.TrimSpace(input.Name) == "":
		return apperror.NewValidationError("name", "name is required")
	case input.CostPrice.IsNegative():
		return apperror.NewValidationError("cost_price", "cost price cannot be negative")
	case input.SalePrice.IsNegative():
		return apperror.NewValidationError("sale_price", "sale price cannot be negative")
	case input.InitialStock < 0:
		return apperror.NewValidationError("initial_stock", "initial stock cannot be negative")
	}
	if input.ReorderPoint != nil && (*input.ReorderPoint < 0 || *input.ReorderPoint > uc.reorder.MaxReorderPoint) {
		return apperror.NewValidationError("reorder_point", "reorder point must be between 0 and %d", uc.reorder.MaxReorderPoint)
	}
	return nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*dto.ProductView, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap("get product", err)
	}
	if p == nil {
		return nil, apperror.NewNotFound("product", id)
	}
	view := dto.NewProductView(*p)
	return &view, nil
}

type cachedPage struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]dto.ProductView, int, error) {
	if filters.StockStatus != "" {
		switch model.StockStatus(filters.StockStatus) {
		case model.StockStatusOutOfStock, model.StockStatusLowStock, model.StockStatusInStock:
		default:
			return nil, 0, apperror.NewValidationError("stock_status", "unknown stock status %q", filters.StockStatus)
		}
	}

	// 1. Check Cache
	cacheKey, err := generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		if data, ok := uc.cache.Get(ctx, cacheKey); ok {
			var page cachedPage
			if err := json.Unmarshal(data, &page); err == nil {
				return toViews(page.Products), page.Count, nil
			}
		}
	}

	// 2. DB Query
	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Wrap("list products", err)
	}

	// 3. Set Cache
	if cacheKey != "" && uc.cache != nil {
		if data, err := json.Marshal(cachedPage{Products: products, Count: count}); err == nil {
			uc.cache.Set(ctx, cacheKey, data)
		}
	}

	return toViews(products), count, nil
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.logger.Warn("failed to invalidate product list cache", zap.Error(err))
	}
}

func generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", md5.Sum(data)), nil
}

func toViews(products []model.Product) []dto.ProductView {
	views := make([]dto.ProductView, len(products))
	for i, p := range products {
		views[i] = dto.NewProductView(p)
	}
	return views
}
