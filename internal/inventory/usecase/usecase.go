package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/metrics"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/notifier"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo      inventory.Repository
	publisher notifier.Publisher
	rules     inventory.Rules
	logger    logger.ZapLogger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewInventoryUseCase(
	repo inventory.Repository,
	publisher notifier.Publisher,
	rules inventory.Rules,
	log logger.ZapLogger,
	m *metrics.Metrics,
) inventory.UseCase {
	if publisher == nil {
		publisher = notifier.Nop()
	}
	return &inventoryUseCase{
		repo:      repo,
		publisher: publisher,
		rules:     rules,
		logger:    log,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// notify runs after commit. Its failures never reach the caller.
func (uc *inventoryUseCase) notify(ctx context.Context, p *model.Product, m *model.InventoryMovement) {
	if err := uc.publisher.Publish(ctx, notifier.NewStockEvent(p, m)); err != nil {
		uc.logger.Warn("stock event publish failed", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *inventoryUseCase) recordAlert(productID string, t alert.Transition) {
	if t == alert.TransitionNone {
		return
	}
	uc.metrics.RecordAlert(t.String())
	uc.logger.Info("out of stock alert transition",
		zap.String("product_id", productID),
		zap.String("transition", t.String()),
	)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
