package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/metrics"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/notifier"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
	"go.uber.org/zap"
)

type orderUseCase struct {
	repo      order.Repository
	publisher notifier.Publisher
	cache     order.ProductCache
	logger    logger.ZapLogger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewOrderUseCase accepts a nil publisher and a nil cache.
func NewOrderUseCase(repo order.Repository, publisher notifier.Publisher, cache order.ProductCache, log logger.ZapLogger, m *metrics.Metrics) order.UseCase {
	if publisher == nil {
		publisher = notifier.Nop()
	}
	return &orderUseCase{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		logger:    log,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// stockWrite is one committed product mutation waiting for its post-commit side effects.
type stockWrite struct {
	product    model.Product
	movement   *model.InventoryMovement
	transition alert.Transition
}

func (uc *orderUseCase) afterCommit(ctx context.Context, writes []stockWrite) {
	for i := range writes {
		w := &writes[i]
		if w.transition != alert.TransitionNone {
			uc.metrics.RecordAlert(w.transition.String())
			uc.logger.Info("out of stock alert transition",
				zap.String("product_id", w.product.ID),
				zap.String("transition", w.transition.String()),
			)
		}
		if w.movement == nil {
			continue
		}
		if err := uc.publisher.Publish(ctx, notifier.NewStockEvent(&w.product, w.movement)); err != nil {
			uc.logger.Warn("stock event publish failed", zap.String("product_id", w.product.ID), zap.Error(err))
		}
	}
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := uc.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, apperror.Wrap("get order", err)
	}
	if o == nil {
		return nil, apperror.NewNotFound("order", id)
	}
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	if filters.Status != "" && !model.OrderStatus(filters.Status).Valid() {
		return nil, 0, apperror.NewValidationError("status", "unknown order status %q", filters.Status)
	}
	items, total, err := uc.repo.ListOrders(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Wrap("list orders", err)
	}
	return items, total, nil
}

func (uc *orderUseCase) logRejection(msg, orderRef string, err error) {
	appErr := apperror.As(err)
	if appErr.Code() == apperror.CodeStockUpdate {
		uc.logger.Error(msg, zap.String("order", orderRef), zap.Error(err))
		return
	}
	uc.logger.Info(msg,
		zap.String("order", orderRef),
		zap.String("code", appErr.Code()),
		zap.String("reason", err.Error()),
	)
}

func (uc *orderUseCase) invalidateProductCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}
