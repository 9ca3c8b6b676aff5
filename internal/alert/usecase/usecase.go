package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/alert/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/metrics"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"go.uber.org/zap"
)

const statisticsWindow = 30 * 24 * time.Hour

type alertUseCase struct {
	repo    alert.Repository
	logger  logger.ZapLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAlertUseCase(repo alert.Repository, log logger.ZapLogger, m *metrics.Metrics) alert.UseCase {
	return &alertUseCase{
		repo:    repo,
		logger:  log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *alertUseCase) ListAlerts(ctx context.Context, filters *dto.AlertFilters) ([]model.InventoryAlert, int, error) {
	items, total, err := uc.repo.ListAlerts(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Wrap("list alerts", err)
	}
	return items, total, nil
}

func (uc *alertUseCase) Statistics(ctx context.Context) (*dto.AlertStatistics, error) {
	stats, err := uc.repo.Statistics(ctx, uc.now().Add(-statisticsWindow))
	if err != nil {
		return nil, apperror.Wrap("alert statistics", err)
	}
	return stats, nil
}

// SyncOutOfStock backfills an alert for every zero-stock product that lacks one. It is a
// repair routine; steady-state alerts come from the stock mutation path.
func (uc *alertUseCase) SyncOutOfStock(ctx context.Context) (*dto.SyncResult, error) {
	result := &dto.SyncResult{ProductIDs: []string{}}
	at := uc.now()

	err := uc.repo.RunInTx(ctx, func(ctx context.Context, tx alert.TxRepository) error {
		products, err := tx.ListZeroStockWithoutAlert(ctx)
		if err != nil {
			return err
		}
		for i := range products {
			if err := tx.CreateAlert(ctx, alert.NewOutOfStockAlert(&products[i], at)); err != nil {
				return err
			}
			result.ProductIDs = append(result.ProductIDs, products[i].ID)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("out of stock sync failed", zap.Error(err))
		return nil, apperror.Wrap("sync out of stock alerts", err)
	}

	result.Created = len(result.ProductIDs)
	for range result.ProductIDs {
		uc.metrics.RecordAlert("backfill")
	}
	uc.logger.Info("out of stock alerts synchronized", zap.Int("created", result.Created))
	return result, nil
}
