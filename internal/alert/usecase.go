package alert

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/alert/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	ListAlerts(ctx context.Context, filters *dto.AlertFilters) ([]model.InventoryAlert, int, error)
	Statistics(ctx context.Context) (*dto.AlertStatistics, error)
	SyncOutOfStock(ctx context.Context) (*dto.SyncResult, error)
}
