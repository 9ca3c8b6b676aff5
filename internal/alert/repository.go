package alert

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// TxRepository is the alert write surface available inside a stock transaction.
type TxRepository interface {
	FindActiveAlert(ctx context.Context, productID string, alertType model.AlertType) (*model.InventoryAlert, error)
	CreateAlert(ctx context.Context, a *model.InventoryAlert) error
	// ResolveAlerts deactivates every active alert of the type and reports how many it touched.
	ResolveAlerts(ctx context.Context, productID string, alertType model.AlertType, at time.Time) (int, error)
	// ListZeroStockWithoutAlert locks and returns active products at zero stock lacking an active alert.
	ListZeroStockWithoutAlert(ctx context.Context) ([]model.Product, error)
}

type Repository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	ListAlerts(ctx context.Context, filters *dto.AlertFilters) ([]model.InventoryAlert, int, error)
	Statistics(ctx context.Context, since time.Time) (*dto.AlertStatistics, error)
}
