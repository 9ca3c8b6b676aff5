package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/database/postgres"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sale(productID string, qty int) *dto.UpdateStockInput {
	return &dto.UpdateStockInput{
		ProductID:    productID,
		Delta:        -qty,
		UserID:       testUser,
		MovementType: model.MovementSale,
	}
}

func TestUpdateStock_AppliesDeltaAndWritesMovement(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 20)

	res, err := f.uc.UpdateStock(context.Background(), sale("p1", 5))
	require.NoError(t, err)

	assert.Equal(t, 15, res.Product.StockQuantity)
	assert.Equal(t, 2, res.Product.Version)
	assert.Equal(t, model.StockStatusInStock, res.StockStatus)
	require.NotNil(t, res.Product.LastUpdatedByName)
	assert.Equal(t, "Ana Torres", *res.Product.LastUpdatedByName)

	assert.Equal(t, -5, res.Movement.Quantity)
	assert.Equal(t, 20, res.Movement.PreviousStock)
	assert.Equal(t, 15, res.Movement.NewStock)
	assert.Equal(t, testNow, res.Movement.CreatedAt)

	stored := f.product(t, "p1")
	assert.Equal(t, 15, stored.StockQuantity)
	assert.Equal(t, 2, stored.Version)
	assert.Len(t, f.movements(t, "p1"), 2)

	events := f.published.Events()
	require.Len(t, events, 1)
	assert.Equal(t, 15, events[0].StockQuantity)
	assert.Equal(t, -5, events[0].QuantityChange)
	assert.Equal(t, model.MovementSale, events[0].MovementType)
}

func TestUpdateStock_InsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 3)

	_, err := f.uc.UpdateStock(context.Background(), sale("p1", 5))

	var insufficient *apperror.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	require.Len(t, insufficient.Shortfalls, 1)
	assert.Equal(t, 5, insufficient.Shortfalls[0].Requested)
	assert.Equal(t, 3, insufficient.Shortfalls[0].Available)

	stored := f.product(t, "p1")
	assert.Equal(t, 3, stored.StockQuantity)
	assert.Equal(t, 1, stored.Version)
	assert.Len(t, f.movements(t, "p1"), 1)
	assert.Empty(t, f.published.Events())
}

func TestUpdateStock_StaleVersionIsConcurrencyError(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)

	in := sale("p1", 1)
	in.ExpectedVersion = intPtr(7)
	_, err := f.uc.UpdateStock(context.Background(), in)

	var conflict *apperror.ConcurrencyError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 7, conflict.ExpectedVersion)
	assert.Equal(t, 1, conflict.ActualVersion)
	assert.True(t, apperror.IsRetryable(err))
	assert.Equal(t, 10, f.product(t, "p1").StockQuantity)
}

func TestUpdateStock_CASRaceHasExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := sale("p1", 1)
			in.ExpectedVersion = intPtr(1)
			_, errs[i] = f.uc.UpdateStock(context.Background(), in)
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperror.IsConcurrency(err):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	stored := f.product(t, "p1")
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 9, stored.StockQuantity)
}

func TestUpdateStock_ZeroCrossingAlertIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 5)
	ctx := context.Background()

	_, err := f.uc.UpdateStock(ctx, sale("p1", 5))
	require.NoError(t, err)
	assert.Equal(t, 1, f.activeAlerts(t, "p1"))

	_, err = f.uc.UpdateStock(ctx, sale("p1", 5))
	var insufficient *apperror.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 1, f.activeAlerts(t, "p1"))

	_, err = f.uc.UpdateStock(ctx, &dto.UpdateStockInput{
		ProductID: "p1", Delta: 12, UserID: testUser, MovementType: model.MovementPurchase,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.activeAlerts(t, "p1"))
}

func TestUpdateStock_LedgerReplaysToStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 20)
	ctx := context.Background()

	steps := []*dto.UpdateStockInput{
		sale("p1", 4),
		{ProductID: "p1", Delta: 10, UserID: testUser, MovementType: model.MovementPurchase},
		sale("p1", 26),
		{ProductID: "p1", Delta: 3, UserID: testUser, MovementType: model.MovementManualAdjustment},
	}
	for _, s := range steps {
		_, err := f.uc.UpdateStock(ctx, s)
		require.NoError(t, err)
	}

	movements := f.movements(t, "p1")
	for i := range movements {
		replayed, err := inventory.ReplayLedger(movements[:i+1])
		require.NoError(t, err)
		assert.Equal(t, movements[i].NewStock, replayed)
	}

	report, err := f.uc.VerifyProductLedger(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 3, report.StockQuantity)
	assert.Equal(t, 5, report.Movements)
}

func TestUpdateStock_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 5)
	ctx := context.Background()

	_, err := f.uc.UpdateStock(ctx, &dto.UpdateStockInput{ProductID: "p1", Delta: 1, UserID: testUser, MovementType: "gift"})
	var validation *apperror.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "movement_type", validation.Field)

	_, err = f.uc.UpdateStock(ctx, sale("missing", 1))
	var notFound *apperror.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRetryWithLatestVersion(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)

	res, err := f.uc.RetryWithLatestVersion(context.Background(), sale("p1", 2))
	require.NoError(t, err)
	assert.Equal(t, 8, res.Product.StockQuantity)
	assert.Equal(t, 2, res.Product.Version)
}

func TestSetStockLevel(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)
	ctx := context.Background()

	res, err := f.uc.SetStockLevel(ctx, &dto.SetStockLevelInput{
		ProductID: "p1", NewQuantity: 4, UserID: testUser, Reason: "cycle count",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Product.StockQuantity)
	assert.Equal(t, -6, res.Movement.Quantity)
	assert.Equal(t, model.MovementManualAdjustment, res.Movement.MovementType)

	_, err = f.uc.SetStockLevel(ctx, &dto.SetStockLevelInput{ProductID: "p1", NewQuantity: 4, UserID: testUser})
	var validation *apperror.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestGetStockHistory_NewestFirst(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)
	ctx := context.Background()
	_, err := f.uc.UpdateStock(ctx, sale("p1", 1))
	require.NoError(t, err)
	_, err = f.uc.UpdateStock(ctx, sale("p1", 2))
	require.NoError(t, err)

	history, err := f.uc.GetStockHistory(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, -2, history[0].Quantity)
	assert.Equal(t, -1, history[1].Quantity)
}

// deadlockRepository fails every transaction the way postgres reports a deadlock.
type deadlockRepository struct {
	inventory.Repository
}

func (deadlockRepository) RunInTx(context.Context, func(ctx context.Context, tx inventory.TxRepository) error) error {
	return postgres.MapError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
}

func TestUpdateStock_DatabaseConflictNamesProduct(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)
	f.uc.repo = deadlockRepository{Repository: f.uc.repo}

	_, err := f.uc.UpdateStock(context.Background(), sale("p1", 1))

	var conflict *apperror.ConcurrencyError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "p1", conflict.ProductID)
	assert.True(t, apperror.IsRetryable(err))

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "40P01", pgErr.Code)
}
