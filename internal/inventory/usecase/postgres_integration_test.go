//go:build integration

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/database/postgres/postgrestest"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresUseCase(t *testing.T) (*inventoryUseCase, *postgrestest.Container) {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrestest.NewContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Close(ctx); err != nil {
			t.Logf("Failed to close postgres container: %v", err)
		}
	})
	require.NoError(t, pg.SeedUser(ctx, testUser, "Ana Torres"))

	uc := NewInventoryUseCase(
		repository.NewPGRepository(pg.DB),
		&capturePublisher{},
		inventory.DefaultRules(),
		logger.NewNop(),
		nil,
	).(*inventoryUseCase)
	return uc, pg
}

func countRows(t *testing.T, pg *postgrestest.Container, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pg.DB.GetContext(context.Background(), &n, query, args...))
	return n
}

func TestPostgres_CASRaceHasExactlyOneWinner(t *testing.T) {
	uc, pg := setupPostgresUseCase(t)
	ctx := context.Background()
	require.NoError(t, pg.SeedProduct(ctx, "p1", 10))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := sale("p1", 1)
			in.ExpectedVersion = intPtr(1)
			_, err := uc.UpdateStock(ctx, in)

			mu.Lock()
			defer mu.Unlock()
			var conflict *apperror.ConcurrencyError
			switch {
			case err == nil:
				wins++
			case errors.As(err, &conflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, writers-1, conflicts)

	p, err := uc.repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 9, p.StockQuantity)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, 2, countRows(t, pg, "SELECT COUNT(*) FROM inventory_movements WHERE product_id = $1", "p1"))
}

func TestPostgres_ConcurrentSalesNeverOversell(t *testing.T) {
	uc, pg := setupPostgresUseCase(t)
	ctx := context.Background()
	require.NoError(t, pg.SeedProduct(ctx, "p1", 10))

	const buyers = 25
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		sold         int
		insufficient int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.UpdateStock(ctx, sale("p1", 1))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sold++
			case apperror.As(err).Code() == apperror.CodeInsufficientStock:
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sold)
	assert.Equal(t, buyers-10, insufficient)

	report, err := uc.VerifyProductLedger(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, report.Consistent, report.Problem)
	assert.Equal(t, 0, report.StockQuantity)
	assert.Equal(t, 11, report.Movements)

	assert.Equal(t, 1, countRows(t, pg,
		"SELECT COUNT(*) FROM inventory_alerts WHERE product_id = $1 AND is_active", "p1"))
}

func TestPostgres_LedgerReplaysAfterMixedMutations(t *testing.T) {
	uc, pg := setupPostgresUseCase(t)
	ctx := context.Background()
	require.NoError(t, pg.SeedProduct(ctx, "p1", 20))

	res, err := uc.UpdateStock(ctx, &dto.UpdateStockInput{
		ProductID: "p1", Delta: 15, UserID: testUser, MovementType: model.MovementPurchase,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Product.LastUpdatedByName)
	assert.Equal(t, "Ana Torres", *res.Product.LastUpdatedByName)

	_, err = uc.UpdateStock(ctx, sale("p1", 7))
	require.NoError(t, err)
	_, err = uc.SetStockLevel(ctx, &dto.SetStockLevelInput{
		ProductID: "p1", NewQuantity: 25, UserID: testUser, Reason: "cycle count aisle 3",
	})
	require.NoError(t, err)
	_, err = uc.UpdateStock(ctx, sale("p1", 100))
	assert.Equal(t, apperror.CodeInsufficientStock, apperror.As(err).Code())

	report, err := uc.VerifyProductLedger(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, report.Consistent, report.Problem)
	assert.Equal(t, 25, report.ReplayedStock)
	assert.Equal(t, 4, report.Movements)

	p, err := uc.repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Version)
}
