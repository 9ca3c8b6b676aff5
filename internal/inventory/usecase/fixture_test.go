package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/database/memory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/notifier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

var testNow = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

type capturePublisher struct {
	mu     sync.Mutex
	events []notifier.StockEvent
}

func (c *capturePublisher) Publish(_ context.Context, ev notifier.StockEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *capturePublisher) Events() []notifier.StockEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notifier.StockEvent(nil), c.events...)
}

type fixture struct {
	store     *memory.Store
	uc        *inventoryUseCase
	published *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutUser(testUser, "Ana Torres")
	published := &capturePublisher{}

	uc := NewInventoryUseCase(
		repository.NewMemoryRepository(store),
		published,
		inventory.DefaultRules(),
		logger.NewNop(),
		nil,
	).(*inventoryUseCase)
	uc.now = func() time.Time { return testNow }

	return &fixture{store: store, uc: uc, published: published}
}

// seedProduct stores a product at version 1 with an initial_stock movement for its stock.
func (f *fixture) seedProduct(t *testing.T, id string, stock int, mutate ...func(p *model.Product)) {
	t.Helper()
	p := model.Product{
		BaseModel:     model.BaseModel{ID: id, CreatedAt: testNow, UpdatedAt: testNow},
		SKU:           "SKU-" + id,
		Name:          "Product " + id,
		CostPrice:     decimal.NewFromInt(100),
		SalePrice:     decimal.NewFromInt(150),
		StockQuantity: stock,
		ReorderPoint:  10,
		Version:       1,
		IsActive:      true,
	}
	for _, m := range mutate {
		m(&p)
	}
	require.NoError(t, f.store.Update(context.Background(), func(st *memory.State) error {
		st.Products[id] = p
		if stock > 0 {
			st.Movements = append(st.Movements, model.InventoryMovement{
				ID:           "init-" + id,
				ProductID:    id,
				UserID:       testUser,
				MovementType: model.MovementInitialStock,
				Quantity:     stock,
				NewStock:     stock,
				CreatedAt:    testNow.Add(-time.Hour),
			})
		}
		return nil
	}))
}

func (f *fixture) product(t *testing.T, id string) model.Product {
	t.Helper()
	var p model.Product
	require.NoError(t, f.store.View(context.Background(), func(st *memory.State) error {
		var ok bool
		p, ok = st.Product(id)
		require.True(t, ok)
		return nil
	}))
	return p
}

func (f *fixture) movements(t *testing.T, productID string) []model.InventoryMovement {
	t.Helper()
	var out []model.InventoryMovement
	require.NoError(t, f.store.View(context.Background(), func(st *memory.State) error {
		for _, m := range st.Movements {
			if m.ProductID == productID {
				out = append(out, m)
			}
		}
		return nil
	}))
	return out
}

func (f *fixture) activeAlerts(t *testing.T, productID string) int {
	t.Helper()
	n := 0
	require.NoError(t, f.store.View(context.Background(), func(st *memory.State) error {
		for _, a := range st.Alerts {
			if a.ProductID == productID && a.IsActive {
				n++
			}
		}
		return nil
	}))
	return n
}

func intPtr(v int) *int { return &v }
