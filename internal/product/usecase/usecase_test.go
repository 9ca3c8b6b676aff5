package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/database/memory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/product/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu          sync.Mutex
	pages       map[string][]byte
	hits        int
	invalidated int
}

func newMapCache() *mapCache { return &mapCache{pages: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.pages[key]
	if ok {
		c.hits++
	}
	return data, ok
}

func (c *mapCache) Set(_ context.Context, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = data
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = map[string][]byte{}
	c.invalidated++
	return nil
}

func newUseCase(t *testing.T) (*productUseCase, *memory.Store, *mapCache) {
	t.Helper()
	store := memory.NewStore()
	store.PutUser("u1", "Ana Torres")
	cache := newMapCache()
	uc := NewProductUseCase(repository.NewMemoryRepository(store), cache, nil, inventory.DefaultRules().Reorder, logger.NewNop()).(*productUseCase)
	uc.now = func() time.Time { return time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC) }
	return uc, store, cache
}

func TestCreateProduct_WritesInitialStockMovement(t *testing.T) {
	uc, store, _ := newUseCase(t)

	view, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		SKU:          "SKU-1",
		Name:         "Widget",
		CostPrice:    decimal.NewFromInt(4),
		SalePrice:    decimal.NewFromInt(9),
		InitialStock: 12,
		UserID:       "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, 12, view.StockQuantity)
	assert.Equal(t, 1, view.Version)
	assert.Equal(t, 10, view.ReorderPoint)
	assert.Equal(t, model.StockStatusInStock, view.StockStatus)
	assert.True(t, view.StockValue.Equal(decimal.NewFromInt(48)))
	require.NotNil(t, view.LastUpdatedByName)
	assert.Equal(t, "Ana Torres", *view.LastUpdatedByName)

	_ = store.View(context.Background(), func(st *memory.State) error {
		require.Len(t, st.Movements, 1)
		m := st.Movements[0]
		assert.Equal(t, model.MovementInitialStock, m.MovementType)
		assert.Equal(t, 0, m.PreviousStock)
		assert.Equal(t, 12, m.NewStock)
		return nil
	})
}

func TestCreateProduct_ZeroStockHasNoMovement(t *testing.T) {
	uc, store, _ := newUseCase(t)

	view, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "SKU-0", Name: "Empty", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, model.StockStatusOutOfStock, view.StockStatus)

	_ = store.View(context.Background(), func(st *memory.State) error {
		assert.Empty(t, st.Movements)
		return nil
	})
}

func TestCreateProduct_Rejects(t *testing.T) {
	uc, _, _ := newUseCase(t)
	_, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "DUP", Name: "First", UserID: "u1"})
	require.NoError(t, err)

	tooHigh := 10001
	cases := map[string]*dto.CreateProductInput{
		"duplicate sku":      {SKU: "DUP", Name: "Second", UserID: "u1"},
		"negative stock":     {SKU: "N1", Name: "Neg", InitialStock: -1, UserID: "u1"},
		"negative price":     {SKU: "N2", Name: "Neg", SalePrice: decimal.NewFromInt(-1), UserID: "u1"},
		"reorder over limit": {SKU: "N3", Name: "High", ReorderPoint: &tooHigh, UserID: "u1"},
		"no user":            {SKU: "N4", Name: "Anon"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.CreateProduct(context.Background(), in)
			assert.Equal(t, apperror.CodeValidation, apperror.As(err).Code())
		})
	}
}

func TestListProducts_CachesUntilInvalidated(t *testing.T) {
	uc, _, cache := newUseCase(t)
	_, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "A", Name: "Alpha", InitialStock: 3, UserID: "u1"})
	require.NoError(t, err)

	filters := &dto.ProductFilters{StockStatus: "low_stock", Page: 1, PageSize: 20}
	items, total, err := uc.ListProducts(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, model.StockStatusLowStock, items[0].StockStatus)

	_, _, err = uc.ListProducts(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = uc.CreateProduct(context.Background(), &dto.CreateProductInput{SKU: "B", Name: "Beta", InitialStock: 2, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidated)

	_, total, err = uc.ListProducts(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestGetProduct_NotFound(t *testing.T) {
	uc, _, _ := newUseCase(t)
	_, err := uc.GetProduct(context.Background(), "missing")
	assert.Equal(t, apperror.CodeNotFound, apperror.As(err).Code())
}
