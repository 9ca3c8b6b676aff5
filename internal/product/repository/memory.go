package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/database/memory"
	invrepo "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
)

type MemoryRepository struct {
	store *memory.Store
}

func NewMemoryRepository(store *memory.Store) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func (r *MemoryRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx product.TxRepository) error) error {
	return r.store.Update(ctx, func(st *memory.State) error {
		return fn(ctx, &MemoryTx{MemoryTx: invrepo.NewMemoryTx(st)})
	})
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var out *model.Product
	err := r.store.View(ctx, func(st *memory.State) error {
		if p, ok := st.Product(id); ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var items []model.Product
	err := r.store.View(ctx, func(st *memory.State) error {
		for id := range st.Products {
			p, _ := st.Product(id)
			if matchProduct(&p, f) {
				items = append(items, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sortProducts(items, f.SortBy, strings.ToLower(f.SortOrder) == "asc")
	return memory.Page(items, f.Page, f.PageSize), len(items), nil
}

func matchProduct(p *model.Product, f *dto.ProductFilters) bool {
	switch {
	case f.CategoryID != "" && (p.CategoryID == nil || *p.CategoryID != f.CategoryID):
		return false
	case f.IsActive != nil && p.IsActive != *f.IsActive:
		return false
	case f.StockStatus != "" && string(p.StockStatus()) != f.StockStatus:
		return false
	case f.SearchQuery != "":
		q := strings.ToLower(f.SearchQuery)
		return strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.SKU), q)
	}
	return true
}

func sortProducts(items []model.Product, by string, asc bool) {
	less := func(a, b *model.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch by {
	case "name":
		less = func(a, b *model.Product) bool { return a.Name < b.Name }
	case "price":
		less = func(a, b *model.Product) bool { return a.SalePrice.LessThan(b.SalePrice) }
	case "stock":
		less = func(a, b *model.Product) bool { return a.StockQuantity < b.StockQuantity }
	case "":
		asc = false
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if !less(a, b) && !less(b, a) {
			return a.ID < b.ID
		}
		if asc {
			return less(a, b)
		}
		return less(b, a)
	})
}

func (r *MemoryRepository) IsSKUUnique(ctx context.Context, sku string) (bool, error) {
	unique := true
	err := r.store.View(ctx, func(st *memory.State) error {
		for _, p := range st.Products {
			if p.SKU == sku {
				unique = false
				break
			}
		}
		return nil
	})
	return unique, err
}

type MemoryTx struct {
	*invrepo.MemoryTx
}

func (t *MemoryTx) Create(_ context.Context, p *model.Product) error {
	stored := *p
	stored.LastUpdatedByName = nil
	t.State.Products[p.ID] = stored
	return nil
}
