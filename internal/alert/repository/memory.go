package repository

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/alert"
	"github.com/fekuna/omnipos-inventory-service/internal/alert/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/database/memory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type MemoryRepository struct {
	store *memory.Store
}

func NewMemoryRepository(store *memory.Store) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func (r *MemoryRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx alert.TxRepository) error) error {
	return r.store.Update(ctx, func(st *memory.State) error {
		return fn(ctx, NewMemoryTx(st))
	})
}

func (r *MemoryRepository) ListAlerts(ctx context.Context, f *dto.AlertFilters) ([]model.InventoryAlert, int, error) {
	var items []model.InventoryAlert
	err := r.store.View(ctx, func(st *memory.State) error {
		for _, a := range st.Alerts {
			if f.ProductID != "" && a.ProductID != f.ProductID {
				continue
			}
			if f.ActiveOnly && !a.IsActive {
				continue
			}
			items = append(items, a)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	total := len(items)
	return memory.Page(items, f.Page, f.PageSize), total, nil
}

func (r *MemoryRepository) Statistics(ctx context.Context, since time.Time) (*dto.AlertStatistics, error) {
	stats := &dto.AlertStatistics{}
	err := r.store.View(ctx, func(st *memory.State) error {
		var hours float64
		for _, a := range st.Alerts {
			if a.IsActive {
				stats.Active++
				continue
			}
			if a.ResolvedAt != nil && !a.ResolvedAt.Before(since) {
				stats.ResolvedLast30Days++
				hours += a.ResolvedAt.Sub(a.CreatedAt).Hours()
			}
		}
		if stats.ResolvedLast30Days > 0 {
			stats.AvgResolutionHours = hours / float64(stats.ResolvedLast30Days)
		}
		for _, p := range st.Products {
			if p.IsActive && p.StockQuantity == 0 {
				stats.OutOfStockProducts++
			}
		}
		return nil
	})
	return stats, err
}

// MemoryTx is the alert write surface over a transaction's working state.
type MemoryTx struct {
	State *memory.State
}

func NewMemoryTx(st *memory.State) *MemoryTx {
	return &MemoryTx{State: st}
}

func (t *MemoryTx) FindActiveAlert(_ context.Context, productID string, alertType model.AlertType) (*model.InventoryAlert, error) {
	for i := len(t.State.Alerts) - 1; i >= 0; i-- {
		a := t.State.Alerts[i]
		if a.ProductID == productID && a.AlertType == alertType && a.IsActive {
			return &a, nil
		}
	}
	return nil, nil
}

func (t *MemoryTx) CreateAlert(_ context.Context, a *model.InventoryAlert) error {
	t.State.Alerts = append(t.State.Alerts, *a)
	return nil
}

func (t *MemoryTx) ResolveAlerts(_ context.Context, productID string, alertType model.AlertType, at time.Time) (int, error) {
	n := 0
	for i := range t.State.Alerts {
		a := &t.State.Alerts[i]
		if a.ProductID == productID && a.AlertType == alertType && a.IsActive {
			resolved := at
			a.IsActive = false
			a.ResolvedAt = &resolved
			n++
		}
	}
	return n, nil
}

func (t *MemoryTx) ListZeroStockWithoutAlert(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	for id := range t.State.Products {
		p, _ := t.State.Product(id)
		if !p.IsActive || p.StockQuantity != 0 {
			continue
		}
		active, _ := t.FindActiveAlert(ctx, p.ID, model.AlertOutOfStock)
		if active == nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
