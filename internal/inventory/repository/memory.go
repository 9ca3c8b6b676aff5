package repository

import (
	"context"
	"sort"
	"time"

	alertrepo "github.com/fekuna/omnipos-inventory-service/internal/alert/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/database/memory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type MemoryRepository struct {
	store *memory.Store
}

func NewMemoryRepository(store *memory.Store) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func (r *MemoryRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx inventory.TxRepository) error) error {
	return r.store.Update(ctx, func(st *memory.State) error {
		return fn(ctx, NewMemoryTx(st))
	})
}

func (r *MemoryRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var out *model.Product
	err := r.store.View(ctx, func(st *memory.State) error {
		if p, ok := st.Product(id); ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepository) ListAtOrBelowReorderPoint(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	err := r.store.View(ctx, func(st *memory.State) error {
		for id := range st.Products {
			p, _ := st.Product(id)
			if p.IsActive && p.StockQuantity <= p.ReorderPoint {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		di := out[i].ReorderPoint - out[i].StockQuantity
		dj := out[j].ReorderPoint - out[j].StockQuantity
		if di != dj {
			return di > dj
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

func (r *MemoryRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var items []model.InventoryMovement
	err := r.store.View(ctx, func(st *memory.State) error {
		for i := len(st.Movements) - 1; i >= 0; i-- {
			m := st.Movements[i]
			if matchMovement(m, f) {
				items = append(items, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	total := len(items)
	return memory.Page(items, f.Page, f.PageSize), total, nil
}

func matchMovement(m model.InventoryMovement, f *dto.MovementFilters) bool {
	switch {
	case f.ProductID != "" && m.ProductID != f.ProductID:
		return false
	case f.MovementType != "" && string(m.MovementType) != f.MovementType:
		return false
	case f.UserID != "" && m.UserID != f.UserID:
		return false
	case f.OrderID != "" && (m.RelatedOrderID == nil || *m.RelatedOrderID != f.OrderID):
		return false
	case f.From != nil && m.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && m.CreatedAt.After(*f.To):
		return false
	}
	return true
}

func (r *MemoryRepository) ProductMovements(ctx context.Context, productID string) ([]model.InventoryMovement, error) {
	var items []model.InventoryMovement
	err := r.store.View(ctx, func(st *memory.State) error {
		for _, m := range st.Movements {
			if m.ProductID == productID {
				items = append(items, m)
			}
		}
		return nil
	})
	return items, err
}

func (r *MemoryRepository) SumSalesSince(ctx context.Context, productID string, since time.Time) (int, error) {
	total := 0
	err := r.store.View(ctx, func(st *memory.State) error {
		for _, m := range st.Movements {
			if m.ProductID == productID && m.MovementType == model.MovementSale && !m.CreatedAt.Before(since) {
				if m.Quantity < 0 {
					total -= m.Quantity
				} else {
					total += m.Quantity
				}
			}
		}
		return nil
	})
	return total, err
}

func (r *MemoryRepository) MovementStatistics(ctx context.Context, from, to *time.Time) ([]dto.MovementStat, error) {
	byType := map[model.MovementType]*dto.MovementStat{}
	err := r.store.View(ctx, func(st *memory.State) error {
		for _, m := range st.Movements {
			if !matchMovement(m, &dto.MovementFilters{From: from, To: to}) {
				continue
			}
			s, ok := byType[m.MovementType]
			if !ok {
				s = &dto.MovementStat{MovementType: m.MovementType}
				byType[m.MovementType] = s
			}
			s.Count++
			s.TotalQuantity += m.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	stats := make([]dto.MovementStat, 0, len(byType))
	for _, s := range byType {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].MovementType < stats[j].MovementType })
	return stats, nil
}

// MemoryTx is the stock write surface over a transaction's working state.
type MemoryTx struct {
	*alertrepo.MemoryTx
}

func NewMemoryTx(st *memory.State) *MemoryTx {
	return &MemoryTx{MemoryTx: alertrepo.NewMemoryTx(st)}
}

func (t *MemoryTx) LockProducts(_ context.Context, ids []string) (map[string]*model.Product, error) {
	locked := make(map[string]*model.Product, len(ids))
	for _, id := range ids {
		if p, ok := t.State.Product(id); ok {
			locked[id] = &p
		}
	}
	return locked, nil
}

func (t *MemoryTx) LockProductsByCategory(_ context.Context, categoryID string) ([]model.Product, error) {
	var out []model.Product
	for id := range t.State.Products {
		p, _ := t.State.Product(id)
		if p.IsActive && p.CategoryID != nil && *p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *MemoryTx) SaveStock(_ context.Context, p *model.Product) error {
	stored, ok := t.State.Products[p.ID]
	if !ok {
		return memory.ErrNoRow
	}
	stored.StockQuantity = p.StockQuantity
	stored.ReservedStock = p.ReservedStock
	stored.Version = p.Version
	stored.StockLastUpdated = p.StockLastUpdated
	stored.LastUpdatedByID = p.LastUpdatedByID
	stored.UpdatedAt = p.UpdatedAt
	t.State.Products[p.ID] = stored

	refreshed, _ := t.State.Product(p.ID)
	p.LastUpdatedByName = refreshed.LastUpdatedByName
	return nil
}

func (t *MemoryTx) AppendMovement(_ context.Context, m *model.InventoryMovement) error {
	t.State.Movements = append(t.State.Movements, *m)
	return nil
}

func (t *MemoryTx) UpdateReorderPoint(_ context.Context, productID string, reorderPoint int, at time.Time) error {
	stored, ok := t.State.Products[productID]
	if !ok {
		return memory.ErrNoRow
	}
	stored.ReorderPoint = reorderPoint
	stored.UpdatedAt = at
	t.State.Products[productID] = stored
	return nil
}
