package repository

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/database/memory"
	invrepo "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/order"
	"github.com/fekuna/omnipos-inventory-service/internal/order/dto"
)

type MemoryRepository struct {
	store *memory.Store
}

func NewMemoryRepository(store *memory.Store) *MemoryRepository {
	return &MemoryRepository{store: store}
}

func (r *MemoryRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx order.TxRepository) error) error {
	return r.store.Update(ctx, func(st *memory.State) error {
		return fn(ctx, &MemoryTx{MemoryTx: invrepo.NewMemoryTx(st)})
	})
}

func (r *MemoryRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var out *model.Order
	err := r.store.View(ctx, func(st *memory.State) error {
		o, ok := loadOrder(st, id)
		if !ok {
			return nil
		}
		for _, h := range st.History {
			if h.OrderID == id {
				o.StatusHistory = append(o.StatusHistory, h)
			}
		}
		out = &o
		return nil
	})
	return out, err
}

func (r *MemoryRepository) ListOrders(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var items []model.Order
	err := r.store.View(ctx, func(st *memory.State) error {
		for id, o := range st.Orders {
			if f.CustomerID != "" && o.CustomerID != f.CustomerID {
				continue
			}
			if f.Status != "" && string(o.Status) != f.Status {
				continue
			}
			o.Items = append([]model.OrderItem(nil), st.OrderItems[id]...)
			items = append(items, o)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].OrderNumber > items[j].OrderNumber
	})
	return memory.Page(items, f.Page, f.PageSize), len(items), nil
}

func (r *MemoryRepository) GetProducts(ctx context.Context, ids []string) (map[string]model.Product, error) {
	out := make(map[string]model.Product, len(ids))
	err := r.store.View(ctx, func(st *memory.State) error {
		for _, id := range ids {
			if p, ok := st.Product(id); ok {
				out[id] = p
			}
		}
		return nil
	})
	return out, err
}

func loadOrder(st *memory.State, id string) (model.Order, bool) {
	o, ok := st.Orders[id]
	if !ok {
		return model.Order{}, false
	}
	o.Items = append([]model.OrderItem(nil), st.OrderItems[id]...)
	o.StatusHistory = nil
	return o, true
}

// MemoryTx adds the order tables to the stock write surface.
type MemoryTx struct {
	*invrepo.MemoryTx
}

func (t *MemoryTx) GetCustomer(_ context.Context, id string) (*model.Customer, error) {
	c, ok := t.State.Customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *MemoryTx) NextOrderNumber(_ context.Context, day string) (int, error) {
	t.State.Sequences[day]++
	return t.State.Sequences[day], nil
}

func (t *MemoryTx) CreateOrder(_ context.Context, o *model.Order) error {
	stored := *o
	stored.Items = nil
	stored.StatusHistory = nil
	t.State.Orders[o.ID] = stored
	t.State.OrderItems[o.ID] = append([]model.OrderItem(nil), o.Items...)
	return nil
}

func (t *MemoryTx) LockOrder(_ context.Context, id string) (*model.Order, error) {
	o, ok := loadOrder(t.State, id)
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (t *MemoryTx) SaveOrderStatus(_ context.Context, id string, status model.OrderStatus, at time.Time) error {
	o, ok := t.State.Orders[id]
	if !ok {
		return memory.ErrNoRow
	}
	o.Status = status
	o.UpdatedAt = at
	t.State.Orders[id] = o
	return nil
}

func (t *MemoryTx) AppendStatusHistory(_ context.Context, h *model.OrderStatusHistory) error {
	t.State.History = append(t.State.History, *h)
	return nil
}
