// Package memory is an in-process store used by tests and by STORE_DRIVER=memory.
// Transactions are serialized by one mutex and run against a copy of the state, which
// replaces the live state only when the transaction returns nil.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// ErrNoRow is returned when a write targets a row that does not exist.
var ErrNoRow = errors.New("memory: no such row")

type State struct {
	Products   map[string]model.Product
	Users      map[string]string // id -> full name
	Customers  map[string]model.Customer
	Categories map[string]string
	Movements  []model.InventoryMovement
	Alerts     []model.InventoryAlert
	Orders     map[string]model.Order
	OrderItems map[string][]model.OrderItem
	History    []model.OrderStatusHistory
	Sequences  map[string]int
}

func NewState() *State {
	return &State{
		Products:   map[string]model.Product{},
		Users:      map[string]string{},
		Customers:  map[string]model.Customer{},
		Categories: map[string]string{},
		Orders:     map[string]model.Order{},
		OrderItems: map[string][]model.OrderItem{},
		Sequences:  map[string]int{},
	}
}

// Clone copies every collection. Order items are never mutated after insert, so their
// slices are shared.
func (s *State) Clone() *State {
	c := &State{
		Products:   make(map[string]model.Product, len(s.Products)),
		Users:      make(map[string]string, len(s.Users)),
		Customers:  make(map[string]model.Customer, len(s.Customers)),
		Categories: make(map[string]string, len(s.Categories)),
		Movements:  append([]model.InventoryMovement(nil), s.Movements...),
		Alerts:     append([]model.InventoryAlert(nil), s.Alerts...),
		Orders:     make(map[string]model.Order, len(s.Orders)),
		OrderItems: make(map[string][]model.OrderItem, len(s.OrderItems)),
		History:    append([]model.OrderStatusHistory(nil), s.History...),
		Sequences:  make(map[string]int, len(s.Sequences)),
	}
	for k, v := range s.Products {
		c.Products[k] = v
	}
	for k, v := range s.Users {
		c.Users[k] = v
	}
	for k, v := range s.Customers {
		c.Customers[k] = v
	}
	for k, v := range s.Categories {
		c.Categories[k] = v
	}
	for k, v := range s.Orders {
		c.Orders[k] = v
	}
	for k, v := range s.OrderItems {
		c.OrderItems[k] = v
	}
	for k, v := range s.Sequences {
		c.Sequences[k] = v
	}
	return c
}

// Product returns the product with its joined user name filled in.
func (s *State) Product(id string) (model.Product, bool) {
	p, ok := s.Products[id]
	if !ok {
		return p, false
	}
	p.LastUpdatedByName = nil
	if p.LastUpdatedByID != nil {
		if name, ok := s.Users[*p.LastUpdatedByID]; ok {
			p.LastUpdatedByName = &name
		}
	}
	return p, true
}

type Store struct {
	mu    sync.Mutex
	state *State
}

func NewStore() *Store {
	return &Store{state: NewState()}
}

// Update runs fn in a transaction.
func (s *Store) Update(ctx context.Context, fn func(st *State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.Clone()
	if err := fn(working); err != nil {
		return err
	}
	s.state = working
	return nil
}

// View runs fn against the live state. fn must not mutate it.
func (s *Store) View(ctx context.Context, fn func(st *State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Seed helpers for fixtures and the memory driver bootstrap.

func (s *Store) PutUser(id, fullName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Users[id] = fullName
}

func (s *Store) PutCustomer(c model.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Customers[c.ID] = c
}

func (s *Store) PutCategory(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Categories[id] = name
}

// PutProduct stores p as-is, without a ledger entry.
func (s *Store) PutProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.LastUpdatedByName = nil
	s.state.Products[p.ID] = p
}

// Page slices items for a 1-based page. A non-positive size returns everything.
func Page[T any](items []T, page, size int) []T {
	if size <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
