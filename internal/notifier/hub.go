package notifier

import (
	"context"
	"sort"
	"sync"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Subscription struct {
	ID     string
	Events <-chan StockEvent
	hub    *Hub
}

func (s *Subscription) Close() {
	s.hub.Unsubscribe(s.ID)
}

type subscriber struct {
	ch       chan StockEvent
	products map[string]struct{}
}

// Hub is the in-process broadcaster behind the SSE stream.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	logger      logger.ZapLogger
	metrics     *metrics.Metrics
}

func NewHub(log logger.ZapLogger, m *metrics.Metrics) *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		logger:      log,
		metrics:     m,
	}
}

func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	id := uuid.New().String()
	ch := make(chan StockEvent, buffer)

	h.mu.Lock()
	h.subscribers[id] = &subscriber{ch: ch, products: map[string]struct{}{}}
	h.mu.Unlock()

	return &Subscription{ID: id, Events: ch, hub: h}
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subscribers[id]; ok {
		close(sub.ch)
		delete(h.subscribers, id)
	}
}

// Publish broadcasts to every subscriber regardless of tracked products. A full
// subscriber buffer drops the event for that subscriber only.
func (h *Hub) Publish(_ context.Context, ev StockEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, sub := range h.subscribers {
		select {
		case sub.ch <- ev:
		default:
			h.metrics.RecordNotifier("hub_drop", nil)
			h.logger.Debug("subscriber buffer full, event dropped",
				zap.String("subscriber_id", id),
				zap.String("product_id", ev.ProductID),
			)
		}
	}
	return nil
}

func (h *Hub) Track(_ context.Context, subscriberID, productID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subscribers[subscriberID]
	if !ok {
		return apperror.NewNotFound("subscriber", subscriberID)
	}
	sub.products[productID] = struct{}{}
	return nil
}

// Tracked lists the products a subscriber asked to follow, sorted.
func (h *Hub) Tracked(subscriberID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sub, ok := h.subscribers[subscriberID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(sub.products))
	for id := range sub.products {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
