package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastsToEverySubscriber(t *testing.T) {
	hub := NewHub(logger.NewNop(), nil)
	a := hub.Subscribe(4)
	b := hub.Subscribe(4)
	defer a.Close()
	defer b.Close()

	require.NoError(t, hub.Track(context.Background(), a.ID, "p-other"))
	require.NoError(t, hub.Publish(context.Background(), StockEvent{ProductID: "p1", StockQuantity: 3}))

	for _, sub := range []*Subscription{a, b} {
		select {
		case ev := <-sub.Events:
			assert.Equal(t, "p1", ev.ProductID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(logger.NewNop(), nil)
	sub := hub.Subscribe(1)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = hub.Publish(context.Background(), StockEvent{ProductID: "p1", Version: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	ev := <-sub.Events
	assert.Equal(t, 0, ev.Version)
}

func TestHub_TrackAndUnsubscribe(t *testing.T) {
	hub := NewHub(logger.NewNop(), nil)
	sub := hub.Subscribe(1)

	require.NoError(t, hub.Track(context.Background(), sub.ID, "p2"))
	require.NoError(t, hub.Track(context.Background(), sub.ID, "p1"))
	assert.Equal(t, []string{"p1", "p2"}, hub.Tracked(sub.ID))
	assert.Error(t, hub.Track(context.Background(), "unknown", "p1"))

	sub.Close()
	assert.Equal(t, 0, hub.Count())
	_, open := <-sub.Events
	assert.False(t, open)
}

func TestHub_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	hub := NewHub(logger.NewNop(), nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		sub := hub.Subscribe(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = hub.Publish(context.Background(), StockEvent{ProductID: "p"})
			}
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Count())
}

func TestNewStockEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	name := "Ana"
	p := &model.Product{BaseModel: model.BaseModel{ID: "p1"}, SKU: "SKU-1", Name: "Widget",
		StockQuantity: 7, Version: 4, StockLastUpdated: &at, LastUpdatedByName: &name}
	m := &model.InventoryMovement{MovementType: model.MovementSale, Quantity: -3}

	ev := NewStockEvent(p, m)
	assert.Equal(t, "SKU-1", ev.SKU)
	assert.Equal(t, 7, ev.StockQuantity)
	assert.Equal(t, 4, ev.Version)
	assert.Equal(t, model.MovementSale, ev.MovementType)
	assert.Equal(t, -3, ev.QuantityChange)
	assert.Equal(t, &name, ev.LastUpdatedByName)
}
