package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUseCase struct {
	inventory.UseCase
	mu    sync.Mutex
	calls []dto.UpdateStockInput
	err   error
}

func (f *fakeUseCase) UpdateStock(_ context.Context, in *dto.UpdateStockInput) (*dto.StockResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, *in)
	return &dto.StockResult{}, f.err
}

func (f *fakeUseCase) Calls() []dto.UpdateStockInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.UpdateStockInput(nil), f.calls...)
}

func TestProcessMessage_GoodsReceived(t *testing.T) {
	uc := &fakeUseCase{}
	l := NewInventoryListener(nil, uc, logger.NewNop(), nil)

	l.processMessage(context.Background(), []byte(`{
		"event_id": "evt-1",
		"event_type": "GoodsReceived",
		"payload": {"product_id": "p1", "quantity": 12, "reference": "PO-881", "user_id": "u7"}
	}`))

	calls := uc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 12, calls[0].Delta)
	assert.Equal(t, model.MovementPurchase, calls[0].MovementType)
	assert.Equal(t, "u7", calls[0].UserID)
	assert.Equal(t, "PO-881", *calls[0].Reference)
}

func TestProcessMessage_SaleRecordedDefaults(t *testing.T) {
	uc := &fakeUseCase{}
	l := NewInventoryListener(nil, uc, logger.NewNop(), nil)

	l.processMessage(context.Background(), []byte(`{"event_id":"evt-2","event_type":"SaleRecorded","payload":{"product_id":"p1","quantity":3}}`))

	calls := uc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, -3, calls[0].Delta)
	assert.Equal(t, model.MovementSale, calls[0].MovementType)
	assert.Equal(t, SystemUserID, calls[0].UserID)
	assert.Equal(t, "evt-2", *calls[0].Reference)
}

func TestProcessMessage_Skips(t *testing.T) {
	uc := &fakeUseCase{}
	l := NewInventoryListener(nil, uc, logger.NewNop(), nil)

	l.processMessage(context.Background(), []byte(`not json`))
	l.processMessage(context.Background(), []byte(`{"event_type":"OrderCreated","payload":{"product_id":"p1","quantity":1}}`))
	l.processMessage(context.Background(), []byte(`{"event_type":"SaleRecorded","payload":{"product_id":"p1","quantity":0}}`))

	assert.Empty(t, uc.Calls())
}

func TestProcessMessage_UseCaseErrorDoesNotPanic(t *testing.T) {
	uc := &fakeUseCase{err: errors.New("db down")}
	l := NewInventoryListener(nil, uc, logger.NewNop(), nil)

	assert.NotPanics(t, func() {
		l.processMessage(context.Background(), []byte(`{"event_type":"SaleRecorded","payload":{"product_id":"p1","quantity":1}}`))
	})
}

type chanReader struct {
	msgs   chan kafka.Message
	closed bool
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-r.msgs:
		return m, nil
	}
}

func (r *chanReader) Close() error {
	r.closed = true
	return nil
}

func TestStart_ConsumesUntilCancelled(t *testing.T) {
	reader := &chanReader{msgs: make(chan kafka.Message, 1)}
	uc := &fakeUseCase{}
	l := NewInventoryListener(reader, uc, logger.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()

	reader.msgs <- kafka.Message{Value: []byte(`{"event_type":"GoodsReceived","payload":{"product_id":"p1","quantity":2}}`)}
	require.Eventually(t, func() bool { return len(uc.Calls()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
	assert.True(t, reader.closed)
}
