package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	calls    int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink_KeysByProduct(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w, KafkaSinkConfig{Topic: "inventory.stock-updated"}, logger.NewNop())

	require.NoError(t, sink.Publish(context.Background(), StockEvent{ProductID: "p1", StockQuantity: 9}))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "p1", string(w.messages[0].Key))

	var ev StockEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &ev))
	assert.Equal(t, 9, ev.StockQuantity)
}

func TestKafkaSink_BreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	sink := newKafkaSink(w, KafkaSinkConfig{Topic: "t", ConsecutiveFailures: 2}, logger.NewNop())

	for i := 0; i < 4; i++ {
		assert.Error(t, sink.Publish(context.Background(), StockEvent{ProductID: "p1"}))
	}
	assert.Equal(t, gobreaker.StateOpen, sink.State())
	assert.Equal(t, 2, w.calls)
}
