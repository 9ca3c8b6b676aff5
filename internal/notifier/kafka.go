package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSinkConfig struct {
	Brokers []string
	Topic   string
	// ConsecutiveFailures opens the breaker. Zero means 5.
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// KafkaSink emits stock events keyed by product id, so one product's events stay in one
// partition. The breaker stops a dead broker from adding latency to every stock change.
type KafkaSink struct {
	writer  messageWriter
	topic   string
	breaker *gobreaker.CircuitBreaker
	logger  logger.ZapLogger
}

func NewKafkaSink(cfg KafkaSinkConfig, log logger.ZapLogger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newKafkaSink(writer, cfg, log)
}

func newKafkaSink(w messageWriter, cfg KafkaSinkConfig, log logger.ZapLogger) *KafkaSink {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-stock-events",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &KafkaSink{writer: w, topic: cfg.Topic, breaker: breaker, logger: log}
}

func (s *KafkaSink) Publish(ctx context.Context, ev StockEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal stock event: %w", err)
	}
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(ev.ProductID),
			Value: payload,
			Time:  time.Now().UTC(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(EventStockUpdated)},
			},
		})
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSink) State() gobreaker.State {
	return s.breaker.State()
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
