package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/metrics"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventGoodsReceived = "GoodsReceived"
	EventSaleRecorded  = "SaleRecorded"

	SystemUserID = "system"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
}

// InventoryListener turns receiving and point-of-sale events into ledger movements.
type InventoryListener struct {
	consumer MessageReader
	uc       inventory.UseCase
	logger   logger.ZapLogger
	metrics  *metrics.Metrics
}

func NewInventoryListener(consumer MessageReader, uc inventory.UseCase, logger logger.ZapLogger, m *metrics.Metrics) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		metrics:  m,
	}
}

func (l *InventoryListener) Start(ctx context.Context) error {
	l.logger.Info("Starting Inventory Kafka Listener")
	defer l.consumer.Close()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Inventory Kafka Listener")
			return nil
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return nil
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StockEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   StockPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type StockPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
	UserID    string `json:"user_id"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event StockEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		l.metrics.RecordConsumed("malformed", err)
		return
	}

	var (
		movementType model.MovementType
		delta        int
	)
	switch event.EventType {
	case EventGoodsReceived:
		movementType, delta = model.MovementPurchase, event.Payload.Quantity
	case EventSaleRecorded:
		movementType, delta = model.MovementSale, -event.Payload.Quantity
	default:
		return
	}

	if event.Payload.ProductID == "" || event.Payload.Quantity <= 0 {
		l.logger.Warn("Skipping stock event with invalid payload",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.Int("quantity", event.Payload.Quantity),
		)
		l.metrics.RecordConsumed(event.EventType, apperror.NewValidationError("payload", "invalid"))
		return
	}

	userID := event.Payload.UserID
	if userID == "" {
		userID = SystemUserID
	}
	reference := event.Payload.Reference
	if reference == "" {
		reference = event.EventID
	}
	var reason *string
	if event.Payload.Reason != "" {
		reason = &event.Payload.Reason
	}

	l.logger.Info("Processing stock event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("product_id", event.Payload.ProductID),
	)

	_, err := l.uc.UpdateStock(ctx, &dto.UpdateStockInput{
		ProductID:    event.Payload.ProductID,
		Delta:        delta,
		UserID:       userID,
		MovementType: movementType,
		Reason:       reason,
		Reference:    &reference,
	})
	l.metrics.RecordConsumed(event.EventType, err)
	if err != nil {
		l.logger.Error("Failed to apply stock event",
			zap.String("event_id", event.EventID),
			zap.String("product_id", event.Payload.ProductID),
			zap.String("code", apperror.As(err).Code()),
			zap.Error(err),
		)
	}
}
