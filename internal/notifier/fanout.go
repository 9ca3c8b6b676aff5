package notifier

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/metrics"
	"go.uber.org/zap"
)

type Sink struct {
	Name      string
	Publisher Publisher
}

// Fanout hands each event to every sink and swallows their failures. The caller's
// transaction is already committed; nothing here may turn that into an error.
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
	logger  logger.ZapLogger
	metrics *metrics.Metrics
}

func NewFanout(log logger.ZapLogger, m *metrics.Metrics, timeout time.Duration, sinks ...Sink) *Fanout {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Fanout{sinks: sinks, timeout: timeout, logger: log, metrics: m}
}

func (f *Fanout) Publish(ctx context.Context, ev StockEvent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	for _, sink := range f.sinks {
		err := sink.Publisher.Publish(ctx, ev)
		f.metrics.RecordNotifier(sink.Name, err)
		if err != nil {
			f.logger.Warn("stock event not delivered",
				zap.String("sink", sink.Name),
				zap.String("product_id", ev.ProductID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// MultiTracker records a subscription with every tracker, stopping at the first error.
type MultiTracker []Tracker

func (m MultiTracker) Track(ctx context.Context, subscriberID, productID string) error {
	for _, t := range m {
		if err := t.Track(ctx, subscriberID, productID); err != nil {
			return err
		}
	}
	return nil
}
