package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory"

// Metrics holds the stock engine collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	StockMutations *prometheus.CounterVec
	Orders         *prometheus.CounterVec
	Alerts         *prometheus.CounterVec
	NotifierEvents *prometheus.CounterVec
	ConsumedEvents *prometheus.CounterVec
	TxDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.StockMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_mutations_total",
			Help:      "Stock mutations by movement type and result",
		},
		[]string{"movement_type", "result"},
	)

	m.Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_total",
			Help:      "Order operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	m.Alerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Out of stock alert transitions",
		},
		[]string{"action"},
	)

	m.NotifierEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifier_events_total",
			Help:      "Stock events handed to notifier sinks",
		},
		[]string{"sink", "result"},
	)

	m.ConsumedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consumed_events_total",
			Help:      "Inbound stock events consumed from kafka",
		},
		[]string{"event_type", "result"},
	)

	m.TxDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tx_duration_seconds",
			Help:      "Duration of stock and order transactions",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		m.StockMutations,
		m.Orders,
		m.Alerts,
		m.NotifierEvents,
		m.ConsumedEvents,
		m.TxDuration,
	)
	return m
}

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveTx records how long an operation's transaction took. Safe on a nil receiver.
func (m *Metrics) ObserveTx(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.TxDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) RecordStockMutation(movementType string, err error) {
	if m == nil {
		return
	}
	m.StockMutations.WithLabelValues(movementType, Result(err)).Inc()
}

func (m *Metrics) RecordOrder(operation string, err error) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues(operation, Result(err)).Inc()
}

func (m *Metrics) RecordAlert(action string) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordNotifier(sink string, err error) {
	if m == nil {
		return
	}
	m.NotifierEvents.WithLabelValues(sink, Result(err)).Inc()
}

func (m *Metrics) RecordConsumed(eventType string, err error) {
	if m == nil {
		return
	}
	m.ConsumedEvents.WithLabelValues(eventType, Result(err)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
