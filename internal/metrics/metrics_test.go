package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.RecordStockMutation("sale", nil)
	m.RecordStockMutation("sale", errors.New("x"))
	m.RecordStockMutation("sale", nil)
	m.RecordAlert("open")
	m.ObserveTx("update_stock", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StockMutations.WithLabelValues("sale", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockMutations.WithLabelValues("sale", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Alerts.WithLabelValues("open")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOrder("create", nil)
		m.ObserveTx("create_order", time.Now())
	})
}
