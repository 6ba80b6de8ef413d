package metrics_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/pkg/metrics"
)

func TestMetrics_NilEsSeguro(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Movement("sale")
		m.Failure("record_movement", domain.ErrInsufficientStock)
		m.ObserveTx("record_movement", time.Now())
		m.AlertRaised("low_stock")
		m.Receipt()
		m.HTTPRequest("GET", "/health", "200")
	})
}

func TestMetrics_CuentaMovimientosYFallos(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.Movement("purchase")
	m.Movement("purchase")
	m.Movement("sale")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MovementsTotal.WithLabelValues("purchase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MovementsTotal.WithLabelValues("sale")))

	m.Failure("record_movement", fmt.Errorf("record movement: %w", domain.ErrConcurrencyTimeout))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockTimeoutsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.OperationErrorsTotal.WithLabelValues("record_movement", "concurrency_timeout")))
}

func TestReason_ClasificaErroresEnvueltos(t *testing.T) {
	cases := map[error]string{
		domain.ErrInsufficientStock:          "insufficient_stock",
		domain.ErrInsufficientAvailableStock: "insufficient_available_stock",
		domain.ErrOverReceipt:                "over_receipt",
		domain.ErrInvalidStateTransition:     "invalid_state_transition",
		fmt.Errorf("boom"):                   "internal",
	}
	for err, want := range cases {
		assert.Equal(t, want, metrics.Reason(fmt.Errorf("wrap: %w", err)), err.Error())
	}
}
