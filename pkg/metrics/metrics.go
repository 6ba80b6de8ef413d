// Package metrics expone las métricas Prometheus del motor de inventario.
//
// Todos los métodos aceptan receptor nil para que los casos de uso funcionen sin métricas (tests).
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/piano-stock-api/internal/domain"
)

const namespace = "stock"

// Metrics agrupa los colectores del motor de inventario.
type Metrics struct {
	MovementsTotal       *prometheus.CounterVec
	OperationErrorsTotal *prometheus.CounterVec
	LockTimeoutsTotal    prometheus.Counter
	TxDuration           *prometheus.HistogramVec
	AlertsRaisedTotal    *prometheus.CounterVec
	ReceiptsTotal        prometheus.Counter
	HTTPRequestsTotal    *prometheus.CounterVec
}

// New registra los colectores en reg. Usar prometheus.DefaultRegisterer en producción
// y prometheus.NewRegistry() en tests para no chocar con registros globales.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MovementsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_total",
			Help:      "Movimientos agregados al ledger por tipo.",
		}, []string{"type"}),
		OperationErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Operaciones rechazadas por tipo de operación y motivo.",
		}, []string{"operation", "reason"}),
		LockTimeoutsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_timeouts_total",
			Help:      "Bloqueos de fila no obtenidos a tiempo.",
		}),
		TxDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tx_duration_seconds",
			Help:      "Duración de las unidades de trabajo del inventario.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		AlertsRaisedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Alertas de stock creadas por tipo.",
		}, []string{"type"}),
		ReceiptsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_receipts_total",
			Help:      "Recepciones de órdenes de compra confirmadas.",
		}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP por método, ruta y código.",
		}, []string{"method", "route", "status"}),
	}
}

// Movement cuenta un movimiento confirmado.
func (m *Metrics) Movement(movementType string) {
	if m == nil {
		return
	}
	m.MovementsTotal.WithLabelValues(movementType).Inc()
}

// Failure cuenta una operación fallida clasificando el error de dominio.
func (m *Metrics) Failure(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	reason := Reason(err)
	m.OperationErrorsTotal.WithLabelValues(operation, reason).Inc()
	if reason == "concurrency_timeout" {
		m.LockTimeoutsTotal.Inc()
	}
}

// ObserveTx registra la duración de una unidad de trabajo.
func (m *Metrics) ObserveTx(operation string, started time.Time) {
	if m == nil {
		return
	}
	m.TxDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// AlertRaised cuenta una alerta nueva.
func (m *Metrics) AlertRaised(alertType string) {
	if m == nil {
		return
	}
	m.AlertsRaisedTotal.WithLabelValues(alertType).Inc()
}

// Receipt cuenta una recepción de mercancía confirmada.
func (m *Metrics) Receipt() {
	if m == nil {
		return
	}
	m.ReceiptsTotal.Inc()
}

// HTTPRequest cuenta una petición HTTP atendida.
func (m *Metrics) HTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// Reason etiqueta estable de un error de dominio para las métricas.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrConcurrencyTimeout):
		return "concurrency_timeout"
	case errors.Is(err, domain.ErrInsufficientAvailableStock):
		return "insufficient_available_stock"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrOverRelease):
		return "over_release"
	case errors.Is(err, domain.ErrOverReceipt):
		return "over_receipt"
	case errors.Is(err, domain.ErrSameWarehouseTransfer):
		return "same_warehouse_transfer"
	case errors.Is(err, domain.ErrUnknownProductOrWarehouse):
		return "unknown_product_or_warehouse"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, domain.ErrNoStockChange):
		return "no_stock_change"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "internal"
}
