package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/pkg/metrics"
)

// Hooks efectos posteriores al commit: alertas, caché, notificaciones y métricas.
// Un fallo aquí se registra pero nunca se propaga: el movimiento ya es permanente.
type Hooks struct {
	Alerts    *AlertEngine
	Cache     LevelCache
	Publisher EventPublisher
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// AfterCommit se invoca con las filas de la proyección que la unidad de trabajo modificó.
func (h *Hooks) AfterCommit(ctx context.Context, companyID, txID string, movements []*entity.StockMovement, levels []*entity.StockLevel) {
	if h == nil {
		return
	}
	for _, m := range movements {
		h.Metrics.Movement(string(m.Type))
	}

	if h.Cache != nil {
		productIDs := make([]string, 0, len(levels))
		for _, l := range levels {
			productIDs = append(productIDs, l.ProductID)
		}
		h.Cache.Invalidate(ctx, companyID, productIDs...)
	}

	for _, l := range levels {
		if h.Publisher != nil {
			ev := StockChangedEvent{
				CompanyID:     companyID,
				TransactionID: txID,
				ProductID:     l.ProductID,
				WarehouseID:   l.WarehouseID,
				OnHand:        l.OnHand,
				Reserved:      l.Reserved,
				Available:     l.Available(),
				OccurredAt:    time.Now().UTC(),
			}
			if err := h.Publisher.Publish(ctx, EventStockChanged, ev); err != nil {
				h.Logger.Warn().Err(err).Str("product_id", l.ProductID).Str("warehouse_id", l.WarehouseID).
					Msg("no se pudo publicar cambio de stock")
			}
		}
		if h.Alerts != nil {
			if err := h.Alerts.Evaluate(ctx, companyID, l.Key()); err != nil {
				h.Logger.Error().Err(err).Str("product_id", l.ProductID).Str("warehouse_id", l.WarehouseID).
					Msg("evaluación de alertas fallida")
			}
		}
	}
}

// Failed registra la métrica de una operación rechazada.
func (h *Hooks) Failed(operation string, err error) {
	if h == nil {
		return
	}
	h.Metrics.Failure(operation, err)
}

// Observe registra la duración de una operación.
func (h *Hooks) Observe(operation string, started time.Time) {
	if h == nil {
		return
	}
	h.Metrics.ObserveTx(operation, started)
}

// Publish publica un evento arbitrario registrando el error si lo hay.
func (h *Hooks) Publish(ctx context.Context, routingKey string, payload any) {
	if h == nil || h.Publisher == nil {
		return
	}
	if err := h.Publisher.Publish(ctx, routingKey, payload); err != nil {
		h.Logger.Warn().Err(err).Str("routing_key", routingKey).Msg("no se pudo publicar evento")
	}
}
