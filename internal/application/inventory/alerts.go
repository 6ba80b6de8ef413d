package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
	"github.com/jhoicas/piano-stock-api/pkg/metrics"
)

// AlertEngine compara el disponible de cada clave con el punto de reorden del producto.
// Lee la proyección ya confirmada; nunca escribe en el ledger.
type AlertEngine struct {
	levelRepo repository.StockLevelRepository
	alertRepo repository.AlertRepository
	catalog   ProductCatalog
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
}

// NewAlertEngine construye el motor de alertas. publisher y m pueden ser nil.
func NewAlertEngine(
	levelRepo repository.StockLevelRepository,
	alertRepo repository.AlertRepository,
	catalog ProductCatalog,
	publisher EventPublisher,
	m *metrics.Metrics,
	log zerolog.Logger,
) *AlertEngine {
	return &AlertEngine{
		levelRepo: levelRepo,
		alertRepo: alertRepo,
		catalog:   catalog,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate levanta una alerta si available ≤ reorderPoint y no hay otra abierta para la clave.
// Si el disponible volvió a superar el punto de reorden, resuelve las alertas abiertas.
func (e *AlertEngine) Evaluate(ctx context.Context, companyID string, key entity.StockKey) error {
	th, err := e.catalog.GetReorderThresholds(ctx, companyID, key.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get thresholds: %w", err)
	}
	level, err := e.levelRepo.Get(ctx, companyID, key)
	if err != nil {
		return fmt.Errorf("get stock: %w", err)
	}

	available := level.Available()
	if !inventory.NeedsReorder(available, th) {
		if _, err := e.alertRepo.ResolveOpen(ctx, companyID, key, ""); err != nil {
			return fmt.Errorf("resolve alerts: %w", err)
		}
		return nil
	}

	alertType := entity.AlertLowStock
	if !available.IsPositive() {
		alertType = entity.AlertOutOfStock
	}
	alert := &entity.Alert{
		ID:               uuid.New().String(),
		CompanyID:        companyID,
		ProductID:        key.ProductID,
		WarehouseID:      key.WarehouseID,
		Type:             alertType,
		Threshold:        th.ReorderPoint,
		CurrentAvailable: available,
		RaisedAt:         e.now(),
	}
	created, err := e.alertRepo.CreateIfNoneOpen(ctx, alert)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	if !created {
		return nil
	}

	e.metrics.AlertRaised(string(alertType))
	e.log.Info().Str("company_id", companyID).Str("product_id", key.ProductID).
		Str("warehouse_id", key.WarehouseID).Str("available", available.String()).
		Msg("alerta de stock bajo creada")
	if e.publisher != nil {
		ev := AlertRaisedEvent{
			CompanyID: companyID, AlertID: alert.ID, ProductID: key.ProductID, WarehouseID: key.WarehouseID,
			Type: string(alertType), Available: available, Threshold: th.ReorderPoint, RaisedAt: alert.RaisedAt,
		}
		if err := e.publisher.Publish(ctx, EventAlertRaised, ev); err != nil {
			e.log.Warn().Err(err).Str("alert_id", alert.ID).Msg("no se pudo publicar alerta")
		}
	}
	return nil
}

// ListActive alertas sin resolver; warehouseID vacío lista todas las bodegas.
func (e *AlertEngine) ListActive(ctx context.Context, companyID, warehouseID string) ([]*entity.Alert, error) {
	list, err := e.alertRepo.ListOpen(ctx, companyID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return list, nil
}

func (e *AlertEngine) load(ctx context.Context, companyID, alertID string) (*entity.Alert, error) {
	a, err := e.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	if a.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return a, nil
}

// MarkRead marca la alerta como leída.
func (e *AlertEngine) MarkRead(ctx context.Context, companyID, alertID string) (*entity.Alert, error) {
	a, err := e.load(ctx, companyID, alertID)
	if err != nil {
		return nil, err
	}
	if a.IsRead {
		return a, nil
	}
	a.IsRead = true
	if err := e.alertRepo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}
	return a, nil
}

// Resolve cierra la alerta manualmente. Resolver dos veces es inválido.
func (e *AlertEngine) Resolve(ctx context.Context, companyID, alertID, userID string) (*entity.Alert, error) {
	a, err := e.load(ctx, companyID, alertID)
	if err != nil {
		return nil, err
	}
	if !a.IsOpen() {
		return nil, fmt.Errorf("%w: la alerta ya está resuelta", domain.ErrConflict)
	}
	now := e.now()
	a.ResolvedAt = &now
	a.ResolvedBy = userID
	a.IsRead = true
	if err := e.alertRepo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}
	return a, nil
}
