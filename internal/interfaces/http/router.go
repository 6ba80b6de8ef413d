package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/application/purchasing"
	"github.com/jhoicas/piano-stock-api/internal/application/usecase"
	"github.com/jhoicas/piano-stock-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC  *usecase.WarehouseUseCase
	Ledger       *inventory.Ledger
	StockQuery   *inventory.StockQuery
	Reservations *inventory.ReservationManager
	Alerts       *inventory.AlertEngine
	Reorder      *inventory.ReorderPlanner
	Valuation    *inventory.ValuationUseCase
	Workflow     *purchasing.Workflow
	OrderPDF     *purchasing.PDFUseCase
	// MetricsHandler expone /metrics si no es nil (promhttp).
	MetricsHandler nethttp.Handler
	Verifier       *jwt.Verifier
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api/v1", AuthMiddleware(deps.Verifier))
	supervisors := RequireRole(RoleAdmin, RoleManager)

	// Warehouses
	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	stockHandler := NewStockHandler(deps.Ledger, deps.StockQuery)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/default", warehouseHandler.GetDefault)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Get("/:id/stats", warehouseHandler.GetStats)
	warehouses.Put("/:id", warehouseHandler.Update)
	warehouses.Post("/:id/activate", warehouseHandler.Activate)
	warehouses.Post("/:id/deactivate", warehouseHandler.Deactivate)
	warehouses.Get("/:id/stock", stockHandler.ListWarehouseStock)

	// Ledger y proyección
	stock := api.Group("/stock")
	reorderHandler := NewReorderHandler(deps.Reorder, deps.Valuation)
	stock.Post("/movements", stockHandler.RecordMovement)
	stock.Get("/movements", stockHandler.ListMovements)
	stock.Get("/movements/:id", stockHandler.GetMovement)
	stock.Post("/transfers", stockHandler.Transfer)
	stock.Post("/adjustments", stockHandler.Adjust)
	stock.Post("/reversals", supervisors, stockHandler.Reverse)
	stock.Post("/availability", stockHandler.CheckAvailability)
	stock.Get("/valuation", reorderHandler.Valuation)
	stock.Get("/products/:productId", stockHandler.GetProductLevels)
	stock.Get("/products/:productId/total", stockHandler.GetTotal)
	stock.Get("/products/:productId/status", stockHandler.GetStatus)
	stock.Get("/products/:productId/warehouses/:warehouseId", stockHandler.GetLevel)
	stock.Get("/products/:productId/warehouses/:warehouseId/available", stockHandler.GetAvailable)
	stock.Post("/products/:productId/warehouses/:warehouseId/rebuild", supervisors, stockHandler.Rebuild)

	// Reservas
	reservations := api.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.Reservations)
	reservations.Get("/", reservationHandler.List)
	reservations.Post("/reserve", reservationHandler.Reserve)
	reservations.Post("/release", reservationHandler.Release)
	reservations.Post("/fulfill", reservationHandler.Fulfill)

	// Alertas
	alerts := api.Group("/alerts")
	alertHandler := NewAlertHandler(deps.Alerts)
	alerts.Get("/", alertHandler.ListActive)
	alerts.Post("/:id/read", alertHandler.MarkRead)
	alerts.Post("/:id/resolve", alertHandler.Resolve)

	api.Get("/reorder/suggestions", reorderHandler.Suggestions)

	// Órdenes de compra
	orders := api.Group("/purchase-orders")
	poHandler := NewPurchaseOrderHandler(deps.Workflow, deps.OrderPDF, deps.Reorder)
	orders.Post("/", poHandler.Create)
	orders.Get("/", poHandler.List)
	orders.Post("/from-suggestions", poHandler.CreateFromSuggestions)
	orders.Get("/:id", poHandler.Get)
	orders.Put("/:id", poHandler.UpdateDraft)
	orders.Get("/:id/pdf", poHandler.DownloadPDF)
	orders.Post("/:id/submit", poHandler.Submit)
	orders.Post("/:id/approve", supervisors, poHandler.Approve)
	orders.Post("/:id/order", poHandler.MarkOrdered)
	orders.Post("/:id/cancel", poHandler.Cancel)
	orders.Post("/:id/receive", poHandler.Receive)
}
