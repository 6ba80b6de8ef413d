package purchasing

import (
	"context"
	"fmt"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// OrderLineForPDF línea enriquecida con los datos del catálogo.
type OrderLineForPDF struct {
	Line        *entity.PurchaseOrderLine
	SKU         string
	ProductName string
}

// OrderPDFGenerator puerto de salida para la representación imprimible de una orden.
type OrderPDFGenerator interface {
	GeneratePurchaseOrderPDF(ctx context.Context, po *entity.PurchaseOrder, warehouse *entity.Warehouse, lines []OrderLineForPDF) ([]byte, error)
}

// PDFUseCase genera el documento de la orden que se envía al proveedor.
type PDFUseCase struct {
	orderRepo     repository.PurchaseOrderRepository
	warehouseRepo repository.WarehouseRepository
	catalog       inventory.ProductCatalog
	generator     OrderPDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	orderRepo repository.PurchaseOrderRepository,
	warehouseRepo repository.WarehouseRepository,
	catalog inventory.ProductCatalog,
	generator OrderPDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{orderRepo: orderRepo, warehouseRepo: warehouseRepo, catalog: catalog, generator: generator}
}

// DownloadOrderPDF devuelve los bytes del PDF y el nombre de archivo sugerido.
// Un borrador también se puede imprimir (revisión interna).
func (uc *PDFUseCase) DownloadOrderPDF(ctx context.Context, companyID, orderID string) ([]byte, string, error) {
	po, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener orden: %w", err)
	}
	if po == nil {
		return nil, "", domain.ErrNotFound
	}
	if po.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}

	wh, err := uc.warehouseRepo.GetByID(ctx, po.WarehouseID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener bodega: %w", err)
	}
	if wh == nil {
		return nil, "", domain.ErrNotFound
	}

	products, err := uc.catalog.ListTracked(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener productos: %w", err)
	}
	byID := make(map[string]*entity.ProductRef, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]OrderLineForPDF, 0, len(po.Lines))
	for _, l := range po.Lines {
		item := OrderLineForPDF{Line: l, ProductName: l.ProductID}
		if p, ok := byID[l.ProductID]; ok {
			item.SKU, item.ProductName = p.SKU, p.Name
		}
		lines = append(lines, item)
	}

	doc, err := uc.generator.GeneratePurchaseOrderPDF(ctx, po, wh, lines)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar: %w", err)
	}
	return doc, po.OrderNumber + ".pdf", nil
}
