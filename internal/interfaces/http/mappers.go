package http

import (
	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

func toReference(r *dto.ReferenceDTO) entity.Reference {
	if r == nil {
		return entity.Reference{}
	}
	return entity.Reference{Type: r.Type, ID: r.ID}
}

func toLevelResponse(l *entity.StockLevel) dto.StockLevelResponse {
	return dto.StockLevelResponse{
		ProductID:   l.ProductID,
		WarehouseID: l.WarehouseID,
		OnHand:      l.OnHand,
		Reserved:    l.Reserved,
		Available:   l.Available(),
		AvgCost:     l.AvgCost,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toLevelResponses(levels []*entity.StockLevel) []dto.StockLevelResponse {
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, toLevelResponse(l))
	}
	return out
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	out := dto.MovementResponse{
		ID:                 m.ID,
		TransactionID:      m.TransactionID,
		ProductID:          m.ProductID,
		WarehouseID:        m.WarehouseID,
		Type:               string(m.Type),
		Quantity:           m.Quantity,
		UnitCost:           m.UnitCost,
		StockBefore:        m.StockBefore,
		StockAfter:         m.StockAfter,
		RelatedWarehouseID: m.RelatedWarehouseID,
		BatchNumber:        m.BatchNumber,
		SerialNumber:       m.SerialNumber,
		ExpirationDate:     m.ExpirationDate,
		Notes:              m.Notes,
		CreatedAt:          m.CreatedAt,
		CreatedBy:          m.CreatedBy,
	}
	if m.ReferenceType != "" || m.ReferenceID != "" {
		out.Reference = &dto.ReferenceDTO{Type: m.ReferenceType, ID: m.ReferenceID}
	}
	return out
}

func toMovementResponses(list []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toReservationResponse(r *entity.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:          r.ID,
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Action:      string(r.Action),
		Quantity:    r.Quantity,
		Reference:   dto.ReferenceDTO{Type: r.ReferenceType, ID: r.ReferenceID},
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		CreatedBy:   r.CreatedBy,
	}
}

func toAlertResponse(a *entity.Alert) dto.AlertResponse {
	return dto.AlertResponse{
		ID:               a.ID,
		ProductID:        a.ProductID,
		WarehouseID:      a.WarehouseID,
		Type:             string(a.Type),
		Threshold:        a.Threshold,
		CurrentAvailable: a.CurrentAvailable,
		RaisedAt:         a.RaisedAt,
		IsRead:           a.IsRead,
		ResolvedAt:       a.ResolvedAt,
		ResolvedBy:       a.ResolvedBy,
	}
}

func toOrderResponse(po *entity.PurchaseOrder) dto.PurchaseOrderResponse {
	lines := make([]dto.PurchaseOrderLineResponse, 0, len(po.Lines))
	for _, l := range po.Lines {
		lines = append(lines, dto.PurchaseOrderLineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			QuantityOrdered:  l.QuantityOrdered,
			QuantityReceived: l.QuantityReceived,
			UnitCost:         l.UnitCost,
			TaxRate:          l.TaxRate,
			DiscountPercent:  l.DiscountPercent,
			LineTotal:        l.LineTotal,
			Notes:            l.Notes,
		})
	}
	return dto.PurchaseOrderResponse{
		ID:                   po.ID,
		OrderNumber:          po.OrderNumber,
		SupplierID:           po.SupplierID,
		WarehouseID:          po.WarehouseID,
		Status:               string(po.Status),
		ExpectedDeliveryDate: po.ExpectedDeliveryDate,
		OrderDate:            po.OrderDate,
		ActualDeliveryDate:   po.ActualDeliveryDate,
		Notes:                po.Notes,
		Subtotal:             po.Subtotal,
		CreatedBy:            po.CreatedBy,
		ApprovedBy:           po.ApprovedBy,
		CancelledBy:          po.CancelledBy,
		CreatedAt:            po.CreatedAt,
		UpdatedAt:            po.UpdatedAt,
		Lines:                lines,
	}
}

func toOrderResponses(list []*entity.PurchaseOrder) []dto.PurchaseOrderResponse {
	out := make([]dto.PurchaseOrderResponse, 0, len(list))
	for _, po := range list {
		out = append(out, toOrderResponse(po))
	}
	return out
}

func toProposalDTOs(proposals []inventory.ReorderProposal) []dto.ReorderProposalDTO {
	out := make([]dto.ReorderProposalDTO, 0, len(proposals))
	for _, p := range proposals {
		lines := make([]dto.ReorderLineDTO, 0, len(p.Lines))
		for _, l := range p.Lines {
			lines = append(lines, dto.ReorderLineDTO{
				ProductID:     l.ProductID,
				SKU:           l.SKU,
				ProductName:   l.ProductName,
				Available:     l.Available,
				ReorderPoint:  l.ReorderPoint,
				MinStock:      l.MinStock,
				SuggestedQty:  l.Quantity,
				UnitCost:      l.UnitCost,
				EstimatedCost: l.EstimatedCost,
			})
		}
		out = append(out, dto.ReorderProposalDTO{
			SupplierID:    p.SupplierID,
			WarehouseID:   p.WarehouseID,
			EstimatedCost: p.EstimatedCost,
			Lines:         lines,
		})
	}
	return out
}

func toValuationResponse(r *inventory.ValuationReport) dto.ValuationResponse {
	out := dto.ValuationResponse{
		TotalValue:  r.TotalValue,
		TotalUnits:  r.TotalUnits,
		ByWarehouse: make([]dto.WarehouseValuationDTO, 0, len(r.ByWarehouse)),
		Items:       make([]dto.ValuationItemDTO, 0, len(r.Items)),
	}
	for _, w := range r.ByWarehouse {
		out.ByWarehouse = append(out.ByWarehouse, dto.WarehouseValuationDTO{
			WarehouseID: w.WarehouseID, TotalUnits: w.TotalUnits, TotalValue: w.TotalValue, Items: w.Items,
		})
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, dto.ValuationItemDTO{
			ProductID: it.ProductID, WarehouseID: it.WarehouseID, OnHand: it.OnHand, AvgCost: it.AvgCost, Value: it.Value,
		})
	}
	return out
}
