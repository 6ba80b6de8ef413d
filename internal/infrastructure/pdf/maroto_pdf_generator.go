// Package pdf genera el documento imprimible de una orden de compra para el proveedor.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: ORDEN DE COMPRA + N° orden │ Estado + fechas       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PROVEEDOR / ENTREGAR EN: bodega destino                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Descripción | Cant | Recibido | Costo | Total  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SUBTOTAL                                                    │
//	│  FOOTER: QR con el número de orden + notas                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/application/purchasing"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

var _ purchasing.OrderPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var statusLabels = map[entity.PurchaseOrderStatus]string{
	entity.POStatusDraft:           "BORRADOR",
	entity.POStatusPendingApproval: "PENDIENTE DE APROBACIÓN",
	entity.POStatusApproved:        "APROBADA",
	entity.POStatusOrdered:         "ENVIADA AL PROVEEDOR",
	entity.POStatusPartial:         "RECIBIDA PARCIALMENTE",
	entity.POStatusReceived:        "RECIBIDA",
	entity.POStatusCancelled:       "CANCELADA",
}

// MarotoPDFGenerator implementa purchasing.OrderPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	companyName string
}

// NewMarotoPDFGenerator construye el generador. companyName aparece como autor del documento.
func NewMarotoPDFGenerator(companyName string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{companyName: companyName}
}

// GeneratePurchaseOrderPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GeneratePurchaseOrderPDF(
	_ context.Context,
	po *entity.PurchaseOrder,
	warehouse *entity.Warehouse,
	lines []purchasing.OrderLineForPDF,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Orden de compra "+po.OrderNumber, true).
		WithAuthor(nonEmpty(g.companyName, "Inventario"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(po))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(po, warehouse))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(po))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(po))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(po *entity.PurchaseOrder) core.Row {
	expected := "—"
	if po.ExpectedDeliveryDate != nil {
		expected = po.ExpectedDeliveryDate.Format("02/01/2006")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("ORDEN DE COMPRA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(po.OrderNumber, props.Text{
				Style: fontstyle.Bold, Size: 11, Top: 9,
			}),
		),
		col.New(5).Add(
			text.New(statusLabel(po.Status), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Emitida: "+po.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
			text.New("Entrega esperada: "+expected, props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
		),
	)
}

func partiesRow(po *entity.PurchaseOrder, wh *entity.Warehouse) core.Row {
	return row.New(16).Add(
		col.New(6).Add(
			text.New("PROVEEDOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(po.SupplierID, props.Text{Size: 9, Top: 6}),
		),
		col.New(6).Add(
			text.New("ENTREGAR EN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("%s (%s)", wh.Name, wh.Code), props.Text{Style: fontstyle.Bold, Size: 9, Top: 6}),
			text.New(nonEmpty(wh.Address, "—"), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("Cant.", 1, align.Center),
		h("Recib.", 1, align.Center),
		h("Costo unit.", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

func tableDetailRows(lines []purchasing.OrderLineForPDF) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		desc := l.ProductName
		if l.Line.DiscountPercent.IsPositive() {
			desc += fmt.Sprintf(" (-%s%%)", l.Line.DiscountPercent.String())
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(nonEmpty(l.SKU, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(desc, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(l.Line.QuantityOrdered.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(l.Line.QuantityReceived.String(), props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray})),
			col.New(2).Add(text.New("$"+formatMoney(l.Line.UnitCost), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(l.Line.LineTotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(po *entity.PurchaseOrder) core.Row {
	return row.New(10).Add(
		col.New(6),
		col.New(3).Add(text.New("SUBTOTAL:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New("$"+formatMoney(po.Subtotal), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

func footerRow(po *entity.PurchaseOrder) core.Row {
	return row.New(34).Add(
		col.New(3).Add(code.NewQr(po.OrderNumber, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Notas:", props.Text{Style: fontstyle.Bold, Size: 8, Top: 2, Left: 3}),
			text.New(nonEmpty(po.Notes, "—"), props.Text{Size: 8, Top: 7, Left: 3, Color: colorGray}),
			text.New("Los impuestos se liquidan en la factura del proveedor.", props.Text{
				Size: 6.5, Top: 26, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusLabel(s entity.PurchaseOrderStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return strings.ToUpper(string(s))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formato de moneda con puntos de miles y coma decimal.
// Ej: 1234567.5 → "1.234.567,50"
func formatMoney(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if v.IsNegative() {
		out = "-" + out
	}
	return out
}
