package inventory

import "github.com/shopspring/decimal"

// Escalas de redondeo (half-up) del motor de inventario.
const (
	QuantityScale  int32 = 2 // cantidades: NUMERIC(14,2)
	CostScale      int32 = 4 // costo promedio móvil
	ValuationScale int32 = 2 // totales de valoración
)

// CostCalculator implementa el costo promedio móvil (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Si el stock actual es negativo o cero el histórico no pondera: el resultado es el costo de entrada.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	if !stockActual.IsPositive() {
		stockActual = decimal.Zero
	}
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.DivRound(sum, CostScale)
}

// HasValidScale indica si la cantidad cabe en la escala de cantidades sin redondear.
func HasValidScale(q decimal.Decimal) bool {
	return q.Equal(q.Round(QuantityScale))
}
