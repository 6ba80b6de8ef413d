package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

func TestPurchaseOrderStatus_Transiciones(t *testing.T) {
	cases := []struct {
		from, to entity.PurchaseOrderStatus
		ok       bool
	}{
		{entity.POStatusDraft, entity.POStatusPendingApproval, true},
		{entity.POStatusDraft, entity.POStatusApproved, false},
		{entity.POStatusPendingApproval, entity.POStatusApproved, true},
		{entity.POStatusApproved, entity.POStatusOrdered, true},
		{entity.POStatusApproved, entity.POStatusReceived, true},
		{entity.POStatusOrdered, entity.POStatusPartial, true},
		{entity.POStatusPartial, entity.POStatusReceived, true},
		{entity.POStatusPartial, entity.POStatusCancelled, true},
		{entity.POStatusReceived, entity.POStatusCancelled, false},
		{entity.POStatusCancelled, entity.POStatusDraft, false},
		{entity.POStatusOrdered, entity.POStatusDraft, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransitionTo(c.to), "%s → %s", c.from, c.to)
	}
}

func TestPurchaseOrderStatus_TerminalesYRecepcion(t *testing.T) {
	assert.True(t, entity.POStatusReceived.IsTerminal())
	assert.True(t, entity.POStatusCancelled.IsTerminal())
	assert.False(t, entity.POStatusPartial.IsTerminal())

	assert.False(t, entity.POStatusDraft.CanReceive())
	assert.False(t, entity.POStatusPendingApproval.CanReceive())
	assert.True(t, entity.POStatusApproved.CanReceive())
	assert.True(t, entity.POStatusOrdered.CanReceive())
	assert.True(t, entity.POStatusPartial.CanReceive())
	assert.False(t, entity.PurchaseOrderStatus("lost").Valid())
}

func TestPurchaseOrder_Totales(t *testing.T) {
	po := &entity.PurchaseOrder{Lines: []*entity.PurchaseOrderLine{
		{ID: "l1", QuantityOrdered: decimal.NewFromInt(3), UnitCost: decimal.RequireFromString("10.50")},
		{ID: "l2", QuantityOrdered: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(100), DiscountPercent: decimal.NewFromInt(10)},
	}}
	po.RecomputeTotals()

	assert.Equal(t, "31.50", po.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, "180.00", po.Lines[1].LineTotal.StringFixed(2))
	assert.Equal(t, "211.50", po.Subtotal.StringFixed(2))
	assert.True(t, po.HasOrderableLine())
	assert.Same(t, po.Lines[1], po.Line("l2"))
	assert.Nil(t, po.Line("nope"))
}

func TestPurchaseOrder_RecepcionCompleta(t *testing.T) {
	po := &entity.PurchaseOrder{Lines: []*entity.PurchaseOrderLine{
		{QuantityOrdered: decimal.NewFromInt(10), QuantityReceived: decimal.NewFromInt(6)},
	}}
	assert.False(t, po.IsFullyReceived())
	assert.True(t, po.Lines[0].Pending().Equal(decimal.NewFromInt(4)))

	po.Lines[0].QuantityReceived = decimal.NewFromInt(10)
	assert.True(t, po.IsFullyReceived())
}
