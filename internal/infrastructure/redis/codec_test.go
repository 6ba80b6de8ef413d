package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedLevel_ToEntity(t *testing.T) {
	l, err := cachedLevel{ProductID: "p", WarehouseID: "w", OnHand: "7.50", Reserved: "2", AvgCost: "12.3456"}.toEntity("c")
	require.NoError(t, err)
	assert.Equal(t, "c", l.CompanyID)
	assert.Equal(t, "5.5", l.Available().String())
}

func TestCachedLevel_ToEntity_CantidadInvalida(t *testing.T) {
	_, err := cachedLevel{OnHand: "x", Reserved: "0", AvgCost: "0"}.toEntity("c")
	assert.Error(t, err)
}

func TestLevelKey(t *testing.T) {
	assert.Equal(t, "stock:{company-1:tuning-pin}", levelKey("company-1", "tuning-pin"))
	assert.Equal(t, "stock:{company-1:tuning-pin}:ver", versionKey("company-1", "tuning-pin"))
}
