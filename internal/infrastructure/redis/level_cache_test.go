package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/infrastructure/redis"
)

func pinLevels(onHand int64) []*entity.StockLevel {
	return []*entity.StockLevel{{
		CompanyID: "company-1", ProductID: "tuning-pin", WarehouseID: "wh-main",
		OnHand: decimal.NewFromInt(onHand), Reserved: decimal.Zero, AvgCost: decimal.NewFromInt(3),
	}}
}

func newCache(t *testing.T) (*redis.LevelCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewLevelCache(client, time.Minute, zerolog.Nop()), srv
}

// Redis caído: la caché se degrada a miss sin propagar errores.
func TestLevelCache_SinServidorEsMiss(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cache := redis.NewLevelCache(client, 0, zerolog.Nop())
	ctx := context.Background()

	levels, version, ok := cache.GetLevels(ctx, "company-1", "tuning-pin")
	assert.False(t, ok)
	assert.Nil(t, levels)
	assert.Equal(t, int64(-1), version)

	assert.NotPanics(t, func() { cache.SetLevels(ctx, "company-1", "tuning-pin", 0, pinLevels(5)) })
	assert.NotPanics(t, func() { cache.Invalidate(ctx, "company-1", "tuning-pin") })
	assert.NotPanics(t, func() { cache.Invalidate(ctx, "company-1") })
}

func TestLevelCache_MissLuegoHit(t *testing.T) {
	cache, srv := newCache(t)
	ctx := context.Background()

	_, version, ok := cache.GetLevels(ctx, "company-1", "tuning-pin")
	require.False(t, ok)
	assert.Equal(t, int64(0), version)

	cache.SetLevels(ctx, "company-1", "tuning-pin", version, pinLevels(5))
	levels, _, ok := cache.GetLevels(ctx, "company-1", "tuning-pin")
	require.True(t, ok)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].OnHand.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "company-1", levels[0].CompanyID)

	srv.FastForward(2 * time.Minute)
	_, _, ok = cache.GetLevels(ctx, "company-1", "tuning-pin")
	assert.False(t, ok, "la entrada vence con el TTL")
}

// Un commit que invalida entre la lectura de la base y el SetLevels gana: las filas viejas no se guardan.
func TestLevelCache_InvalidacionConcurrenteDescartaEscrituraVieja(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	_, readVersion, ok := cache.GetLevels(ctx, "company-1", "tuning-pin")
	require.False(t, ok)

	cache.Invalidate(ctx, "company-1", "tuning-pin")
	cache.SetLevels(ctx, "company-1", "tuning-pin", readVersion, pinLevels(5))

	_, current, ok := cache.GetLevels(ctx, "company-1", "tuning-pin")
	assert.False(t, ok)
	assert.Equal(t, readVersion+1, current)

	cache.SetLevels(ctx, "company-1", "tuning-pin", current, pinLevels(4))
	levels, _, ok := cache.GetLevels(ctx, "company-1", "tuning-pin")
	require.True(t, ok)
	assert.True(t, levels[0].OnHand.Equal(decimal.NewFromInt(4)))
}

func TestLevelCache_InvalidarBorraEntrada(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	cache.SetLevels(ctx, "company-1", "tuning-pin", 0, pinLevels(5))
	cache.SetLevels(ctx, "company-1", "hammer-felt", 0, pinLevels(1))
	cache.Invalidate(ctx, "company-1", "tuning-pin")

	_, _, ok := cache.GetLevels(ctx, "company-1", "tuning-pin")
	assert.False(t, ok)
	_, _, ok = cache.GetLevels(ctx, "company-1", "hammer-felt")
	assert.True(t, ok)
}
