// Package redis cachea la proyección de stock por producto para las consultas de lectura.
// La caché es desechable: un fallo de Redis se registra y la consulta cae a la base.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/pkg/config"
)

var _ inventory.LevelCache = (*LevelCache)(nil)

// DefaultTTL vigencia de una entrada si la configuración no fija otra.
const DefaultTTL = 30 * time.Second

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// LevelCache implementa inventory.LevelCache con una clave por (empresa, producto).
type LevelCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
	log    zerolog.Logger
}

// NewLevelCache construye la caché. ttl <= 0 usa DefaultTTL.
func NewLevelCache(client goredis.UniversalClient, ttl time.Duration, log zerolog.Logger) *LevelCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LevelCache{client: client, ttl: ttl, log: log}
}

type cachedLevel struct {
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	OnHand      string    `json:"on_hand"`
	Reserved    string    `json:"reserved"`
	AvgCost     string    `json:"avg_cost"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Las dos claves de un producto comparten hash tag para caer en el mismo slot del cluster.
func levelKey(companyID, productID string) string {
	return "stock:{" + companyID + ":" + productID + "}"
}

func versionKey(companyID, productID string) string {
	return levelKey(companyID, productID) + ":ver"
}

// setIfVersion escribe la entrada solo si la versión no cambió desde la lectura.
// Una versión ausente equivale a 0.
var setIfVersion = goredis.NewScript(`
local current = redis.call('GET', KEYS[2])
if (current or '0') ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// GetLevels devuelve (nil, versión, false) ante miss. Un error de Redis devuelve versión -1,
// que hace que el SetLevels posterior no escriba.
func (c *LevelCache) GetLevels(ctx context.Context, companyID, productID string) ([]*entity.StockLevel, int64, bool) {
	vals, err := c.client.MGet(ctx, levelKey(companyID, productID), versionKey(companyID, productID)).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("redis: lectura de caché")
		return nil, -1, false
	}
	version := int64(0)
	if raw, ok := vals[1].(string); ok {
		if version, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, -1, false
		}
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, version, false
	}
	var rows []cachedLevel
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("redis: entrada corrupta")
		return nil, version, false
	}
	levels := make([]*entity.StockLevel, 0, len(rows))
	for _, r := range rows {
		l, err := r.toEntity(companyID)
		if err != nil {
			return nil, version, false
		}
		levels = append(levels, l)
	}
	return levels, version, true
}

// SetLevels guarda las filas del producto con el TTL configurado, salvo que una invalidación
// haya avanzado la versión después de la lectura.
func (c *LevelCache) SetLevels(ctx context.Context, companyID, productID string, version int64, levels []*entity.StockLevel) {
	if version < 0 {
		return
	}
	rows := make([]cachedLevel, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, cachedLevel{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			OnHand:      l.OnHand.String(),
			Reserved:    l.Reserved.String(),
			AvgCost:     l.AvgCost.String(),
			UpdatedAt:   l.UpdatedAt,
		})
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	keys := []string{levelKey(companyID, productID), versionKey(companyID, productID)}
	written, err := setIfVersion.Run(ctx, c.client, keys, strconv.FormatInt(version, 10), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("redis: escritura de caché")
		return
	}
	if written == 0 {
		c.log.Debug().Str("product_id", productID).Int64("version", version).Msg("redis: escritura descartada por invalidación concurrente")
	}
}

// Invalidate avanza la versión y borra la entrada de cada producto tocado por un commit.
func (c *LevelCache) Invalidate(ctx context.Context, companyID string, productIDs ...string) {
	if len(productIDs) == 0 {
		return
	}
	_, err := c.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range productIDs {
			pipe.Incr(ctx, versionKey(companyID, id))
			pipe.PExpire(ctx, versionKey(companyID, id), c.versionTTL())
			pipe.Del(ctx, levelKey(companyID, id))
		}
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Strs("product_ids", productIDs).Msg("redis: invalidación de caché")
	}
}

// versionTTL la versión sobrevive bastante más que la entrada para cubrir lecturas lentas.
func (c *LevelCache) versionTTL() time.Duration {
	if c.ttl*10 < time.Hour {
		return time.Hour
	}
	return c.ttl * 10
}
