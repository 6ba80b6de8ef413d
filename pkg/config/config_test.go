package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/pkg/config"
)

func TestLoad_LeeInventarioDesdeEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOCK_TIMEOUT", "750")
	t.Setenv("LOCK_RETRIES", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TTL", "1m")
	t.Setenv("AMQP_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Inventory.StoreDriver)
	assert.Equal(t, 750*time.Millisecond, cfg.Inventory.LockTimeout)
	assert.Equal(t, 5, cfg.Inventory.LockRetries)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.AMQP.Enabled())
}

func TestLoad_DuracionConUnidad(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOCK_TIMEOUT", "3s")
	t.Setenv("LOCK_RETRIES", "0")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Inventory.LockTimeout)
	assert.Equal(t, 0, cfg.Inventory.LockRetries)
}

func TestLoad_RechazaConfiguracionInvalida(t *testing.T) {
	cases := map[string]map[string]string{
		"driver desconocido":   {"STORE_DRIVER": "mysql", "LOCK_TIMEOUT": "1s", "LOCK_RETRIES": "1"},
		"timeout cero":         {"STORE_DRIVER": "memory", "LOCK_TIMEOUT": "0", "LOCK_RETRIES": "1"},
		"reintentos negativos": {"STORE_DRIVER": "memory", "LOCK_TIMEOUT": "1s", "LOCK_RETRIES": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "piano", Password: "p@ss/word", DBName: "piano_stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://piano:p%40ss%2Fword@db:5432/piano_stock?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
