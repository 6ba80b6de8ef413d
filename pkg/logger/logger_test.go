package logger_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/piano-stock-api/pkg/logger"
)

func TestNew_NivelDesconocidoUsaInfo(t *testing.T) {
	l := logger.New(logger.Config{Env: "production", Level: "verbose"})
	assert.Equal(t, zerolog.InfoLevel, l.Zerolog().GetLevel())
}

func TestNew_NivelDebug(t *testing.T) {
	l := logger.New(logger.Config{Env: "production", Level: "debug", Service: "piano-stock"})
	assert.Equal(t, zerolog.DebugLevel, l.Zerolog().GetLevel())
	assert.Equal(t, zerolog.DebugLevel, l.Component("ledger").GetLevel())
}
