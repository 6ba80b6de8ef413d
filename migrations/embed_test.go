package migrations_test

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/migrations"
)

func TestFS_VersionesConsecutivasConUpYDown(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i, name := range files {
		assert.True(t, strings.HasPrefix(name, fmt.Sprintf("%05d_", i+1)), "versión fuera de secuencia: %s", name)
		body, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		up := strings.Index(string(body), "-- +goose Up")
		down := strings.Index(string(body), "-- +goose Down")
		assert.GreaterOrEqual(t, up, 0, "%s sin sección Up", name)
		assert.Greater(t, down, up, "%s sin sección Down posterior a Up", name)
	}
}

func TestFS_ReservadoNoSuperaFisico(t *testing.T) {
	body, err := fs.ReadFile(migrations.FS, "00004_stock_levels_reserved_check.sql")
	require.NoError(t, err)
	sql := string(body)

	up := sql[:strings.Index(sql, "-- +goose Down")]
	assert.Contains(t, up, "CHECK (reserved <= on_hand)")
	assert.Contains(t, sql[len(up):], "DROP CONSTRAINT stock_levels_reserved_le_on_hand")
}
