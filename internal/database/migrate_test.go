package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ursuslabs/connect-gateway/migrations"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)

	assert.Contains(t, entries, "000001_create_ledger.up.sql")
	assert.Contains(t, entries, "000001_create_ledger.down.sql")

	for _, name := range entries {
		data, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		assert.NotEmpty(t, data, name)
	}
}
