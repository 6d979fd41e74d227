package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDir(t *testing.T) {
	dir, err := migrationsDir("/srv/migrations")
	require.NoError(t, err)
	assert.Equal(t, "/srv/migrations", dir)

	dir, err = migrationsDir("")
	require.NoError(t, err)
	assert.Equal(t, "migrations", filepath.Base(dir))

	_, err = os.Stat(filepath.Join(dir, "00001_create_accounts.sql"))
	assert.NoError(t, err)
}

func TestGetLatestVersion(t *testing.T) {
	dir, err := migrationsDir("")
	require.NoError(t, err)

	m, err := NewMigratorWithDB(nil, dir)
	require.NoError(t, err)

	version, err := m.GetLatestVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}
