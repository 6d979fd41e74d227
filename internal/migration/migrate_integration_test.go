//go:build integration

package migration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestSync(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("accounts_test"),
		postgres.WithUsername("accounts"),
		postgres.WithPassword("accounts"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)

	dir, err := migrationsDir("")
	require.NoError(t, err)

	migrator, err := NewMigratorWithDB(db, dir)
	require.NoError(t, err)
	defer migrator.Close()

	require.NoError(t, Sync(migrator, zap.NewNop()))

	version, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	var exists bool
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'accounts')`).Scan(&exists))
	assert.True(t, exists)

	// A second sync is a no-op.
	require.NoError(t, Sync(migrator, zap.NewNop()))

	require.NoError(t, migrator.DownTo(0))
	version, err = migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}
