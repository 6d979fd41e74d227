package migration

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/user-service/internal/config"
)

// Module provides migration-related dependencies. Schema sync runs on start
// and only for the postgres driver.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig) (*Migrator, error) {
					if cfg.Database.Driver != config.DriverPostgres {
						return nil, nil
					}
					return NewMigrator(&cfg.Database)
				},
			),
		),
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	migrator *Migrator,
	logger *zap.Logger,
) {
	if migrator == nil {
		logger.Info("Skipping database migrations, no SQL database configured")
		return
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return Sync(migrator, logger)
		},
		OnStop: func(ctx context.Context) error {
			return migrator.Close()
		},
	})
}

// Sync moves the schema to the latest migration available on disk, in
// either direction.
func Sync(migrator *Migrator, logger *zap.Logger) error {
	currentVersion, err := migrator.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	latestVersion, err := migrator.GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest migration version: %w", err)
	}

	logger.Info("Database migration status",
		zap.Int64("current_version", currentVersion),
		zap.Int64("latest_version", latestVersion))

	switch {
	case currentVersion > latestVersion:
		logger.Info("Downgrading database schema",
			zap.Int64("from_version", currentVersion),
			zap.Int64("to_version", latestVersion))

		if err := migrator.DownTo(latestVersion); err != nil {
			return fmt.Errorf("failed to downgrade database: %w", err)
		}
	case currentVersion < latestVersion:
		logger.Info("Upgrading database schema",
			zap.Int64("from_version", currentVersion),
			zap.Int64("to_version", latestVersion))

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to upgrade database: %w", err)
		}
	}

	return nil
}
