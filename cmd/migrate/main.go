package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/elskow/user-service/internal/config"
	"github.com/elskow/user-service/internal/migration"
	"github.com/elskow/user-service/internal/server"
)

func main() {
	command := flag.String("command", "up", "migration command (up/down/down-to/sync/status/version/reset)")
	target := flag.Int64("version", 0, "target version for down-to")
	flag.Parse()

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", server.EnvDevelopment)
	}

	log, err := server.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal("migrations need the postgres driver", zap.String("driver", cfg.Database.Driver))
	}

	migrator, err := migration.NewMigrator(&cfg.Database)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer migrator.Close()

	log = log.With(zap.String("command", *command))

	switch *command {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "down-to":
		err = migrator.DownTo(*target)
	case "sync":
		err = migration.Sync(migrator, log)
	case "status":
		err = migrator.Status()
	case "version":
		var version int64
		if version, err = migrator.Version(); err == nil {
			log.Info("current migration version", zap.Int64("version", version))
		}
	case "reset":
		err = migrator.Reset()
	default:
		log.Fatal("unknown command")
	}

	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migration command finished")
}
