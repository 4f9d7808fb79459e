package main

import (
	"context"
	mongoMigration "smartrentals/internal/migrations/mongo"
	"smartrentals/internal/migrations/sqlschema"
	"smartrentals/pkg/config"
	"time"
)

const JobName = "rentals-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetStorage()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "storage_driver", cfg.StorageDriver)
	if err := migrate(ctx, cfg); err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration job aborted")
	}
	cfg.Log.Info("Migration completed successfully")
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.StorageDriver == config.StorageMongo {
		return mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Client, cfg.MongoDatabaseName, cfg.Log)
	}
	return sqlschema.RunMigration(ctx, cfg.Client.SQL)
}
