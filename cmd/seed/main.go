package main

import (
	"context"
	"flag"
	"smartrentals/pkg/app"
	"smartrentals/pkg/config"
	"time"
)

const JobName = "rentals-seed"

func main() {
	file := flag.String("file", "catalog.yaml", "YAML catalog to load")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetStorage()
	defer cfg.GracefulShutdown()

	catalog, err := readCatalog(*file)
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Failed to load seed file", "file", *file, "error", err)
	}

	service := app.NewCatalogService(cfg, app.NewRepositories(cfg))
	res, err := seedCatalog(ctx, service, catalog, cfg.Log)
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Seeding failed", "error", err)
	}
	cfg.Log.Info("Catalog seeded",
		"products", res.Products,
		"units", res.Units,
		"skipped", res.Skipped,
	)
}
