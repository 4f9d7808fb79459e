package main

import (
	"smartrentals/pkg/app"
	"smartrentals/pkg/config"
)

const ServiceName = "rentals"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStorage()
	cfg.SetRedis()

	application, err := app.Build(cfg)
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Failed to build application", "error", err)
	}

	cfg.Log.Info("Starting rentals service")
	application.Run()
}
