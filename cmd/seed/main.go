package main

import (
	"context"
	"flag"
	"log"

	"gearrent-backend/internal/bootstrap"
	"gearrent-backend/internal/config"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/service"
)

// seed creates the predefined catalog items that are missing from the store.
func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	backend, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	store := backend.Store
	inventoryLedger := ledger.New(store.ItemRepository, ledger.Options{
		MaxRetries:  cfg.Ledger.MaxRetries,
		CallTimeout: cfg.Ledger.CallTimeout,
	})
	inventory := service.NewInventoryService(store.ItemRepository, inventoryLedger, nil)

	created, err := inventory.Bootstrap(ctx)
	if err != nil {
		logger.Error("Seeding failed", "created", created, "error", err)
		backend.Close()
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("Catalog seeded", "created", created, "store", cfg.Store)
}
