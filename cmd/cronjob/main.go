package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gearrent-backend/internal/bootstrap"
	"gearrent-backend/internal/config"
	"gearrent-backend/internal/jobs"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'audit-inventory', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting GearRent Cronjob Runner...", "log_level", cfg.Log.Level, "store", cfg.Store)
	if cfg.Store == config.StoreMemory {
		logger.Warn("Cronjob runner is using the in-memory store; jobs will see an empty inventory")
	}

	// Initialize store
	backend, err := bootstrap.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()
	store := backend.Store

	inventoryLedger := ledger.New(store.ItemRepository, ledger.Options{
		MaxRetries:  cfg.Ledger.MaxRetries,
		CallTimeout: cfg.Ledger.CallTimeout,
	})

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store.ItemRepository, store.BookingRepository, store.DamageReportRepository, inventoryLedger, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := jobRunner.RunJob(*runOnce); err != nil {
			logger.Error("Job failed", "job", *runOnce, "error", err)
			printJobs()
			backend.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "jobs", cronScheduler.Entries())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

func printJobs() {
	fmt.Printf("Available jobs:\n")
	for _, name := range []string{jobs.JobAuditInventory, jobs.JobReconcileReservations, jobs.JobPruneOperations, jobs.JobAll} {
		fmt.Printf("  - %s\n", name)
	}
}
