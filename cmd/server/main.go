package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "gearrent-backend/internal/api/grpc"
	httpapi "gearrent-backend/internal/api/http"
	"gearrent-backend/internal/bootstrap"
	"gearrent-backend/internal/config"
	"gearrent-backend/internal/ledger"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/messaging"
	"gearrent-backend/internal/metrics"
	"gearrent-backend/internal/notify"
	"gearrent-backend/internal/obs"
	"gearrent-backend/internal/payment"
	"gearrent-backend/internal/resilience"
	"gearrent-backend/internal/security"
	"gearrent-backend/internal/service"
	"gearrent-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting GearRent Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Store configuration", "store", cfg.Store, "email_provider", cfg.Email.Provider, "storage", cfg.Storage.Type)

	ctx := context.Background()

	// Initialize tracing
	shutdownTracer, err := obs.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Initialize store
	backend, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()
	store := backend.Store

	// Initialize ledger and its observers
	inventoryLedger := ledger.New(store.ItemRepository, ledger.Options{
		MaxRetries:  cfg.Ledger.MaxRetries,
		CallTimeout: cfg.Ledger.CallTimeout,
	})
	itemCache := service.NewItemCache(cfg.Cache.TTL)
	inventoryLedger.Subscribe(itemCache.Observe)
	inventoryLedger.Subscribe(func(r ledger.Result) {
		metrics.SetItemQuantities(r.ItemID, r.After)
	})
	inventoryLedger.Subscribe(func(r ledger.Result) {
		logger.Debug("Ledger operation applied", "item", r.ItemID, "kind", r.Kind, "operation_id", r.OperationID)
	})

	if cfg.RabbitMQ.URL != "" {
		publisher, err := messaging.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Error("Failed to connect to RabbitMQ", "error", err)
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		events := messaging.NewAsyncObserver(publisher, 5*time.Second, cfg.RabbitMQ.QueueSize)
		defer events.Close()
		inventoryLedger.Subscribe(events.Observe)
		logger.Info("Publishing inventory events", "exchange", cfg.RabbitMQ.Exchange)
	}

	// Initialize notifier
	notifier := newNotifier(cfg)

	// Initialize media storage
	var mediaStore storage.MediaStore
	var mediaFiles httpapi.MediaFiles
	switch cfg.Storage.Type {
	case "cloudinary":
		logger.Info("Using Cloudinary media storage", "cloud_name", cfg.Storage.Cloudinary.CloudName)
		mediaStore = storage.NewCloudinaryStore(cfg.Storage.Cloudinary, resilience.NewBreaker("cloudinary", resilience.Settings{}))
	default:
		logger.Info("Using mock storage (local filesystem)", "mock_dir", cfg.Storage.MockDir)
		mock, err := storage.NewMockStore(cfg.Storage.BaseURL, cfg.Storage.MockDir)
		if err != nil {
			logger.Error("Failed to initialize mock storage", "error", err)
			log.Fatalf("Failed to initialize mock storage: %v", err)
		}
		mediaStore = mock
		mediaFiles = mock
	}

	// Initialize payment gateway
	var gateway service.PaymentGateway
	if cfg.PayPal.ClientID != "" {
		gateway = payment.NewPayPalClient(cfg.PayPal, resilience.NewBreaker("paypal", resilience.Settings{}))
	}

	// Initialize Services
	inventorySvc := service.NewInventoryService(store.ItemRepository, inventoryLedger, itemCache)
	bookingSvc := service.NewBookingService(store.BookingRepository, store.ItemRepository, inventoryLedger, notifier)
	damageSvc := service.NewDamageService(store.DamageReportRepository, inventoryLedger, notifier)
	paymentSvc := service.NewPaymentService(store.BookingRepository, gateway)
	mediaSvc := service.NewMediaService(store.BookingRepository, store.DamageReportRepository, mediaStore, cfg.Storage.MaxFileBytes)

	// Initialize Security
	verifier := newVerifier(ctx, cfg, backend)

	router := httpapi.NewRouter(httpapi.Deps{
		Inventory:      inventorySvc,
		Bookings:       bookingSvc,
		Damage:         damageSvc,
		Payments:       paymentSvc,
		Media:          mediaSvc,
		Verifier:       verifier,
		MediaFiles:     mediaFiles,
		MaxUploadBytes: cfg.Storage.MaxFileBytes,
	})

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Set up gRPC server (health and reflection) on its own port
	grpcServer, healthServer := grpcapi.NewServer(verifier)
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}
		go func() {
			logger.Info("gRPC server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// Wait for interrupt signal or a server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("Received signal", "signal", sig.String())
	case err := <-errCh:
		logger.Error("Server error", "error", err)
	}

	// Graceful shutdown
	logger.Info("Shutting down servers...", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	healthServer.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("Tracer shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

// newNotifier builds the configured email notifier behind a circuit breaker
func newNotifier(cfg *config.Config) notify.Notifier {
	switch cfg.Email.Provider {
	case "sendgrid":
		logger.Info("Using SendGrid email provider", "from", cfg.SendGrid.FromEmail)
		return notify.WithBreaker(notify.NewSendGridNotifier(cfg.SendGrid), resilience.NewBreaker("sendgrid", resilience.Settings{}))
	case "smtp":
		logger.Info("Using SMTP email provider", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		return notify.WithBreaker(notify.NewSMTPNotifier(cfg.SMTP), resilience.NewBreaker("smtp", resilience.Settings{}))
	default:
		logger.Info("Emails are logged, not sent")
		return notify.LogNotifier{}
	}
}

// newVerifier accepts Firebase ID tokens (when enabled) and service JWTs
func newVerifier(ctx context.Context, cfg *config.Config, backend *bootstrap.Backend) security.Verifier {
	tokens := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	if !cfg.Firebase.Auth {
		return tokens
	}

	authClient, err := backend.Firebase.Auth(ctx)
	if err != nil {
		logger.Error("Failed to create firebase auth client", "error", err)
		log.Fatalf("Failed to create firebase auth client: %v", err)
	}
	logger.Info("Firebase ID token verification enabled", "project_id", cfg.Firebase.ProjectID)
	return security.Chain{security.NewFirebaseVerifier(authClient), tokens}
}
