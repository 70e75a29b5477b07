// Package bootstrap opens the document store (and Firebase, when
// configured) that the server, cronjob and seed commands share.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	firebase "firebase.google.com/go/v4"
	_ "github.com/lib/pq"
	"google.golang.org/api/option"

	"gearrent-backend/internal/config"
	"gearrent-backend/internal/docstore"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/repository/documents"
)

// Backend holds the opened store and the clients behind it
type Backend struct {
	Store *documents.Store
	// Firebase is nil unless the firestore store or Firebase auth is enabled
	Firebase *firebase.App
	closers  []func() error
}

// Open connects the store selected by cfg.Store
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}

	if cfg.Store == config.StoreFirestore || cfg.Firebase.Auth {
		app, err := newFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		b.Firebase = app
	}

	var docs docstore.Store
	switch cfg.Store {
	case config.StorePostgres:
		logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		pg := docstore.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to create documents table: %w", err)
		}
		logger.Info("Database connection established", "host", cfg.Database.Host, "database", cfg.Database.Database)
		docs = pg

	case config.StoreFirestore:
		client, err := b.Firebase.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		b.closers = append(b.closers, client.Close)
		logger.Info("Firestore client ready", "project_id", cfg.Firebase.ProjectID)
		docs = docstore.NewFirestoreStore(client)

	default:
		logger.Warn("Using in-memory store; data is lost on restart")
		docs = docstore.NewMemoryStore()
	}

	b.Store = documents.NewStore(docs)
	return b, nil
}

// Close releases every connection opened by Open
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Warn("Failed to close backend connection", "error", err)
		}
	}
	b.closers = nil
}

func newFirebaseApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}
	return app, nil
}
