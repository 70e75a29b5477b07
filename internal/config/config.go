package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"gearrent-backend/internal/messaging"
	"gearrent-backend/internal/notify"
	"gearrent-backend/internal/obs"
	"gearrent-backend/internal/payment"
	"gearrent-backend/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g. GEARRENT_DATABASE_HOST.
const EnvPrefix = "GEARRENT"

// Store backends
const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig          `yaml:"server" envconfig:"SERVER"`
	Store     string                `yaml:"store" envconfig:"STORE"`
	Database  DatabaseConfig        `yaml:"database" envconfig:"DATABASE"`
	Firebase  FirebaseConfig        `yaml:"firebase" envconfig:"FIREBASE"`
	Ledger    LedgerConfig          `yaml:"ledger" envconfig:"LEDGER"`
	Cache     CacheConfig           `yaml:"cache" envconfig:"CACHE"`
	Email     EmailConfig           `yaml:"email" envconfig:"EMAIL"`
	SendGrid  notify.SendGridConfig `yaml:"sendgrid" envconfig:"SENDGRID"`
	SMTP      notify.SMTPConfig     `yaml:"smtp" envconfig:"SMTP"`
	Storage   storage.Config        `yaml:"storage" envconfig:"STORAGE"`
	PayPal    payment.PayPalConfig  `yaml:"paypal" envconfig:"PAYPAL"`
	JWT       JWTConfig             `yaml:"jwt" envconfig:"JWT"`
	RabbitMQ  messaging.Config      `yaml:"rabbitmq" envconfig:"RABBITMQ"`
	Tracing   obs.Config            `yaml:"tracing" envconfig:"TRACING"`
	Log       LogConfig             `yaml:"log" envconfig:"LOG"`
	Scheduler SchedulerConfig       `yaml:"scheduler" envconfig:"SCHEDULER"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	GRPCPort        int           `yaml:"grpc_port" envconfig:"GRPC_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	User     string `yaml:"user" envconfig:"USER"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	Database string `yaml:"database" envconfig:"NAME"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"SSL_MODE"`
}

// FirebaseConfig selects the Firebase project used for Firestore and Auth
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id" envconfig:"PROJECT_ID"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	// Auth enables Firebase ID token verification on the HTTP API
	Auth bool `yaml:"auth" envconfig:"AUTH"`
}

// LedgerConfig tunes the inventory ledger
type LedgerConfig struct {
	MaxRetries  int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
	CallTimeout time.Duration `yaml:"call_timeout" envconfig:"CALL_TIMEOUT"`
	// Retention is how long applied operation ids are kept for deduplication.
	// Ids of pending or active bookings and of open damage reports are kept
	// regardless; any other request repeated after Retention is applied again.
	Retention time.Duration `yaml:"retention" envconfig:"RETENTION"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"TTL"`
}

// EmailConfig selects the notifier: "sendgrid", "smtp" or "log"
type EmailConfig struct {
	Provider string `yaml:"provider" envconfig:"PROVIDER"`
}

// JWTConfig contains service token settings
type JWTConfig struct {
	Secret            string `yaml:"secret" envconfig:"SECRET"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes" envconfig:"ACCESS_TOKEN_EXPIRY_MINUTES"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" envconfig:"FORMAT"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	AuditInventory        string `yaml:"audit_inventory" envconfig:"AUDIT_INVENTORY"`
	ReconcileReservations string `yaml:"reconcile_reservations" envconfig:"RECONCILE_RESERVATIONS"`
	PruneOperations       string `yaml:"prune_operations" envconfig:"PRUNE_OPERATIONS"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates the result
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Unset variables leave the YAML values alone
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate fills defaults and checks if the configuration is valid
func (c *Config) Validate() error {
	// Server
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	// Store
	if c.Store == "" {
		c.Store = StoreMemory
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case StoreFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project id is required for the firestore store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Firebase.Auth && c.Firebase.ProjectID == "" {
		return fmt.Errorf("firebase project id is required for firebase auth")
	}

	// Ledger
	if c.Ledger.MaxRetries == 0 {
		c.Ledger.MaxRetries = 5
	}
	if c.Ledger.MaxRetries < 1 {
		return fmt.Errorf("ledger max_retries must be at least 1")
	}
	if c.Ledger.CallTimeout <= 0 {
		c.Ledger.CallTimeout = 5 * time.Second
	}
	if c.Ledger.Retention <= 0 {
		c.Ledger.Retention = 30 * 24 * time.Hour
	}

	// Email
	if c.Email.Provider == "" {
		c.Email.Provider = "log"
	}
	switch c.Email.Provider {
	case "log":
	case "sendgrid":
		if c.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
		if c.SendGrid.FromEmail == "" {
			return fmt.Errorf("sendgrid from_email is required")
		}
	case "smtp":
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}

	// Storage
	if c.Storage.Type == "" {
		c.Storage.Type = "mock"
	}
	switch c.Storage.Type {
	case "mock":
		if c.Storage.MockDir == "" {
			return fmt.Errorf("storage mock_dir is required")
		}
		if c.Storage.BaseURL == "" {
			c.Storage.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
		}
	case "cloudinary":
		if c.Storage.Cloudinary.CloudName == "" || c.Storage.Cloudinary.APIKey == "" || c.Storage.Cloudinary.APISecret == "" {
			return fmt.Errorf("cloudinary cloud_name, api_key and api_secret are required")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Storage.MaxFileBytes <= 0 {
		c.Storage.MaxFileBytes = 10 << 20
	}

	// JWT
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// RabbitMQ is optional
	if c.RabbitMQ.URL != "" && c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "inventory.events"
	}

	// Tracing
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "gearrent-backend"
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Scheduler defaults
	if c.Scheduler.AuditInventory == "" {
		c.Scheduler.AuditInventory = "0 0 * * * *" // hourly
	}
	if c.Scheduler.ReconcileReservations == "" {
		c.Scheduler.ReconcileReservations = "0 15 2 * * *" // 2:15 AM UTC
	}
	if c.Scheduler.PruneOperations == "" {
		c.Scheduler.PruneOperations = "0 0 4 * * 0" // Sundays at 4 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health server address, or "" when disabled
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
