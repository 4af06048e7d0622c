// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/predictions-dashboard/internal/utils"
	"github.com/joho/godotenv"
)

// Storage backends for portfolio persistence
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// DefaultEventsQuery is the gamma-api query used for the dashboard's event list
const DefaultEventsQuery = "tag_slug=politics&active=true&closed=false&order=volume&ascending=false&limit=12"

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	CORSAllowedOrigins []string

	// Portfolio
	StartingBalance     float64
	StorageNamespace    string // Prefix of per-identity storage keys
	StorageBackend      string // sqlite, postgres or memory
	PostgresURL         string
	OrderPlacementDelay time.Duration // Simulated order latency, 0 disables it
	SessionIdleTimeout  time.Duration

	// Market data
	GammaBaseURL         string
	EventsQuery          string
	PriceRefreshSchedule string

	Backup *BackupConfig
}

// BackupConfig holds off-site backup configuration for the portfolio database
type BackupConfig struct {
	Enabled         bool
	Schedule        string
	Bucket          string
	Endpoint        string // Empty for AWS, set for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DASHBOARD_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:              absDataDir,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Port:                 getEnvAsInt("GO_PORT", 8080),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		CORSAllowedOrigins:   utils.ParseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		StartingBalance:      getEnvAsFloat("STARTING_BALANCE", 1000),
		StorageNamespace:     getEnv("STORAGE_NAMESPACE", "predictions-dashboard"),
		StorageBackend:       getEnv("STORAGE_BACKEND", StorageSQLite),
		PostgresURL:          getEnv("POSTGRES_URL", ""),
		OrderPlacementDelay:  getEnvAsDuration("ORDER_PLACEMENT_DELAY", 600*time.Millisecond),
		SessionIdleTimeout:   getEnvAsDuration("SESSION_IDLE_TIMEOUT", 24*time.Hour),
		GammaBaseURL:         getEnv("GAMMA_BASE_URL", "https://gamma-api.polymarket.com"),
		EventsQuery:          getEnv("EVENTS_QUERY", DefaultEventsQuery),
		PriceRefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", "@every 30s"),
		Backup:               loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and consistent
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if math.IsNaN(c.StartingBalance) || math.IsInf(c.StartingBalance, 0) || c.StartingBalance <= 0 {
		return fmt.Errorf("starting balance must be positive, got %v", c.StartingBalance)
	}

	switch c.StorageBackend {
	case StorageSQLite, StorageMemory:
	case StoragePostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.StorageBackend)
	}

	if c.OrderPlacementDelay < 0 {
		return fmt.Errorf("order placement delay cannot be negative")
	}

	if c.Backup != nil && c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
	}

	return nil
}

// PortfolioDBPath returns the path of the SQLite portfolio database
func (c *Config) PortfolioDBPath() string {
	return filepath.Join(c.DataDir, "portfolio.db")
}

// ClientDataDBPath returns the path of the upstream response cache database
func (c *Config) ClientDataDBPath() string {
	return filepath.Join(c.DataDir, "client_data.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Schedule:        getEnv("BACKUP_SCHEDULE", "@daily"),
		Bucket:          getEnv("BACKUP_BUCKET", ""),
		Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
		Region:          getEnv("BACKUP_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 14),
	}
}
