// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultNetworks are the networks scanned for on-chain token balances when
// TOKEN_API_NETWORKS is not set. They mirror the network ids the token API uses.
var DefaultNetworks = []string{
	"mainnet", "arbitrum-one", "avalanche", "base", "bsc", "matic", "optimism",
}

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// External bot-execution backend
	BotAPIURL string

	// Market-data source A (aggregated portfolio + PnL)
	MobulaAPIURL string
	MobulaAPIKey string

	// Market-data source B (per-network raw token balances)
	TokenAPIURL      string
	TokenAPIKey      string
	TokenAPINetworks []string

	// Optional deploy-time prompt review
	AnthropicAPIKey string

	// Dashboard refresh cadence
	AgentsRefresh  time.Duration
	ExploreRefresh time.Duration

	Backup *BackupConfig
}

// BackupConfig holds R2/S3 backup configuration
type BackupConfig struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	RetentionDays   int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic, always resolved to an
	// absolute path so database files land in one predictable place.
	dataDir := getEnv("ZAPDECK_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		BotAPIURL:        getEnv("BOT_API_URL", "https://zappers-backend.onrender.com"),
		MobulaAPIURL:     getEnv("MOBULA_API_URL", "https://explorer-api.mobula.io/api/1"),
		MobulaAPIKey:     getEnv("MOBULA_API_KEY", ""),
		TokenAPIURL:      getEnv("TOKEN_API_URL", "https://token-api.thegraph.com"),
		TokenAPIKey:      getEnv("TOKEN_API_KEY", ""),
		TokenAPINetworks: getEnvAsList("TOKEN_API_NETWORKS", DefaultNetworks),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AgentsRefresh:    time.Duration(getEnvAsInt("AGENTS_REFRESH_SECONDS", 30)) * time.Second,
		ExploreRefresh:   time.Duration(getEnvAsInt("EXPLORE_REFRESH_SECONDS", 45)) * time.Second,
		Backup:           loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("R2_BACKUP_ENABLED", false),
		AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		BucketName:      getEnv("R2_BUCKET_NAME", ""),
		RetentionDays:   getEnvAsInt("R2_RETENTION_DAYS", 30),
	}
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.BotAPIURL == "" {
		return fmt.Errorf("BOT_API_URL is required")
	}
	if c.AgentsRefresh < time.Second {
		return fmt.Errorf("AGENTS_REFRESH_SECONDS must be at least 1")
	}
	if c.ExploreRefresh < time.Second {
		return fmt.Errorf("EXPLORE_REFRESH_SECONDS must be at least 1")
	}
	if c.Backup.Enabled {
		if c.Backup.AccountID == "" || c.Backup.AccessKeyID == "" ||
			c.Backup.SecretAccessKey == "" || c.Backup.BucketName == "" {
			return fmt.Errorf("R2 backup enabled but credentials are incomplete")
		}
	}
	return nil
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
