package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	LogDir      string
	ServiceName string
	Version     string
	Environment string
	APIKey      string // API key for authentication
	AdminAPIKey string // X-Admin-Key for /api/v1/admin; falls back to APIKey

	TrustedProxies []string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Connection pool
	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration

	// Loyalty
	PointsRetentionDays int
	ExpirySweepAt       string        // HH:MM UTC for the daily sweep
	ExpirySweepInterval time.Duration // overrides ExpirySweepAt when positive
	ShippingCost        decimal.Decimal
	ShippingInTotal     bool
	TiersConfigPath     string
	RulesConfigPath     string
	DeadLetterPath      string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:   getEnv("LOG_FORMAT", DefaultLogFormat),
		LogDir:      getEnv("LOG_DIR", "logs"),
		ServiceName: getEnv("SERVICE_NAME", DefaultServiceName),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", DefaultEnvironment),
		APIKey:      getEnv("API_KEY", ""),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),

		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", DefaultDBName),

		DBMaxConns:        getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		DBMaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdleTime),
		DBMaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLifetime),

		PointsRetentionDays: getEnvAsInt("POINTS_RETENTION_DAYS", DefaultPointsRetentionDays),
		ExpirySweepAt:       getEnv("EXPIRY_SWEEP_AT", DefaultExpirySweepAt),
		ExpirySweepInterval: getEnvAsDuration("EXPIRY_SWEEP_INTERVAL", DefaultExpirySweepInterval),
		ShippingInTotal:     getEnvAsBool("SHIPPING_IN_TOTAL", true),
		TiersConfigPath:     getEnv("TIERS_CONFIG_PATH", ConfigPathTiers),
		RulesConfigPath:     getEnv("RULES_CONFIG_PATH", ConfigPathRules),
		DeadLetterPath:      getEnv("EVENT_DEAD_LETTER_PATH", DefaultDeadLetterPath),
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	shipping, err := decimal.NewFromString(getEnv("SHIPPING_COST", DefaultShippingCost))
	if err != nil {
		return nil, fmt.Errorf("invalid SHIPPING_COST value: %w", err)
	}
	if shipping.IsNegative() {
		return nil, fmt.Errorf("invalid SHIPPING_COST value: %s is negative", shipping)
	}
	cfg.ShippingCost = shipping

	if _, err := time.Parse("15:04", cfg.ExpirySweepAt); err != nil {
		return nil, fmt.Errorf("invalid EXPIRY_SWEEP_AT value: %w", err)
	}

	if cfg.PointsRetentionDays <= 0 {
		return nil, fmt.Errorf("invalid POINTS_RETENTION_DAYS value: %d", cfg.PointsRetentionDays)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}
	if cfg.AdminAPIKey == "" {
		cfg.AdminAPIKey = cfg.APIKey
	}

	return cfg, nil
}

// PointsRetention is how long an earned lot stays spendable
func (c *Config) PointsRetention() time.Duration {
	return time.Duration(c.PointsRetentionDays) * 24 * time.Hour
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping empty entries
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
