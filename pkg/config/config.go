package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	State         StateConfig
	Storage       StorageConfig
	Mail          MailConfig
	Observability ObservabilityConfig
	Ratings       RatingsConfig
	Report        ReportConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	BaseURL            string
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
	MaxUploadBytes     int64
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// StateConfig controls how long report state is kept.
type StateConfig struct {
	TTL           time.Duration
	PurgeSchedule string
}

type StorageConfig struct {
	Path string
}

type MailConfig struct {
	APIKey string
	From   string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       string
	ServiceName    string
}

// RatingsConfig are the flow ratings printed for installed fixtures.
type RatingsConfig struct {
	Kitchen   decimal.Decimal
	Bathroom  decimal.Decimal
	Shower    decimal.Decimal
	ADAShower decimal.Decimal
	Toilet    decimal.Decimal
}

// ReportConfig tunes report computation.
type ReportConfig struct {
	MergeDuplicates bool
	FuzzyColumns    bool
}

// Load reads configuration from environment variables, after loading a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 200),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			MaxUploadBytes:     int64(getEnvAsInt("SERVER_MAX_UPLOAD_BYTES", 20<<20)),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("POSTGRES_ENABLED", true),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5469),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "fixture-report-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		State: StateConfig{
			TTL:           getEnvAsDuration("REPORT_STATE_TTL", 30*24*time.Hour),
			PurgeSchedule: getEnv("REPORT_PURGE_SCHEDULE", "0 3 * * *"),
		},
		Storage: StorageConfig{
			Path: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		},
		Mail: MailConfig{
			APIKey: getEnv("RESEND_API_KEY", ""),
			From:   getEnv("RESEND_FROM_EMAIL", "Reports <reports@example.com>"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			ServiceName:    getEnv("SERVICE_NAME", "fixture-report"),
		},
		Ratings: RatingsConfig{
			Kitchen:   getEnvAsDecimal("RATING_KITCHEN", "1.0"),
			Bathroom:  getEnvAsDecimal("RATING_BATHROOM", "1.0"),
			Shower:    getEnvAsDecimal("RATING_SHOWER", "1.75"),
			ADAShower: getEnvAsDecimal("RATING_ADA_SHOWER", "1.5"),
			Toilet:    getEnvAsDecimal("RATING_TOILET", "0.8"),
		},
		Report: ReportConfig{
			MergeDuplicates: getEnvAsBool("REPORT_MERGE_DUPLICATES", false),
			FuzzyColumns:    getEnvAsBool("REPORT_FUZZY_COLUMNS", false),
		},
	}

	if cfg.State.TTL <= 0 {
		return nil, errors.New("REPORT_STATE_TTL must be positive")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the listen address of the API server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvAsDecimal falls back to defaultValue when the variable is unset or
// not a non-negative number.
func getEnvAsDecimal(key, defaultValue string) decimal.Decimal {
	if value, err := decimal.NewFromString(os.Getenv(key)); err == nil && !value.IsNegative() {
		return value
	}
	return decimal.RequireFromString(defaultValue)
}
