package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Dataset    DatasetConfig
	PostgreSQL PostgreSQLConfig
	LLM        LLMConfig
	Advisory   AdvisoryConfig
	Estimator  EstimatorConfig
	Chat       ChatConfig
	Redis      RedisConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// DatasetConfig selects where the vehicle dataset is loaded from
type DatasetConfig struct {
	Source string // "csv" or "postgres"
	Dir    string // directory holding the CSV partitions, rankings and last_updated.txt
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence over the parts
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// LLMConfig holds text-generation provider configuration
type LLMConfig struct {
	Provider        string // "openai" (any OpenAI-compatible API) or "gemini"
	APIKey          string
	APIBase         string
	SummaryModel    string
	PriceModel      string
	KPIModel        string
	ChatModel       string
	GeminiModel     string // used when a gpt-* model name reaches the Gemini provider
	AdvisoryTemp    float64
	ChatTemperature float64
	ChatTopP        float64
	ChatMaxTokens   int
	ChatExtraBody   string // JSON string for extra_body (e.g., {"chat_template_kwargs":{"thinking":true}})
	Timeout         int    // HTTP client timeout in seconds
	Enabled         bool
}

// AdvisoryConfig holds per-call limits for the advisory requests
type AdvisoryConfig struct {
	CallTimeout time.Duration
}

// EstimatorConfig holds the defaults offered by the energy cost estimator
type EstimatorConfig struct {
	DefaultAnnualDistanceKm float64
	DefaultCityPercent      float64
	DefaultFuelPrice        float64
	DefaultElectricityPrice float64
}

// ChatConfig holds chat session configuration
type ChatConfig struct {
	Store      string // "memory" or "redis"
	SessionTTL time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Dataset: DatasetConfig{
			Source: strings.ToLower(getEnv("DATASET_SOURCE", "csv")),
			Dir:    getEnv("DATA_DIR", "data"),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "car_intel"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			APIKey:          getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
			APIBase:         strings.TrimRight(getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"), "/"),
			SummaryModel:    getEnv("LLM_SUMMARY_MODEL", "gpt-4o-mini"),
			PriceModel:      getEnv("LLM_PRICE_MODEL", "gpt-4o"),
			KPIModel:        getEnv("LLM_KPI_MODEL", "gpt-4o-mini"),
			ChatModel:       getEnv("LLM_CHAT_MODEL", "gpt-4o-mini"),
			GeminiModel:     getEnv("LLM_GEMINI_MODEL", "gemini-2.0-flash-001"),
			AdvisoryTemp:    getEnvAsFloat("LLM_ADVISORY_TEMPERATURE", 0.3),
			ChatTemperature: getEnvAsFloat("LLM_CHAT_TEMPERATURE", 0.7),
			ChatTopP:        getEnvAsFloat("LLM_CHAT_TOP_P", 0),
			ChatMaxTokens:   getEnvAsInt("LLM_CHAT_MAX_TOKENS", 0),
			ChatExtraBody:   getEnv("LLM_CHAT_EXTRA_BODY", ""),
			Timeout:         getEnvAsInt("LLM_TIMEOUT", 60),
		},
		Advisory: AdvisoryConfig{
			CallTimeout: getEnvAsDuration("ADVISORY_CALL_TIMEOUT", 30*time.Second),
		},
		Estimator: EstimatorConfig{
			DefaultAnnualDistanceKm: getEnvAsFloat("ESTIMATOR_DEFAULT_DISTANCE_KM", 15000),
			DefaultCityPercent:      getEnvAsFloat("ESTIMATOR_DEFAULT_CITY_PERCENT", 80),
			DefaultFuelPrice:        getEnvAsFloat("ESTIMATOR_DEFAULT_FUEL_PRICE", 1.80),
			DefaultElectricityPrice: getEnvAsFloat("ESTIMATOR_DEFAULT_ELECTRICITY_PRICE", 0.14),
		},
		Chat: ChatConfig{
			Store:      strings.ToLower(getEnv("CHAT_STORE", "memory")),
			SessionTTL: getEnvAsDuration("CHAT_SESSION_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
	cfg.LLM.Enabled = cfg.LLM.APIKey != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects enumerated settings the server cannot act on
func (c *Config) Validate() error {
	switch c.Dataset.Source {
	case "csv", "postgres":
	default:
		return fmt.Errorf("invalid DATASET_SOURCE %q, must be csv or postgres", c.Dataset.Source)
	}
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q, must be openai or gemini", c.LLM.Provider)
	}
	switch c.Chat.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CHAT_STORE %q, must be memory or redis", c.Chat.Store)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
