package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Oracle   OracleConfig
	Routing  RoutingConfig
	Telegram TelegramConfig
	Admin    AdminConfig
	Redis    RedisConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// DatabaseConfig holds the embedded database location.
type DatabaseConfig struct {
	Path string
}

// OracleConfig configures the extraction oracle provider.
type OracleConfig struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
	Temperature    float32
	MaxTokens      int
}

// RoutingConfig holds routing policy knobs. UrgentSLAFactor and
// UrgentSLAFloorHours are tunable policy values, not logic: urgent
// complaints get their department SLA multiplied by the factor and
// never reduced below the floor.
type RoutingConfig struct {
	RegistryPath        string
	UrgentSLAFactor     float64
	UrgentSLAFloorHours int
}

// TelegramConfig configures the citizen bot channel.
type TelegramConfig struct {
	BotToken           string
	PollTimeoutSeconds int
}

// AdminConfig defines the admin authentication parameters. The shared
// secret is injected here at process start; nothing else in the code
// holds it.
type AdminConfig struct {
	Secret            string
	SecretBcryptHash  string
	JWTSecret         string
	SessionTTLMinutes int
}

// RedisConfig holds Redis connection and rate limit values.
type RedisConfig struct {
	Addr                   string
	Password               string
	DB                     int
	RateLimitMax           int
	RateLimitWindowSeconds int
	RateLimitEnabled       bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "grievance-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "grievance.db"),
		},
		Oracle: OracleConfig{
			Provider:       getEnv("ORACLE_PROVIDER", "ollama"),
			Model:          getEnv("ORACLE_MODEL", "qwen2.5:7b-instruct"),
			APIKey:         os.Getenv("ORACLE_API_KEY"),
			BaseURL:        getEnv("ORACLE_BASE_URL", ""),
			TimeoutSeconds: getEnvAsInt("ORACLE_TIMEOUT_SECONDS", 30),
			Temperature:    float32(getEnvAsFloat("ORACLE_TEMPERATURE", 0.1)),
			MaxTokens:      getEnvAsInt("ORACLE_MAX_TOKENS", 500),
		},
		Routing: RoutingConfig{
			RegistryPath:        getEnv("ROUTING_REGISTRY_PATH", ""),
			UrgentSLAFactor:     getEnvAsFloat("ROUTING_URGENT_SLA_FACTOR", 0.5),
			UrgentSLAFloorHours: getEnvAsInt("ROUTING_URGENT_SLA_FLOOR_HOURS", 6),
		},
		Telegram: TelegramConfig{
			BotToken:           os.Getenv("TELEGRAM_BOT_TOKEN"),
			PollTimeoutSeconds: getEnvAsInt("TELEGRAM_POLL_TIMEOUT_SECONDS", 30),
		},
		Admin: AdminConfig{
			Secret:            os.Getenv("ADMIN_SECRET"),
			SecretBcryptHash:  os.Getenv("ADMIN_SECRET_BCRYPT_HASH"),
			JWTSecret:         getEnv("ADMIN_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes: getEnvAsInt("ADMIN_SESSION_TTL_MINUTES", 60),
		},
		Redis: RedisConfig{
			Addr:                   getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:               os.Getenv("REDIS_PASSWORD"),
			DB:                     redisDB,
			RateLimitMax:           getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 30),
			RateLimitWindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			RateLimitEnabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.App.Env != "development" {
		if cfg.Admin.Secret == "" && cfg.Admin.SecretBcryptHash == "" {
			return nil, fmt.Errorf("ADMIN_SECRET or ADMIN_SECRET_BCRYPT_HASH must be set outside development")
		}
		if cfg.Admin.JWTSecret == "dev-secret" {
			return nil, fmt.Errorf("ADMIN_JWT_SECRET must be set outside development")
		}
	}
	if cfg.Routing.UrgentSLAFactor <= 0 || cfg.Routing.UrgentSLAFactor > 1 {
		return nil, fmt.Errorf("ROUTING_URGENT_SLA_FACTOR must be in (0,1], got %v", cfg.Routing.UrgentSLAFactor)
	}
	if cfg.Routing.UrgentSLAFloorHours < 1 {
		return nil, fmt.Errorf("ROUTING_URGENT_SLA_FLOOR_HOURS must be positive, got %d", cfg.Routing.UrgentSLAFloorHours)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the oracle call deadline.
func (o OracleConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// Enabled reports whether the bot channel is configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

// PollTimeout returns the long poll duration for getUpdates.
func (t TelegramConfig) PollTimeout() time.Duration {
	if t.PollTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(t.PollTimeoutSeconds) * time.Second
}

// SessionTTL returns the admin token lifetime.
func (a AdminConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// RateLimitWindow returns the fixed rate limit window.
func (r RedisConfig) RateLimitWindow() time.Duration {
	if r.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.RateLimitWindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
