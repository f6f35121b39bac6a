package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MinSecretLength is the shortest signing secret accepted at startup.
const MinSecretLength = 32

// ErrConfigInvalid marks configuration that must prevent the process from starting.
var ErrConfigInvalid = errors.New("invalid configuration")

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
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

// PostgresConfig holds DB connection values for the user directory.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret                 string
	TokenTTLMillis            int64
	SweepIntervalSeconds      int
	BcryptCost                int
	LoginMaxFailures          int
	LoginFailureWindowSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
// Invalid authentication settings are reported as ErrConfigInvalid.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenTTL, err := strconv.ParseInt(getEnv("AUTH_TOKEN_TTL_MS", "3600000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: AUTH_TOKEN_TTL_MS must be an integer number of milliseconds", ErrConfigInvalid)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                 os.Getenv("AUTH_JWT_SECRET"),
			TokenTTLMillis:            tokenTTL,
			SweepIntervalSeconds:      getEnvAsInt("AUTH_REVOCATION_SWEEP_INTERVAL_SECONDS", 3600),
			BcryptCost:                getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginMaxFailures:          getEnvAsInt("AUTH_LOGIN_MAX_FAILURES", 5),
			LoginFailureWindowSeconds: getEnvAsInt("AUTH_LOGIN_FAILURE_WINDOW_SECONDS", 900),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be corrected at request time.
func (c *Config) Validate() error {
	return c.Auth.Validate()
}

// Validate rejects a missing or short signing secret, non-positive durations,
// and a throttling limit without a window.
func (a AuthConfig) Validate() error {
	if a.JWTSecret == "" {
		return fmt.Errorf("%w: AUTH_JWT_SECRET is required", ErrConfigInvalid)
	}
	if len(a.JWTSecret) < MinSecretLength {
		return fmt.Errorf("%w: AUTH_JWT_SECRET must be at least %d bytes", ErrConfigInvalid, MinSecretLength)
	}
	if a.TokenTTLMillis <= 0 {
		return fmt.Errorf("%w: AUTH_TOKEN_TTL_MS must be positive", ErrConfigInvalid)
	}
	if a.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("%w: AUTH_REVOCATION_SWEEP_INTERVAL_SECONDS must be positive", ErrConfigInvalid)
	}
	if a.LoginMaxFailures > 0 && a.LoginFailureWindowSeconds <= 0 {
		return fmt.Errorf("%w: AUTH_LOGIN_FAILURE_WINDOW_SECONDS must be positive while login throttling is enabled", ErrConfigInvalid)
	}
	return nil
}

// TokenTTL returns the configured token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMillis) * time.Millisecond
}

// SweepInterval returns how often expired revocations are discarded.
func (a AuthConfig) SweepInterval() time.Duration {
	return time.Duration(a.SweepIntervalSeconds) * time.Second
}

// LoginFailureWindow returns the window in which failed logins are counted.
func (a AuthConfig) LoginFailureWindow() time.Duration {
	if a.LoginFailureWindowSeconds <= 0 {
		return 0
	}
	return time.Duration(a.LoginFailureWindowSeconds) * time.Second
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
