package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/meridianbank/meridian/internal/money"
)

const (
	defaultAppName         = "Meridian"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultSnapshotPath    = "data/bank.json"
	defaultAgency          = "0001"
	defaultCheckingCap     = "500.00"
	defaultMaxWithdrawals  = 3
	defaultAdminCPF        = "00000000000"
	defaultAdminName       = "administrator"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 24 * time.Hour
)

// Config captures application runtime configuration loaded from environment
// variables. DatabaseURL and RedisURL are optional: without a database the
// snapshot goes to the JSON file, and without Redis the idempotency and
// rate-limit middlewares are disabled.
type Config struct {
	AppName      string
	AppEnv       string
	Port         string
	LogLevel     string
	SnapshotPath string
	DatabaseURL  string
	RedisURL     string

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Agency                 string
	CheckingCap            money.Money
	CheckingMaxWithdrawals int
	CheckingResetPeriod    time.Duration

	AdminCPF      string
	AdminName     string
	AdminPassword string

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	LoginRateLimit int
}

// Load reads configuration values from the environment and populates a
// Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:                getEnv("APP_NAME", defaultAppName),
		AppEnv:                 getEnv("APP_ENV", defaultAppEnv),
		Port:                   getEnv("PORT", defaultPort),
		LogLevel:               strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		SnapshotPath:           getEnv("SNAPSHOT_PATH", defaultSnapshotPath),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		RefreshSecret:          os.Getenv("REFRESH_SECRET"),
		AccessTokenTTL:         defaultAccessTokenTTL,
		RefreshTokenTTL:        defaultRefreshTokenTTL,
		Agency:                 getEnv("AGENCY", defaultAgency),
		CheckingMaxWithdrawals: defaultMaxWithdrawals,
		AdminCPF:               getEnv("ADMIN_CPF", defaultAdminCPF),
		AdminName:              getEnv("ADMIN_NAME", defaultAdminName),
		AdminPassword:          getEnv("ADMIN_PASSWORD", "change-me"),
		ShutdownPeriod:         defaultShutdownDelay,
		IdempotencyTTL:         defaultIdempotencyTTL,
		LoginRateLimit:         5,
	}

	capAmount, err := money.Parse(getEnv("CHECKING_WITHDRAWAL_CAP", defaultCheckingCap))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CHECKING_WITHDRAWAL_CAP: %w", err)
	}
	cfg.CheckingCap = capAmount

	if v := os.Getenv("CHECKING_MAX_WITHDRAWALS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid CHECKING_MAX_WITHDRAWALS: %q", v)
		}
		cfg.CheckingMaxWithdrawals = n
	}

	if v := os.Getenv("CHECKING_RESET_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid CHECKING_RESET_PERIOD: %q", v)
		}
		cfg.CheckingResetPeriod = d
	}

	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid ACCESS_TOKEN_TTL: %w", err)
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("REFRESH_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REFRESH_TOKEN_TTL: %w", err)
		}
		cfg.RefreshTokenTTL = d
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_LIMIT: %q", v)
		}
		cfg.LoginRateLimit = n
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.RefreshSecret == "" {
		return Config{}, fmt.Errorf("REFRESH_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
