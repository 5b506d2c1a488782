package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Development fallbacks. Production refuses to start with either of them.
const (
	DevAccessTokenSecret  = "dev-access-secret-change-in-production"
	DevRefreshTokenSecret = "dev-refresh-secret-change-in-production"

	minProductionSecretLength = 32
)

// Config is the full process configuration, read once at startup.
type Config struct {
	Environment string
	Server      Server
	Auth        Auth
	RateLimit   RateLimit
	Database    Database
	Redis       RedisConfig
	Kafka       Kafka
	LogLevel    string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
	TrustedProxies  string
	AdminAPIToken   string
	ShutdownTimeout time.Duration
}

// Auth holds token secrets and lifetimes.
type Auth struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	// AccessTokenMaxAge bounds token age independently of the embedded expiry.
	AccessTokenMaxAge  time.Duration
	RefreshTokenMaxAge time.Duration
	RefreshRotation    bool
}

// RateLimit configures login attempt limiting and the per-IP throttle.
type RateLimit struct {
	LoginMaxAttempts int
	LoginWindow      time.Duration
	IPMaxAttempts    int
	AuthIPRPS        float64
	AuthIPBurst      int
}

type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Kafka struct {
	Brokers    string
	LoginTopic string
	Acks       string
	Retries    int
}

// IsProduction reports whether APP_ENV selects production hardening.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// FromEnv builds Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds Config from an env lookup function.
func Load(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}
	cfg := Config{
		Environment: r.str("APP_ENV", "development"),
		LogLevel:    r.str("LOG_LEVEL", "info"),
		Server: Server{
			Addr:            r.str("SMARTPARKING_ADDR", ":8080"),
			RequestTimeout:  r.duration("REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:    int64(r.int("MAX_BODY_BYTES", 1<<20)),
			TrustedProxies:  r.str("TRUSTED_PROXIES", ""),
			AdminAPIToken:   r.str("ADMIN_API_TOKEN", ""),
			ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: Auth{
			AccessTokenSecret:  r.str("ACCESS_TOKEN_SECRET", DevAccessTokenSecret),
			RefreshTokenSecret: r.str("REFRESH_TOKEN_SECRET", DevRefreshTokenSecret),
			AccessTokenTTL:     r.duration("ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL:    r.duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			RefreshRotation:    r.bool("REFRESH_ROTATION", true),
		},
		RateLimit: RateLimit{
			LoginMaxAttempts: r.int("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:      r.duration("LOGIN_WINDOW", 15*time.Minute),
			IPMaxAttempts:    r.int("LOGIN_IP_MAX_ATTEMPTS", 50),
			AuthIPRPS:        r.float("AUTH_IP_RPS", 5),
			AuthIPBurst:      r.int("AUTH_IP_BURST", 10),
		},
		Database: Database{
			URL:             r.str("DATABASE_URL", ""),
			MaxOpenConns:    r.int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    r.int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: r.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrateOnStart:  r.bool("MIGRATE_ON_START", true),
		},
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:    r.str("KAFKA_BROKERS", ""),
			LoginTopic: r.str("KAFKA_LOGIN_TOPIC", "admin.login"),
			Acks:       r.str("KAFKA_ACKS", "all"),
			Retries:    r.int("KAFKA_RETRIES", 3),
		},
	}
	cfg.Auth.AccessTokenMaxAge = r.duration("ACCESS_TOKEN_MAX_AGE", cfg.Auth.AccessTokenTTL)
	cfg.Auth.RefreshTokenMaxAge = r.duration("REFRESH_TOKEN_MAX_AGE", cfg.Auth.RefreshTokenTTL)

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces cross-field rules and production secret provisioning.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Auth.RefreshTokenTTL < c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL"))
	}
	if c.RateLimit.LoginMaxAttempts <= 0 || c.RateLimit.LoginWindow <= 0 {
		errs = append(errs, errors.New("login rate limit must be positive"))
	}
	if c.IsProduction() {
		errs = append(errs, checkProductionSecret("ACCESS_TOKEN_SECRET", c.Auth.AccessTokenSecret, DevAccessTokenSecret))
		errs = append(errs, checkProductionSecret("REFRESH_TOKEN_SECRET", c.Auth.RefreshTokenSecret, DevRefreshTokenSecret))
		if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
			errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
		}
	}
	return errors.Join(errs...)
}

func checkProductionSecret(name, value, devDefault string) error {
	switch {
	case value == "" || value == devDefault:
		return fmt.Errorf("%s must be set explicitly in production", name)
	case len(value) < minProductionSecretLength:
		return fmt.Errorf("%s must be at least %d bytes", name, minProductionSecretLength)
	}
	return nil
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) int(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (r *reader) bool(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
