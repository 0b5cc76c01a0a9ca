package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo MongoConfig
	Redis RedisConfig
	Auth  AuthConfig
	Audit AuditConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=task_system"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

// RedisConfig backs login throttling. Leave Addr empty to run without Redis.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type AuthConfig struct {
	SecretKey string `env:"SECRET_KEY, required"`
	Algorithm string `env:"AUTHORIZATION_HASH_ALGORITHM, default=HS256"`
	// TokenTTLSeconds is the lifetime of an access token.
	TokenTTLSeconds int `env:"ACCESS_TOKEN_EXPIRATION_SECONDS, default=86400"`
	BcryptCost      int `env:"BCRYPT_COST, default=10"`

	MaxFailedLogins int           `env:"MAX_FAILED_LOGINS, default=5"`
	LockoutWindow   time.Duration `env:"LOGIN_LOCKOUT_WINDOW, default=15m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// TokenTTL returns the access token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLSeconds) * time.Second
}

// IsDevelopment reports whether the service runs in the development env.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenTTLSeconds <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRATION_SECONDS must be positive, got %d", cfg.Auth.TokenTTLSeconds)
	}
	return &cfg, nil
}
