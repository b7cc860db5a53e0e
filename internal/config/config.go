package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                  int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel              string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gt=0"`
}

// RequestTimeout returns the per-request deadline applied by the router.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// ConnMaxLifetime returns the pool's connection lifetime.
func (c DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

// AuthConfig contains the settings used to validate bearer tokens.
// Tokens are issued elsewhere; this service only verifies them.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `mapstructure:"issuer"`
}

// ReviewConfig contains the review scheduling settings.
type ReviewConfig struct {
	// DailyLimit is the number of distinct cards an account may review per UTC day.
	DailyLimit int `mapstructure:"daily_limit" validate:"gte=1"`
	// MaxRetries bounds how many times a review commit is attempted when the
	// database reports a serialization failure or deadlock.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=1,lte=10"`
}

// CacheConfig configures the optional Redis cache in front of the card catalog.
// An empty RedisURL disables caching.
type CacheConfig struct {
	RedisURL           string `mapstructure:"redis_url" validate:"omitempty,url"`
	CardTypeTTLSeconds int    `mapstructure:"card_type_ttl_seconds" validate:"gte=0"`
}

// CardTypeTTL returns how long cached card types stay valid.
func (c CacheConfig) CardTypeTTL() time.Duration {
	return time.Duration(c.CardTypeTTLSeconds) * time.Second
}

// Enabled reports whether a Redis cache is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}
