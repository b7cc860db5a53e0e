package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. RECALL_DATABASE_URL.
const EnvPrefix = "RECALL"

// Options controls where Load looks for configuration beyond the environment.
type Options struct {
	// ConfigFile is an explicit YAML file. When empty, config.yaml is looked up
	// in the working directory and its absence is not an error.
	ConfigFile string
	// Flags, when set, overrides values from any flag the user changed.
	// Flag names map to keys through FlagBindings.
	Flags *pflag.FlagSet
}

// FlagBindings maps command-line flag names to configuration keys.
var FlagBindings = map[string]string{
	"port":      "server.port",
	"log-level": "server.log_level",
}

var defaults = map[string]any{
	"server.port":                        8080,
	"server.log_level":                   "info",
	"server.request_timeout_seconds":     30,
	"database.max_open_conns":            25,
	"database.max_idle_conns":            25,
	"database.conn_max_lifetime_minutes": 5,
	"review.daily_limit":                 10,
	"review.max_retries":                 3,
	"cache.card_type_ttl_seconds":        300,
}

// keys lists every configuration key so AutomaticEnv can see keys that have no
// default and no config file entry.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.request_timeout_seconds",
	"database.url",
	"database.max_open_conns",
	"database.max_idle_conns",
	"database.conn_max_lifetime_minutes",
	"auth.jwt_secret",
	"auth.issuer",
	"review.daily_limit",
	"review.max_retries",
	"cache.redis_url",
	"cache.card_type_ttl_seconds",
}

// Load configuration from environment variables and optionally config.yaml in
// the working directory. Environment variables take precedence over values
// from config files. Returns a populated Config or an error if
// loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions loads configuration with precedence flags > environment >
// config file > defaults, then validates the result.
func LoadWithOptions(opts Options) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range FlagBindings {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("error binding flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
