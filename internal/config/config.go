// Package config loads process configuration from defaults, an optional
// YAML file, PARQSEE_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vegasq/parqsee/internal/logging"
)

// EnvPrefix prefixes every environment variable, e.g. PARQSEE_LOG_LEVEL.
const EnvPrefix = "PARQSEE"

// Config is the full process configuration.
type Config struct {
	Log   LogConfig   `mapstructure:"log"`
	Query QueryConfig `mapstructure:"query"`
	Read  ReadConfig  `mapstructure:"read"`
	Serve ServeConfig `mapstructure:"serve"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// QueryConfig configures query sessions.
type QueryConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// ReadConfig configures paginated reads.
type ReadConfig struct {
	DefaultLimit int64 `mapstructure:"default_limit"`
}

// ServeConfig configures the request server.
type ServeConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:       c.Log.Level,
		Encoding:    c.Log.Encoding,
		Development: c.Log.Development,
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-encoding":  "log.encoding",
	"batch-size":    "query.batch_size",
	"default-limit": "read.default_limit",
	"metrics-addr":  "serve.metrics_addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)
	v.SetDefault("query.batch_size", 1024)
	v.SetDefault("read.default_limit", 100)
	v.SetDefault("serve.metrics_addr", "")
}

// Load builds the configuration. An empty path skips the config file. Only
// flags in flags that were set on the command line override other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Query.BatchSize <= 0 {
		return fmt.Errorf("query.batch_size must be positive, got %d", c.Query.BatchSize)
	}
	if c.Read.DefaultLimit < 0 {
		return fmt.Errorf("read.default_limit must not be negative, got %d", c.Read.DefaultLimit)
	}
	return nil
}
