// Package config loads svcmap settings from flags, SVCMAP_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SVCMAP_SOURCE.
const EnvPrefix = "SVCMAP"

// Keys.
const (
	KeySource      = "source"
	KeyOutput      = "output"
	KeyFormat      = "format"
	KeyTable       = "table"
	KeyResolver    = "resolver"
	KeyConcurrency = "concurrency"
	KeyTimeout     = "timeout"
	KeyLogLevel    = "log_level"
	KeyNoColor     = "no_color"
)

// Config holds the resolved settings.
type Config struct {
	Source      string        `mapstructure:"source"`
	Output      string        `mapstructure:"output"`
	Format      string        `mapstructure:"format"`
	Table       string        `mapstructure:"table"`
	Resolver    string        `mapstructure:"resolver"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	LogLevel    string        `mapstructure:"log_level"`
	NoColor     bool          `mapstructure:"no_color"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeySource, "service-names-port-numbers.csv")
	v.SetDefault(KeyOutput, "services.csv")
	v.SetDefault(KeyFormat, "csv")
	v.SetDefault(KeyTable, "services.csv")
	v.SetDefault(KeyResolver, "")
	v.SetDefault(KeyConcurrency, 10)
	v.SetDefault(KeyTimeout, 3*time.Second)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyNoColor, false)

	return v
}

// Load reads file, when set, and decodes the merged settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %s not found", file)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	return &cfg, nil
}

// NewLogger returns a text logger writing to w at the named level.
func NewLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return log, nil
}
