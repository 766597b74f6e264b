// Package config loads csp settings from defaults, an optional YAML file and
// CSP_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/komsit37/csp/pkg/csp/filter"
)

// EnvPrefix prefixes every environment override, e.g. CSP_PRICE_MIN.
const EnvPrefix = "CSP"

type Config struct {
	Universe    []string       `mapstructure:"universe"`
	Price       PriceConfig    `mapstructure:"price"`
	Moneyness   float64        `mapstructure:"moneyness"`
	Weeks       int            `mapstructure:"weeks"`
	Expirations int            `mapstructure:"expirations"`
	Concurrency int            `mapstructure:"concurrency"`
	Provider    ProviderConfig `mapstructure:"provider"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Output      OutputConfig   `mapstructure:"output"`
	Log         LogConfig      `mapstructure:"log"`
}

type PriceConfig struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

type ProviderConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	PriceSource string        `mapstructure:"price_source"` // close or quote
}

type CacheConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Size int           `mapstructure:"size"`
}

type OutputConfig struct {
	Format      string `mapstructure:"format"`
	Dir         string `mapstructure:"dir"`
	MaxColWidth int    `mapstructure:"max_col_width"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// PriceRange returns the configured price bounds.
func (c *Config) PriceRange() filter.PriceRange {
	return filter.PriceRange{Min: c.Price.Min, Max: c.Price.Max}
}

// Load reads configuration. With an empty path it looks for csp.yaml in the
// working directory and then ~/.config/csp; a missing file is not an error.
// An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("csp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(homeDir(), ".config", "csp"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("universe", []string{})
	v.SetDefault("price.min", filter.DefaultMinPrice)
	v.SetDefault("price.max", filter.DefaultMaxPrice)
	v.SetDefault("moneyness", filter.DefaultMoneyness)
	v.SetDefault("weeks", 4)
	v.SetDefault("expirations", 10)
	v.SetDefault("concurrency", 1)

	v.SetDefault("provider.timeout", 10*time.Second)
	v.SetDefault("provider.price_source", "close")

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.size", 128)

	v.SetDefault("output.format", "table")
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.max_col_width", 40)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.pretty", true)
}

// Validate checks values that flags or files may have set.
func (c *Config) Validate() error {
	if err := c.PriceRange().Validate(); err != nil {
		return err
	}
	if err := filter.Moneyness(c.Moneyness); err != nil {
		return err
	}
	if c.Weeks <= 0 {
		return fmt.Errorf("weeks must be positive, got %d", c.Weeks)
	}
	if c.Expirations <= 0 {
		return fmt.Errorf("expirations must be positive, got %d", c.Expirations)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive, got %s", c.Provider.Timeout)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
