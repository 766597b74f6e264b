package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir isolates a test from csp.yaml files in the real working and home dirs.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Universe)
	assert.Equal(t, 50.0, cfg.Price.Min)
	assert.Equal(t, 1000.0, cfg.Price.Max)
	assert.Equal(t, 5.0, cfg.Moneyness)
	assert.Equal(t, 4, cfg.Weeks)
	assert.Equal(t, 10, cfg.Expirations)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "close", cfg.Provider.PriceSource)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 128, cfg.Cache.Size)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, 40, cfg.Output.MaxColWidth)
	assert.Equal(t, "warn", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
universe: [NFLX, AMD]
price:
  min: 100
  max: 500
moneyness: 10
provider:
  timeout: 3s
  price_source: quote
output:
  format: csv
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"NFLX", "AMD"}, cfg.Universe)
	assert.Equal(t, 100.0, cfg.Price.Min)
	assert.Equal(t, 500.0, cfg.Price.Max)
	assert.Equal(t, 10.0, cfg.Moneyness)
	assert.Equal(t, 3*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "quote", cfg.Provider.PriceSource)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 4, cfg.Weeks, "unset keys keep defaults")
}

func TestLoad_DiscoversWorkingDirFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "csp.yaml"), []byte("weeks: 6\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Weeks)
}

func TestLoad_Env(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CSP_PRICE_MAX", "300")
	t.Setenv("CSP_CONCURRENCY", "4")
	t.Setenv("CSP_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 300.0, cfg.Price.Max)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted price range", func(c *Config) { c.Price.Min, c.Price.Max = 500, 100 }},
		{"negative price", func(c *Config) { c.Price.Min = -1 }},
		{"unsupported moneyness", func(c *Config) { c.Moneyness = 7 }},
		{"zero weeks", func(c *Config) { c.Weeks = 0 }},
		{"zero expirations", func(c *Config) { c.Expirations = 0 }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"zero timeout", func(c *Config) { c.Provider.Timeout = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := *base
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
