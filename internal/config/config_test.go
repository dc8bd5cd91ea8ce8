package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500*time.Millisecond, cfg.GetRequestDelay())
	assert.Equal(t, "searchform", cfg.Search.FormID)
	assert.Equal(t, 1, cfg.Selectors.LinkIndex)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing target", func(c *Config) { c.TargetURL = "" }, "target_url"},
		{"inverted price bounds", func(c *Config) { c.Search.MinPrice = 2000 }, "min_price"},
		{"negative delay", func(c *Config) { c.RateLimit.RequestDelayMS = -1 }, "request_delay_ms"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, "storage.driver"},
		{"db without dsn", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.dsn"},
		{"csv without path", func(c *Config) { c.Storage.OutputPath = "" }, "output_path"},
		{"negative link index", func(c *Config) { c.Selectors.LinkIndex = -1 }, "link_index"},
		{"rod without timeouts", func(c *Config) {
			c.Rod.Enabled = true
			c.Rod.PageTimeoutS = 0
		}, "rod.page_timeout_s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
target_url: http://example.test/search/apa
search:
  query: Balcony
  min_price: 1000
  max_price: 2500
rate_limit:
  request_delay_ms: 50
storage:
  output_path: out/listings.csv
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.test/search/apa", cfg.TargetURL)
	assert.Equal(t, "Balcony", cfg.Search.Query)
	assert.Equal(t, 1000.0, cfg.Search.MinPrice)
	assert.Equal(t, 50*time.Millisecond, cfg.GetRequestDelay())
	assert.Equal(t, "out/listings.csv", cfg.Storage.OutputPath)
	// untouched sections keep defaults
	assert.Equal(t, "minAsk", cfg.Search.Fields.MinPrice)
	assert.Equal(t, "span.pnr", cfg.Selectors.Location)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "targt_url: http://typo.test\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadConfigSelectorsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "selectors.yaml", `
row: li.result-row
link: a.result-title
link_index: 0
price: span.result-price
location: span.result-hood
location_trim_prefix: 2
location_trim_suffix: 1
`)
	path := writeFile(t, dir, "config.yaml", "selectors_file: selectors.yaml\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "li.result-row", cfg.Selectors.Row)
	assert.Equal(t, 0, cfg.Selectors.LinkIndex)
	assert.Equal(t, 1, cfg.Selectors.LocationTrimSuffix)
}

func TestLoadSelectorsValidation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "selectors.yaml", "row: \"\"\n")
	_, err := LoadSelectors(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row is required")

	_, err = LoadSelectors("")
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvOutputPath, "env.csv")
	t.Setenv(EnvStorageDSN, "postgres://u:p@localhost/db")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "env.csv", cfg.Storage.OutputPath)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", EnvTargetURL+"=http://dotenv.test/search\n")
	t.Setenv(EnvTargetURL, "")
	os.Unsetenv(EnvTargetURL)

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "http://dotenv.test/search", os.Getenv(EnvTargetURL))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}

func TestShippedConfigMatchesDefault(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	want := Default()
	want.SelectorsFile = "selectors.yaml"
	assert.Equal(t, want, cfg)
}
