package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Process.Concurrency)
	assert.Equal(t, 0, cfg.Process.CountryScale.Divisor)
	assert.InDelta(t, 10.0, cfg.Process.CountryScale.Factor, 0.001)
	assert.Equal(t, "https://viaf.org/viaf/search", cfg.Fetch.BaseURL)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.Retries)
	assert.InDelta(t, 2.0, cfg.Fetch.RateLimit, 0.001)
	assert.Equal(t, "holdingscount", cfg.Fetch.SortKey)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "authority.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/authority
log:
  level: debug
  format: console
process:
  concurrency: 16
  country_scale:
    divisor: 100
server:
  port: 9090
  cors_origins:
    - https://catalog.example.org
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/authority", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 16, cfg.Process.Concurrency)
	assert.Equal(t, 100, cfg.Process.CountryScale.Divisor)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://catalog.example.org"}, cfg.Server.CORSOrigins)
	// Defaults still apply for unset values
	assert.InDelta(t, 10.0, cfg.Process.CountryScale.Factor, 0.001)
	assert.Equal(t, 3, cfg.Fetch.Retries)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unterminated"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("AUTHORITY_STORE_DRIVER", "postgres")
	t.Setenv("AUTHORITY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("AUTHORITY_SERVER_PORT", "3000")
	t.Setenv("AUTHORITY_PROCESS_CONCURRENCY", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Process.Concurrency)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Process.Concurrency = 4
	cfg.Process.CountryScale.Factor = 10
	cfg.Fetch.BaseURL = "https://viaf.org/viaf/search"
	cfg.Fetch.Retries = 3
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "authority.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"process", "fetch", "store", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateFetch_MissingBaseURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Fetch.BaseURL = ""
	cfg.Fetch.Retries = -1

	err := cfg.Validate("fetch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetch.base_url is required")
	assert.Contains(t, err.Error(), "fetch.retries must be >= 0")

	// process mode does not look at fetch settings
	assert.NoError(t, cfg.Validate("process"))
}

func TestValidateStore_BadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("store")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Process.Concurrency = 0
	err := cfg.Validate("process")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "process.concurrency must be between 1 and 64")

	cfg.Process.Concurrency = 65
	assert.Error(t, cfg.Validate("process"))

	cfg.Process.Concurrency = 64
	assert.NoError(t, cfg.Validate("process"))
}

func TestValidateCountryScale(t *testing.T) {
	cfg := validDefaults()

	cfg.Process.CountryScale.Divisor = -1
	err := cfg.Validate("process")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "divisor")

	cfg.Process.CountryScale.Divisor = 0
	cfg.Process.CountryScale.Factor = -2
	err = cfg.Validate("process")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "factor")
}
