package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// inTempDir switches to an empty directory so no config.yaml is found.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, env := range providerEnv {
		t.Setenv(env, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	clearProviderEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "scout.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 30, cfg.Scrape.TimeoutSecs)
	assert.Equal(t, []string{"jina", "scrapingant", "firecrawl", "native"}, cfg.Scrape.FallbackOrder)
	assert.Equal(t, 4, cfg.Scrape.CompareConcurrency)
	assert.Equal(t, 3, cfg.Agent.PollIntervalSecs)
	assert.Equal(t, 270, cfg.Agent.MaxPollSecs)
	assert.True(t, cfg.Resilience.Circuit.Enabled)
	assert.Equal(t, 5, cfg.Resilience.Circuit.FailureThreshold)
	assert.Equal(t, 2, cfg.Resilience.Retry.MaxAttempts)
	assert.InDelta(t, 2.0, cfg.Resilience.Retry.Multiplier, 0.001)
	assert.Equal(t, "https://api.firecrawl.dev/v2", cfg.Providers.Firecrawl.BaseURL)
	assert.Equal(t, "https://r.jina.ai", cfg.Providers.Jina.BaseURL)
	assert.Equal(t, "https://api.exa.ai", cfg.Providers.Exa.BaseURL)
	assert.Equal(t, "https://api.scrapingant.com", cfg.Providers.ScrapingAnt.BaseURL)
	assert.False(t, cfg.Providers.Firecrawl.Configured())

	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("cli"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := inTempDir(t)
	clearProviderEnv(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/scout
log:
  level: debug
  format: console
server:
  port: 9090
scrape:
  fallback_order: [native, jina]
providers:
  exa:
    key: exa-from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/scout", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"native", "jina"}, cfg.Scrape.FallbackOrder)
	assert.Equal(t, "exa-from-file", cfg.Providers.Exa.Key)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Scrape.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)
	clearProviderEnv(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("SCOUT_STORE_DRIVER", "none")
	t.Setenv("SCOUT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadProviderKeysFromConventionalEnv(t *testing.T) {
	inTempDir(t)
	clearProviderEnv(t)

	t.Setenv("FIRECRAWL_API_KEY", "fc-123")
	t.Setenv("EXA_API_KEY", "exa-456")
	t.Setenv("JINA_API_KEY", "jina-789")
	t.Setenv("SCRAPINGANT_API_KEY", "ant-000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "fc-123", cfg.Providers.Firecrawl.Key)
	assert.Equal(t, "exa-456", cfg.Providers.Exa.Key)
	assert.Equal(t, "jina-789", cfg.Providers.Jina.Key)
	assert.Equal(t, "ant-000", cfg.Providers.ScrapingAnt.Key)
	assert.True(t, cfg.Providers.Firecrawl.Configured())
}

func TestLoadPrefixedKeyWins(t *testing.T) {
	inTempDir(t)
	clearProviderEnv(t)

	t.Setenv("JINA_API_KEY", "plain")
	t.Setenv("SCOUT_PROVIDERS_JINA_KEY", "prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Providers.Jina.Key)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	inTempDir(t)
	clearProviderEnv(t)

	t.Setenv("SCOUT_SERVER_PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read file")
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
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "scout.db"
	cfg.Scrape.TimeoutSecs = 30
	cfg.Scrape.CompareConcurrency = 4
	cfg.Agent.PollIntervalSecs = 3
	cfg.Agent.MaxPollSecs = 270
	cfg.Server.Port = 3000
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidate_StoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = " SQLite "
	require.NoError(t, cfg.Validate("cli"))
	assert.Equal(t, "sqlite", cfg.Store.Driver)

	cfg.Store.Driver = "mysql"
	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be one of sqlite, postgres, none")

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	err = cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required for driver postgres")

	cfg.Store.Driver = "none"
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Scrape.TimeoutSecs = 0
	cfg.Scrape.CompareConcurrency = 50
	cfg.Agent.MaxPollSecs = 1

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape.timeout_secs must be > 0")
	assert.Contains(t, err.Error(), "compare_concurrency must be between 1 and 16")
	assert.Contains(t, err.Error(), "agent.max_poll_secs")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
