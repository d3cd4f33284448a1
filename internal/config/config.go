// Package config loads scout's configuration from config.yaml and the
// environment.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. SCOUT_SERVER_PORT.
const EnvPrefix = "SCOUT"

// Config holds the full application configuration.
type Config struct {
	Providers  ProvidersConfig  `yaml:"providers" mapstructure:"providers"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Agent      AgentConfig      `yaml:"agent" mapstructure:"agent"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ProvidersConfig holds the credentials and endpoints of every provider.
// Keys are also read from their conventional variables, e.g.
// FIRECRAWL_API_KEY.
type ProvidersConfig struct {
	Firecrawl   ProviderConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Exa         ProviderConfig `yaml:"exa" mapstructure:"exa"`
	Jina        ProviderConfig `yaml:"jina" mapstructure:"jina"`
	ScrapingAnt ProviderConfig `yaml:"scrapingant" mapstructure:"scrapingant"`
}

// ProviderConfig is the key and base URL of one provider API.
type ProviderConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// Configured reports whether a key is set.
func (p ProviderConfig) Configured() bool { return strings.TrimSpace(p.Key) != "" }

// ScrapeConfig configures the orchestrator.
type ScrapeConfig struct {
	TimeoutSecs        int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FallbackOrder      []string `yaml:"fallback_order" mapstructure:"fallback_order"`
	CompareConcurrency int      `yaml:"compare_concurrency" mapstructure:"compare_concurrency"`
}

// AgentConfig configures agent job polling.
type AgentConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	MaxPollSecs      int `yaml:"max_poll_secs" mapstructure:"max_poll_secs"`
}

// ResilienceConfig tunes retries and circuit breakers around provider calls.
type ResilienceConfig struct {
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig mirrors resilience.RetryConfig in config units.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig mirrors resilience.CircuitBreakerConfig in config units.
type CircuitConfig struct {
	Enabled          bool `yaml:"enabled" mapstructure:"enabled"`
	FailureThreshold int  `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int  `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// StoreConfig configures the history backend. Driver is sqlite, postgres
// or none.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// providerEnv maps provider key settings to their conventional variables.
var providerEnv = map[string]string{
	"providers.firecrawl.key":   "FIRECRAWL_API_KEY",
	"providers.exa.key":         "EXA_API_KEY",
	"providers.jina.key":        "JINA_API_KEY",
	"providers.scrapingant.key": "SCRAPINGANT_API_KEY",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range providerEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	// Defaults
	v.SetDefault("providers.firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("providers.exa.base_url", "https://api.exa.ai")
	v.SetDefault("providers.jina.base_url", "https://r.jina.ai")
	v.SetDefault("providers.scrapingant.base_url", "https://api.scrapingant.com")
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.fallback_order", []string{"jina", "scrapingant", "firecrawl", "native"})
	v.SetDefault("scrape.compare_concurrency", 4)
	v.SetDefault("agent.poll_interval_secs", 3)
	v.SetDefault("agent.max_poll_secs", 270)
	v.SetDefault("resilience.retry.max_attempts", 2)
	v.SetDefault("resilience.retry.initial_backoff_ms", 1000)
	v.SetDefault("resilience.retry.max_backoff_ms", 5000)
	v.SetDefault("resilience.retry.multiplier", 2.0)
	v.SetDefault("resilience.retry.jitter_fraction", 0.25)
	v.SetDefault("resilience.circuit.enabled", true)
	v.SetDefault("resilience.circuit.failure_threshold", 5)
	v.SetDefault("resilience.circuit.reset_timeout_secs", 60)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "scout.db")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var storeDrivers = []string{"sqlite", "postgres", "none"}

// Validate checks the settings a mode depends on: "serve" for the HTTP API,
// "cli" for one-shot commands. All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if !slices.Contains(storeDrivers, c.Store.Driver) {
		errs = append(errs, fmt.Sprintf("store.driver must be one of %s, got %q", strings.Join(storeDrivers, ", "), c.Store.Driver))
	} else if c.Store.Driver != "none" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for driver "+c.Store.Driver)
	}
	if c.Scrape.TimeoutSecs <= 0 {
		errs = append(errs, "scrape.timeout_secs must be > 0")
	}
	if c.Scrape.CompareConcurrency < 1 || c.Scrape.CompareConcurrency > 16 {
		errs = append(errs, "scrape.compare_concurrency must be between 1 and 16")
	}
	if c.Agent.PollIntervalSecs <= 0 || c.Agent.MaxPollSecs < c.Agent.PollIntervalSecs {
		errs = append(errs, "agent.max_poll_secs must be >= agent.poll_interval_secs > 0")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	case "cli":
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
