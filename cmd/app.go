package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/agent"
	"github.com/sells-group/scout/internal/analyze"
	"github.com/sells-group/scout/internal/config"
	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/internal/store"
	"github.com/sells-group/scout/pkg/exa"
	"github.com/sells-group/scout/pkg/firecrawl"
	"github.com/sells-group/scout/pkg/jina"
	"github.com/sells-group/scout/pkg/scrapingant"
)

// appEnv holds the orchestrator, analyzers, agent runner and history store
// shared by the CLI commands and the HTTP API.
type appEnv struct {
	Scraper  *scrape.Orchestrator
	Analyzer *analyze.Analyzer
	Agent    *agent.Runner
	History  *store.Recorder
	Compare  int
	// Tags are added to every recorded history entry.
	Tags []string
}

// Close releases resources held by the environment.
func (env *appEnv) Close() {
	if s := env.History.Store(); s != nil {
		_ = s.Close()
	}
}

// initApp builds the environment from the loaded config. Callers should
// defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	env := newAppEnv(cfg, providerClients(cfg))
	env.History = store.NewRecorder(st)
	env.Tags = entryTags
	return env, nil
}

// clients holds one API client per configured provider; nil means the
// provider has no key.
type clients struct {
	Firecrawl   firecrawl.Client
	Exa         exa.Client
	Jina        jina.Client
	JinaKeyed   bool
	ScrapingAnt scrapingant.Client
}

func providerClients(c *config.Config) clients {
	timeout := time.Duration(c.Scrape.TimeoutSecs) * time.Second
	p := c.Providers

	var cl clients
	if p.Firecrawl.Configured() {
		cl.Firecrawl = firecrawl.NewClient(p.Firecrawl.Key, append(baseURL(p.Firecrawl.BaseURL, firecrawl.WithBaseURL), firecrawl.WithTimeout(timeout))...)
	}
	if p.Exa.Configured() {
		cl.Exa = exa.NewClient(p.Exa.Key, append(baseURL(p.Exa.BaseURL, exa.WithBaseURL), exa.WithTimeout(timeout))...)
	}
	if p.ScrapingAnt.Configured() {
		// Browser rendering can take longer than a plain fetch.
		cl.ScrapingAnt = scrapingant.NewClient(p.ScrapingAnt.Key, append(baseURL(p.ScrapingAnt.BaseURL, scrapingant.WithBaseURL), scrapingant.WithTimeout(2*timeout))...)
	}
	// Jina works without a key at a lower rate limit.
	cl.Jina = jina.NewClient(p.Jina.Key, append(baseURL(p.Jina.BaseURL, jina.WithBaseURL), jina.WithTimeout(timeout))...)
	cl.JinaKeyed = p.Jina.Configured()

	for name, ok := range map[string]bool{
		"firecrawl":   cl.Firecrawl != nil,
		"exa":         cl.Exa != nil,
		"jina":        cl.JinaKeyed,
		"scrapingant": cl.ScrapingAnt != nil,
	} {
		zap.L().Debug("provider configured", zap.String("provider", name), zap.Bool("configured", ok))
	}
	return cl
}

// baseURL returns the base URL option of a client package, or none when
// url is empty so the client keeps its default.
func baseURL[O any](url string, with func(string) O) []O {
	if url == "" {
		return nil
	}
	return []O{with(url)}
}

// newAppEnv wires adapters, orchestrator, analyzer and agent runner over
// the given clients. History is left disabled.
func newAppEnv(c *config.Config, cl clients) *appEnv {
	timeout := time.Duration(c.Scrape.TimeoutSecs) * time.Second

	var opts []scrape.Option
	if order := scrape.ParseOrder(c.Scrape.FallbackOrder); len(order) > 0 {
		opts = append(opts, scrape.WithFallbackOrder(order))
	}
	if sb := c.Resilience.Circuit.Breakers(); sb != nil {
		opts = append(opts, scrape.WithBreakers(sb))
	}

	orch := scrape.NewOrchestrator([]scrape.Adapter{
		scrape.NewJinaAdapter(cl.Jina, cl.JinaKeyed),
		scrape.NewScrapingAntAdapter(cl.ScrapingAnt),
		scrape.NewFirecrawlAdapter(cl.Firecrawl),
		scrape.NewExaAdapter(cl.Exa),
		scrape.NewNativeAdapter(timeout),
	}, opts...)

	runner := agent.NewRunner(cl.Firecrawl,
		agent.WithPollInterval(time.Duration(c.Agent.PollIntervalSecs)*time.Second),
		agent.WithMaxPollTime(time.Duration(c.Agent.MaxPollSecs)*time.Second),
		agent.WithRetry(c.Resilience.Retry.Policy("firecrawl", "agent_status")),
	)

	return &appEnv{
		Scraper:  orch,
		Analyzer: analyze.New(orch),
		Agent:    runner,
		History:  store.NewRecorder(nil),
		Compare:  c.Scrape.CompareConcurrency,
	}
}

func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "sqlite":
		st, err := store.NewSQLite(sc.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, sc.DatabaseURL, &store.PoolConfig{MaxConns: sc.MaxConns, MinConns: sc.MinConns})
		if err != nil {
			return nil, err
		}
		return st, nil
	case "none":
		zap.L().Info("history store disabled")
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
}
