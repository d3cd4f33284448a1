package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/scout/internal/agent"
	"github.com/sells-group/scout/internal/config"
	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/internal/store"
	"github.com/sells-group/scout/pkg/firecrawl"
)

func testConfig() *config.Config {
	return &config.Config{
		Scrape: config.ScrapeConfig{
			TimeoutSecs:        5,
			FallbackOrder:      []string{"jina", "scrapingant", "firecrawl", "native"},
			CompareConcurrency: 3,
		},
		Agent: config.AgentConfig{PollIntervalSecs: 1, MaxPollSecs: 10},
		Resilience: config.ResilienceConfig{
			Retry:   config.RetryConfig{MaxAttempts: 2, InitialBackoffMs: 10, MaxBackoffMs: 50, Multiplier: 2},
			Circuit: config.CircuitConfig{Enabled: true, FailureThreshold: 3, ResetTimeoutSecs: 30},
		},
		Store: config.StoreConfig{Driver: "none"},
	}
}

func TestProviderClients(t *testing.T) {
	c := testConfig()
	cl := providerClients(c)
	assert.Nil(t, cl.Firecrawl)
	assert.Nil(t, cl.Exa)
	assert.Nil(t, cl.ScrapingAnt)
	assert.NotNil(t, cl.Jina, "jina works without a key")
	assert.False(t, cl.JinaKeyed)

	c.Providers.Firecrawl.Key = "fc-key"
	c.Providers.Jina.Key = "jina-key"
	cl = providerClients(c)
	assert.NotNil(t, cl.Firecrawl)
	assert.True(t, cl.JinaKeyed)
}

func TestNewAppEnv_Chain(t *testing.T) {
	c := testConfig()

	env := newAppEnv(c, providerClients(c))
	assert.Equal(t, []scrape.Provider{scrape.ProviderNative}, env.Scraper.Chain())
	assert.Equal(t, 3, env.Compare)
	assert.False(t, env.Agent.Configured())
	assert.False(t, env.History.Enabled())

	c.Providers.Jina.Key = "jina-key"
	c.Providers.ScrapingAnt.Key = "sa-key"
	env = newAppEnv(c, providerClients(c))
	assert.Equal(t, []scrape.Provider{scrape.ProviderJina, scrape.ProviderScrapingAnt, scrape.ProviderNative}, env.Scraper.Chain())
}

func TestNewAppEnv_CustomOrder(t *testing.T) {
	c := testConfig()
	c.Scrape.FallbackOrder = []string{"native", "jina"}
	c.Providers.Jina.Key = "jina-key"

	env := newAppEnv(c, providerClients(c))
	assert.Equal(t, []scrape.Provider{scrape.ProviderNative, scrape.ProviderJina}, env.Scraper.Chain())
}

func TestNewAppEnv_AgentConfigured(t *testing.T) {
	c := testConfig()
	env := newAppEnv(c, clients{Firecrawl: firecrawl.NewClient("fc-key")})
	assert.True(t, env.Agent.Configured())
}

func TestInitStore(t *testing.T) {
	ctx := context.Background()

	st, err := initStore(ctx, config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = initStore(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "h.db")})
	require.NoError(t, err)
	require.NotNil(t, st)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Close())

	_, err = initStore(ctx, config.StoreConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestRender(t *testing.T) {
	v := map[string]any{"success": true, "provider": "native"}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, "text", v, "hello"))
	assert.Equal(t, "hello\n", buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, "json", v, ""))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, v, decoded)

	buf.Reset()
	require.NoError(t, render(&buf, "yaml", scrape.Result{Success: true, Provider: scrape.ProviderJina}, ""))
	var y map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &y))
	assert.Equal(t, "jina", y["provider"])
	assert.Equal(t, false, y["fallbackUsed"])

	assert.Error(t, render(&buf, "xml", v, ""))
}

func TestFailure(t *testing.T) {
	assert.NoError(t, failure(""))
	assert.EqualError(t, failure("Seite nicht gefunden (404)"), "Seite nicht gefunden (404)")
}

func TestHistoryParams_Filter(t *testing.T) {
	f, err := historyParams{Type: "SEO", URL: " shop.example ", Since: "2026-03-01", Until: "2026-03-02", Limit: "5"}.filter()
	require.NoError(t, err)
	assert.Equal(t, store.TypeSEO, f.Type)
	assert.Equal(t, "shop.example", f.URL)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), f.Since)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, int(999*time.Millisecond), time.UTC), f.Until)
	assert.Equal(t, 5, f.Limit)

	f, err = historyParams{Since: "2026-03-01T10:00:00Z"}.filter()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), f.Since)
	assert.Zero(t, f.Limit)

	f, err = queryHistoryParams(url.Values{"domain": {" Shop.Example "}, "tag": {"fallback"}, "type": {"extract"}}).filter()
	require.NoError(t, err)
	assert.Equal(t, "Shop.Example", f.Domain)
	assert.Equal(t, "fallback", f.Tag)
	assert.Equal(t, store.TypeExtract, f.Type)

	_, err = historyParams{Type: "weather"}.filter()
	assert.Error(t, err)
	_, err = historyParams{Since: "yesterday"}.filter()
	assert.Error(t, err)
	_, err = historyParams{Limit: "-1"}.filter()
	assert.Error(t, err)
}

func TestCompactURLs(t *testing.T) {
	got := compactURLs([]string{" https://a.example ", "", "https://b.example", "https://a.example"})
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, got)
}

func TestFormatters(t *testing.T) {
	scraped := formatScrape(scrape.Result{
		Success:      true,
		Provider:     scrape.ProviderNative,
		FallbackUsed: true,
		Data:         &scrape.Page{Title: "Shop", Markdown: "# Shop"},
	})
	assert.Contains(t, scraped, "Provider: native (Fallback)")
	assert.Contains(t, scraped, "# Shop")
	assert.Equal(t, "Fehler (jina): boom", formatScrape(scrape.Result{Provider: scrape.ProviderJina, Error: "boom"}))

	found := formatSearch(scrape.SearchResult{Success: true, Data: &scrape.SearchData{
		Query:        "werkzeug",
		TotalResults: 1,
		Results:      []scrape.Hit{{Title: "Werkzeug", URL: "https://w.example", Snippet: "Shop"}},
	}})
	assert.Contains(t, found, `1 Ergebnisse für "werkzeug"`)
	assert.Contains(t, found, "1. Werkzeug\n   https://w.example")

	mapped := formatMap(&firecrawl.MapResponse{Links: []firecrawl.MapLink{{URL: "https://a.example"}, {URL: "https://b.example", Title: "B"}}})
	assert.Equal(t, "https://a.example\nhttps://b.example  B", mapped)

	stats := formatStats(store.Stats{Total: 2, LastWeek: 1, ByType: map[string]int{"seo": 1, "scrape": 1}, ByDomain: map[string]int{"a.example": 2}})
	assert.Contains(t, stats, "Einträge: 2 (letzte 7 Tage: 1)")
	assert.Contains(t, stats, "a.example")

	assert.Equal(t, "no history entries", formatEntries(nil))
}

func TestRootCommands(t *testing.T) {
	want := []string{"agent", "analyze", "crawl", "extract", "history", "map", "providers", "scrape", "search", "serve"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}

	cmd, _, err := rootCmd.Find([]string{"analyze", "compare"})
	require.NoError(t, err)
	assert.Equal(t, "compare", cmd.Name())

	cmd, _, err = rootCmd.Find([]string{"history", "export"})
	require.NoError(t, err)
	assert.NotNil(t, cmd.Flags().Lookup("out"))
	assert.NotNil(t, cmd.Flags().Lookup("domain"))
	assert.NotNil(t, cmd.Flags().Lookup("tagged"))

	cmd, _, err = rootCmd.Find([]string{"agent", "templates"})
	require.NoError(t, err)
	assert.Equal(t, "templates", cmd.Name())

	cmd, args, err := rootCmd.Find([]string{"agent", "Finde", "die", "ERP-Anbieter"})
	require.NoError(t, err)
	assert.Equal(t, "agent", cmd.Name())
	assert.Len(t, args, 3)
	assert.Error(t, cmd.Args(cmd, nil))

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("tag"))
	cmd, _, err = rootCmd.Find([]string{"providers"})
	require.NoError(t, err)
	assert.NotNil(t, cmd.Flags().Lookup("tool"))
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"kunde-a", "js"}, mergeTags([]string{" kunde-a", "", "js", "Kunde-A "}))
	assert.Nil(t, mergeTags(nil))
}

func TestReadSchema(t *testing.T) {
	raw, err := readSchema(` {"type":"object"} `)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object"}`, string(raw))

	raw, err = readSchema("")
	require.NoError(t, err)
	assert.Nil(t, raw)

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"object","properties":{}}`), 0o600))
	raw, err = readSchema("@" + path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(raw))

	_, err = readSchema("@" + filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFormatTemplates(t *testing.T) {
	out := formatTemplates(agent.Templates(""))
	assert.True(t, strings.HasPrefix(out, "Wettbewerber-Analyse:\n  competitor-overview"), out)
	assert.Contains(t, out, "\n\nE-Procurement:\n  b2b-features")
	assert.Equal(t, "no templates", formatTemplates(nil))
}

func TestFormatExtract(t *testing.T) {
	out := formatExtract(&firecrawl.ExtractResponse{
		Status:      "completed",
		ID:          "ex-1",
		CreditsUsed: 3,
		Data:        json.RawMessage(`{"vendors":["ACME"]}`),
	})
	assert.Equal(t, "Status: completed (Job ex-1), Credits: 3\n\n{\n  \"vendors\": [\n    \"ACME\"\n  ]\n}", out)
}

func TestImportURLs_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.csv")
	require.NoError(t, os.WriteFile(path, []byte("firma;website\nACME;https://acme.example\n"), 0o600))

	urls, err := importURLs(path, "", "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://acme.example"}, urls)

	_, err = importURLs(filepath.Join(t.TempDir(), "missing.csv"), "", "")
	assert.Error(t, err)
}
