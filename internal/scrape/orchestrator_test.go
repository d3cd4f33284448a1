package scrape

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout/internal/resilience"
)

type fakeAdapter struct {
	provider   Provider
	configured bool
	ok         bool
	errMsg     string
	calls      int
	lastOpts   Options
}

func (f *fakeAdapter) Provider() Provider { return f.provider }
func (f *fakeAdapter) Configured() bool   { return f.configured }

func (f *fakeAdapter) ScrapeURL(_ context.Context, url string, opts Options) Result {
	f.calls++
	f.lastOpts = opts
	if !f.ok {
		return fail(f.provider, f.errMsg)
	}
	return succeed(f.provider, &Page{Markdown: "# " + string(f.provider), URL: url}, 1)
}

type fakeSearcher struct {
	fakeAdapter
	got SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req SearchRequest) SearchResult {
	f.got = req
	return SearchResult{Success: true, Provider: f.provider, Data: &SearchData{Query: req.Query}}
}

func (f *fakeSearcher) FindSimilar(_ context.Context, url string, opts SearchOptions) SearchResult {
	f.got = SearchRequest{Query: url, NumResults: opts.NumResults}
	return SearchResult{Success: true, Provider: f.provider, Data: &SearchData{Query: "Similar to: " + url}}
}

func ok(p Provider) *fakeAdapter { return &fakeAdapter{provider: p, configured: true, ok: true} }

func failing(p Provider, msg string) *fakeAdapter {
	return &fakeAdapter{provider: p, configured: true, errMsg: msg}
}

func TestScrape_FirstSuccessWins(t *testing.T) {
	jina, ant, native := ok(ProviderJina), ok(ProviderScrapingAnt), ok(ProviderNative)
	o := NewOrchestrator([]Adapter{jina, ant, native})

	res := o.Scrape(context.Background(), Request{URL: "https://example.com"})
	require.True(t, res.Success)
	assert.Equal(t, ProviderJina, res.Provider)
	assert.False(t, res.FallbackUsed)
	assert.Equal(t, 1, jina.calls)
	assert.Zero(t, ant.calls)
	assert.Zero(t, native.calls)
}

func TestScrape_FallsBackInOrder(t *testing.T) {
	jina := failing(ProviderJina, "Jina Reader Fehler: 500 Internal Server Error")
	ant := failing(ProviderScrapingAnt, "ScrapingAnt Credits aufgebraucht")
	native := ok(ProviderNative)
	o := NewOrchestrator([]Adapter{jina, ant, native})

	res := o.Scrape(context.Background(), Request{URL: "https://example.com"})
	require.True(t, res.Success)
	assert.Equal(t, ProviderNative, res.Provider)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, 1, jina.calls)
	assert.Equal(t, 1, ant.calls)
}

func TestScrape_FirecrawlInChainFails(t *testing.T) {
	o := NewOrchestrator([]Adapter{
		NewFirecrawlAdapter(&mockFirecrawl{}),
		failing(ProviderNative, "Seite nicht gefunden (404)"),
	}, WithFallbackOrder([]Provider{ProviderFirecrawl, ProviderNative}))

	res := o.Scrape(context.Background(), Request{URL: "https://example.com"})
	assert.False(t, res.Success)
	assert.Equal(t, ProviderNative, res.Provider)
	assert.Equal(t, "Seite nicht gefunden (404)", res.Error)
	assert.True(t, res.FallbackUsed)

	res = o.Scrape(context.Background(), Request{URL: "https://example.com", DisableFallback: true})
	assert.Equal(t, ProviderFirecrawl, res.Provider)
	assert.Equal(t, firecrawlSeparateRoute, res.Error)
	assert.False(t, res.FallbackUsed)
}

func TestScrape_AllFailReturnsLastError(t *testing.T) {
	o := NewOrchestrator([]Adapter{
		failing(ProviderJina, "first"),
		failing(ProviderScrapingAnt, "second"),
		failing(ProviderNative, "third"),
	})

	res := o.Scrape(context.Background(), Request{URL: "https://example.com"})
	assert.False(t, res.Success)
	assert.Equal(t, ProviderNative, res.Provider)
	assert.Equal(t, "third", res.Error)
	assert.True(t, res.FallbackUsed)
	assert.Nil(t, res.Data)
}

func TestScrape_DisableFallbackStopsAfterFirst(t *testing.T) {
	jina := failing(ProviderJina, "Rate limit erreicht. Bitte warte einen Moment und versuche es erneut.")
	native := ok(ProviderNative)
	o := NewOrchestrator([]Adapter{jina, native})

	res := o.Scrape(context.Background(), Request{URL: "https://example.com", DisableFallback: true})
	assert.False(t, res.Success)
	assert.Equal(t, ProviderJina, res.Provider)
	assert.False(t, res.FallbackUsed)
	assert.Zero(t, native.calls)
}

func TestScrape_ExplicitProviderBypassesChain(t *testing.T) {
	jina := ok(ProviderJina)
	ant := failing(ProviderScrapingAnt, "Ungültiger ScrapingAnt API-Key")
	o := NewOrchestrator([]Adapter{jina, ant})

	res := o.Scrape(context.Background(), Request{URL: "https://example.com", Provider: ProviderScrapingAnt, JSRendering: true})
	assert.False(t, res.Success)
	assert.Equal(t, ProviderScrapingAnt, res.Provider)
	assert.Equal(t, "Ungültiger ScrapingAnt API-Key", res.Error)
	assert.False(t, res.FallbackUsed)
	assert.Zero(t, jina.calls)
	assert.True(t, ant.lastOpts.JSRendering)
}

func TestScrape_ExplicitUnconfiguredProviderIsStillCalled(t *testing.T) {
	jina := &fakeAdapter{provider: ProviderJina, ok: true}
	o := NewOrchestrator([]Adapter{jina})

	res := o.Scrape(context.Background(), Request{URL: "https://example.com", Provider: ProviderJina})
	assert.True(t, res.Success)
	assert.Equal(t, 1, jina.calls)
}

func TestScrape_UnknownProvider(t *testing.T) {
	o := NewOrchestrator(nil)
	res := o.Scrape(context.Background(), Request{URL: "https://example.com", Provider: "bogus"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Unbekannter Provider")
}

func TestScrape_Validation(t *testing.T) {
	o := NewOrchestrator(nil)
	tests := []struct {
		url  string
		want string
	}{
		{"", "URL ist erforderlich"},
		{"   ", "URL ist erforderlich"},
		{"example.com", "Ungültige URL"},
		{"ftp://example.com/file", "Ungültige URL"},
		{"https://", "Ungültige URL"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			res := o.Scrape(context.Background(), Request{URL: tt.url})
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error)
			assert.False(t, res.FallbackUsed)
		})
	}
}

func TestScrape_UnreachableNativeWithoutCredentials(t *testing.T) {
	srv := httptest.NewServer(nil)
	target := srv.URL
	srv.Close()

	o := NewOrchestrator([]Adapter{
		NewJinaAdapter(nil, false),
		NewScrapingAntAdapter(nil),
		NewFirecrawlAdapter(nil),
		NewExaAdapter(nil),
		NewNativeAdapter(2 * time.Second),
	})
	assert.Equal(t, []Provider{ProviderNative}, o.Chain())

	res := o.Scrape(context.Background(), Request{URL: target, DisableFallback: true})
	assert.False(t, res.Success)
	assert.Equal(t, ProviderNative, res.Provider)
	assert.False(t, res.FallbackUsed)
	assert.Equal(t, "Netzwerkfehler. Die URL ist möglicherweise nicht erreichbar.", res.Error)
}

func TestChain_FiltersAndFallsBackToNative(t *testing.T) {
	o := NewOrchestrator([]Adapter{
		&fakeAdapter{provider: ProviderJina},
		ok(ProviderScrapingAnt),
		&fakeAdapter{provider: ProviderNative},
	})
	assert.Equal(t, []Provider{ProviderScrapingAnt}, o.Chain())

	o = NewOrchestrator([]Adapter{&fakeAdapter{provider: ProviderNative}})
	assert.Equal(t, []Provider{ProviderNative}, o.Chain())

	o = NewOrchestrator([]Adapter{ok(ProviderJina), ok(ProviderScrapingAnt)},
		WithFallbackOrder([]Provider{ProviderNative, ProviderScrapingAnt}))
	assert.Equal(t, []Provider{ProviderNative, ProviderScrapingAnt}, o.Chain())
}

func TestScrape_SkipsOpenBreakerInChain(t *testing.T) {
	breakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	jina := failing(ProviderJina, "Jina Reader Fehler: 503 Service Unavailable")
	native := ok(ProviderNative)
	o := NewOrchestrator([]Adapter{jina, native}, WithBreakers(breakers))

	res := o.Scrape(context.Background(), Request{URL: "https://example.com"})
	require.True(t, res.Success)
	assert.Equal(t, 1, jina.calls)
	assert.Equal(t, resilience.CircuitOpen, breakers.Get(string(ProviderJina)).State())

	res = o.Scrape(context.Background(), Request{URL: "https://example.com"})
	require.True(t, res.Success)
	assert.Equal(t, ProviderNative, res.Provider)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, 1, jina.calls, "open breaker must skip jina")
	assert.Equal(t, "open", o.BreakerStates()["jina"])

	res = o.Scrape(context.Background(), Request{URL: "https://example.com", Provider: ProviderJina})
	assert.False(t, res.Success)
	assert.Equal(t, "Jina Reader Fehler: 503 Service Unavailable", res.Error)
	assert.Equal(t, 2, jina.calls, "an explicit provider is called even with an open breaker")
}

func TestScrape_ExplicitProviderDoesNotFeedBreaker(t *testing.T) {
	breakers := resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig())
	jina := failing(ProviderJina, "Seite nicht gefunden (404)")
	o := NewOrchestrator([]Adapter{jina, ok(ProviderNative)}, WithBreakers(breakers))

	for i := range 6 {
		res := o.Scrape(context.Background(), Request{URL: fmt.Sprintf("https://example.com/%d", i), Provider: ProviderJina})
		assert.Equal(t, "Seite nicht gefunden (404)", res.Error)
	}
	assert.Equal(t, 6, jina.calls)
	assert.Equal(t, resilience.CircuitClosed, breakers.Get(string(ProviderJina)).State())
}

func TestScrape_AllSkipped(t *testing.T) {
	breakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	jina := failing(ProviderJina, "boom")
	o := NewOrchestrator([]Adapter{jina, &fakeAdapter{provider: ProviderNative}},
		WithBreakers(breakers), WithFallbackOrder([]Provider{ProviderJina}))

	o.Scrape(context.Background(), Request{URL: "https://example.com"})
	res := o.Scrape(context.Background(), Request{URL: "https://example.com"})
	assert.False(t, res.Success)
	assert.Equal(t, "Alle Provider sind fehlgeschlagen", res.Error)
	assert.False(t, res.FallbackUsed)
}

func TestSearch(t *testing.T) {
	exa := &fakeSearcher{fakeAdapter: fakeAdapter{provider: ProviderExa, configured: true}}
	o := NewOrchestrator([]Adapter{exa, ok(ProviderJina)})

	res := o.Search(context.Background(), SearchRequest{Query: "b2b portale"})
	require.True(t, res.Success)
	assert.Equal(t, ProviderExa, res.Provider)
	assert.Equal(t, DefaultNumResults, exa.got.NumResults)

	o.Search(context.Background(), SearchRequest{Query: "q", NumResults: 500})
	assert.Equal(t, MaxNumResults, exa.got.NumResults)

	res = o.Search(context.Background(), SearchRequest{Query: "q", Provider: ProviderJina})
	assert.False(t, res.Success)
	assert.Equal(t, "Provider jina unterstützt keine Suche", res.Error)

	res = o.Search(context.Background(), SearchRequest{Query: " "})
	assert.False(t, res.Success)
	assert.Equal(t, "Suchanfrage ist erforderlich", res.Error)
}

func TestSearch_ExaMissing(t *testing.T) {
	o := NewOrchestrator(nil)
	res := o.Search(context.Background(), SearchRequest{Query: "q"})
	assert.Equal(t, "Exa API-Key nicht konfiguriert", res.Error)

	res = o.FindSimilar(context.Background(), "https://example.com", SearchOptions{})
	assert.Equal(t, "Exa API-Key nicht konfiguriert", res.Error)
}

func TestFindSimilar(t *testing.T) {
	exa := &fakeSearcher{fakeAdapter: fakeAdapter{provider: ProviderExa, configured: true}}
	o := NewOrchestrator([]Adapter{exa})

	res := o.FindSimilar(context.Background(), "https://example.com", SearchOptions{NumResults: 3})
	require.True(t, res.Success)
	assert.Equal(t, "Similar to: https://example.com", res.Data.Query)
	assert.Equal(t, 3, exa.got.NumResults)

	res = o.FindSimilar(context.Background(), "nope", SearchOptions{})
	assert.Equal(t, "Ungültige URL", res.Error)
}

func TestProviders(t *testing.T) {
	o := NewOrchestrator([]Adapter{NewJinaAdapter(nil, false), NewScrapingAntAdapter(nil), ok(ProviderExa)})

	got := map[Provider]bool{}
	for _, st := range o.Providers() {
		got[st.ID] = st.Configured
	}
	assert.Equal(t, map[Provider]bool{
		ProviderFirecrawl:   false,
		ProviderExa:         true,
		ProviderJina:        false,
		ProviderScrapingAnt: false,
		ProviderNative:      true,
	}, got)
}

func TestProvidersWith(t *testing.T) {
	o := NewOrchestrator([]Adapter{ok(ProviderExa)})

	var ids []Provider
	for _, st := range o.ProvidersWith(ToolSearch) {
		ids = append(ids, st.ID)
		assert.Equal(t, st.ID == ProviderExa, st.Configured)
	}
	assert.Equal(t, []Provider{ProviderFirecrawl, ProviderExa}, ids)

	extract := o.ProvidersWith(ToolExtract)
	require.Len(t, extract, 1)
	assert.Equal(t, ProviderFirecrawl, extract[0].ID)
}

func TestScrapeFirecrawl(t *testing.T) {
	o := NewOrchestrator(nil)
	res := o.ScrapeFirecrawl(context.Background(), "https://example.com")
	assert.Equal(t, "Firecrawl API-Key nicht konfiguriert", res.Error)

	res = o.ScrapeFirecrawl(context.Background(), "")
	assert.Equal(t, "URL ist erforderlich", res.Error)
}
