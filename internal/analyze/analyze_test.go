package analyze

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/internal/techstack"
)

// fakeScraper answers per provider and URL.
type fakeScraper struct {
	mu    sync.Mutex
	pages map[string]scrape.Result
	calls []scrape.Request
}

func (f *fakeScraper) Scrape(_ context.Context, req scrape.Request) scrape.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if res, ok := f.pages[string(req.Provider)+"|"+req.URL]; ok {
		return res
	}
	return scrape.Result{Provider: scrape.ProviderNative, Error: "Seite nicht gefunden (404)"}
}

const shopHTML = `<html><head><title>Werkzeug Shop für Profis und Handwerker</title>
<script src="https://cdn.shopify.com/s/app.js"></script></head>
<body><h1>Werkzeug</h1><p>OCI Punchout</p></body></html>`

func htmlResult(p scrape.Provider, url, html string) scrape.Result {
	return scrape.Result{Success: true, Provider: p, Data: &scrape.Page{HTML: html, Markdown: "md", URL: url}}
}

func TestRun_Tech(t *testing.T) {
	s := &fakeScraper{pages: map[string]scrape.Result{
		"|https://shop.example": htmlResult(scrape.ProviderScrapingAnt, "https://shop.example", shopHTML),
	}}

	rep := New(s).Run(context.Background(), KindTech, "https://shop.example")
	require.True(t, rep.Success, rep.Error)
	assert.Equal(t, scrape.ProviderScrapingAnt, rep.Provider)
	require.NotNil(t, rep.Tech)
	require.NotNil(t, rep.Tech.ShopSystem)
	assert.Equal(t, "Shopify", rep.Tech.ShopSystem.Name)
	assert.Equal(t, techstack.TierHigh, rep.Tech.Confidence)
	assert.NotEmpty(t, rep.Formatted)
	assert.Equal(t, "Tech-Stack: Shopify", rep.Title())
	assert.Len(t, s.calls, 1)
}

func TestRun_RefetchesNativelyWhenNoHTML(t *testing.T) {
	s := &fakeScraper{pages: map[string]scrape.Result{
		"|https://shop.example": {Success: true, Provider: scrape.ProviderJina, Data: &scrape.Page{Markdown: "# Shop"}},
		"native|https://shop.example": htmlResult(scrape.ProviderNative, "https://shop.example", shopHTML),
	}}

	rep := New(s).Run(context.Background(), KindProcurement, "https://shop.example")
	require.True(t, rep.Success, rep.Error)
	assert.Equal(t, scrape.ProviderNative, rep.Provider)
	require.NotNil(t, rep.Procurement)
	assert.Equal(t, 25, rep.Procurement.Score)
	require.Len(t, s.calls, 2)
	assert.Equal(t, scrape.ProviderNative, s.calls[1].Provider)
}

func TestRun_NoHTML(t *testing.T) {
	s := &fakeScraper{pages: map[string]scrape.Result{
		"|https://shop.example":       {Success: true, Provider: scrape.ProviderJina, Data: &scrape.Page{Markdown: "# Shop"}},
		"native|https://shop.example": {Success: true, Provider: scrape.ProviderNative, Data: &scrape.Page{}},
	}}

	rep := New(s).Run(context.Background(), KindSEO, "https://shop.example")
	assert.False(t, rep.Success)
	assert.Equal(t, "Konnte HTML nicht laden", rep.Error)
}

func TestRun_ScrapeFailure(t *testing.T) {
	rep := New(&fakeScraper{}).Run(context.Background(), KindSEO, "https://gone.example")
	assert.False(t, rep.Success)
	assert.Equal(t, "Seite nicht gefunden (404)", rep.Error)
	assert.Nil(t, rep.SEO)
}

func TestAnalyze_SEO(t *testing.T) {
	rep := Analyze(KindSEO, "https://shop.example", shopHTML, scrape.ProviderNative)
	require.True(t, rep.Success)
	require.NotNil(t, rep.SEO)
	assert.GreaterOrEqual(t, rep.SEO.Score, 0)
	assert.LessOrEqual(t, rep.SEO.Score, 100)
	assert.Equal(t, "Werkzeug Shop für Profis und Handwerker", rep.Title())
}

func TestAnalyze_UnknownKind(t *testing.T) {
	rep := Analyze("weather", "https://x.example", "<p></p>", scrape.ProviderNative)
	assert.False(t, rep.Success)
	assert.Contains(t, rep.Error, "Unbekannte Analyse")
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"tech":              KindTech,
		"Tech-Detect":       KindTech,
		"seo-check":         KindSEO,
		"procurement-check": KindProcurement,
	} {
		got, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseKind("weather")
	assert.False(t, ok)
}

func TestCompare(t *testing.T) {
	s := &fakeScraper{pages: map[string]scrape.Result{
		"|https://a.example": htmlResult(scrape.ProviderNative, "https://a.example", shopHTML),
		"|https://b.example": htmlResult(scrape.ProviderNative, "https://b.example", "<html><title>B</title></html>"),
	}}

	rows := New(s).Compare(context.Background(), []string{"https://a.example", "https://gone.example", "https://b.example"}, 2)
	require.Len(t, rows, 3)

	assert.Equal(t, "https://a.example", rows[0].URL)
	assert.Equal(t, "Shopify", rows[0].ShopSystem)
	assert.Equal(t, 25, rows[0].ProcurementScore)

	assert.Equal(t, "Seite nicht gefunden (404)", rows[1].Error)

	assert.Empty(t, rows[2].ShopSystem)
	assert.Equal(t, techstack.TierLow, rows[2].TechConfidence)

	table := FormatComparison(rows)
	assert.Contains(t, table, "| https://a.example | Shopify (high) |")
	assert.Contains(t, table, "Fehler: Seite nicht gefunden (404)")
	assert.Equal(t, 7, strings.Count(table, "\n"))
}
