package scrape

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout/pkg/firecrawl"
)

const firecrawlSeparateRoute = "Firecrawl wird über eine separate API-Route verarbeitet"

// FirecrawlAdapter represents Firecrawl in the provider table. Chains never
// scrape through it; explicit Firecrawl scrapes go through Direct.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter wraps a Firecrawl client. A nil client means no API
// key is configured.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

// Provider implements Adapter.
func (a *FirecrawlAdapter) Provider() Provider { return ProviderFirecrawl }

// Configured implements Adapter.
func (a *FirecrawlAdapter) Configured() bool { return a.client != nil }

// ScrapeURL implements Adapter. It always fails.
func (a *FirecrawlAdapter) ScrapeURL(context.Context, string, Options) Result {
	return fail(ProviderFirecrawl, firecrawlSeparateRoute)
}

// Direct scrapes url with the Firecrawl scrape endpoint, requesting
// markdown and raw HTML.
func (a *FirecrawlAdapter) Direct(ctx context.Context, url string) Result {
	if a.client == nil {
		return fail(ProviderFirecrawl, "Firecrawl API-Key nicht konfiguriert")
	}

	resp, err := a.client.Scrape(ctx, firecrawl.ScrapeRequest{URL: url, Formats: []string{"markdown", "rawHtml"}})
	if err != nil {
		zap.L().Debug("scrape: firecrawl scrape failed", zap.String("url", url), zap.Error(err))
		var apiErr *firecrawl.APIError
		if errors.As(err, &apiErr) {
			return fail(ProviderFirecrawl, apiErr.Message())
		}
		return fail(ProviderFirecrawl, "Firecrawl scraping fehlgeschlagen")
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Firecrawl scraping fehlgeschlagen"
		}
		return fail(ProviderFirecrawl, msg)
	}

	page := &Page{
		Markdown: resp.Data.Markdown,
		HTML:     resp.Data.RawHTML,
		URL:      url,
		Title:    resp.Data.Metadata.Title,
	}
	if page.HTML == "" {
		page.HTML = resp.Data.HTML
	}
	if resp.Data.Metadata.SourceURL != "" {
		page.URL = resp.Data.Metadata.SourceURL
	}
	return succeed(ProviderFirecrawl, page, 0)
}

// ErrFirecrawlNotConfigured is returned by crawl and map without an API key.
var ErrFirecrawlNotConfigured = eris.New("Firecrawl API-Key nicht konfiguriert")

// Crawl defaults.
const (
	DefaultCrawlLimit = 10
	DefaultMapLimit   = 100
)

// Crawl starts a crawl of url and waits for it to finish.
func (a *FirecrawlAdapter) Crawl(ctx context.Context, url string, limit int, opts ...firecrawl.WaitOption) (*firecrawl.CrawlStatusResponse, error) {
	if a.client == nil {
		return nil, ErrFirecrawlNotConfigured
	}
	if limit <= 0 {
		limit = DefaultCrawlLimit
	}

	started, err := a.client.Crawl(ctx, firecrawl.CrawlRequest{
		URL:           url,
		Limit:         limit,
		ScrapeOptions: &firecrawl.ScrapeOptions{Formats: []string{"markdown"}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "scrape: start crawl")
	}

	zap.L().Info("scrape: crawl started", zap.String("url", url), zap.String("id", started.ID), zap.Int("limit", limit))
	return firecrawl.WaitCrawl(ctx, a.client, started.ID, opts...)
}

// Map lists the URLs of a site, optionally filtered by search.
func (a *FirecrawlAdapter) Map(ctx context.Context, url, search string, limit int) (*firecrawl.MapResponse, error) {
	if a.client == nil {
		return nil, ErrFirecrawlNotConfigured
	}
	if limit <= 0 {
		limit = DefaultMapLimit
	}

	resp, err := a.client.Map(ctx, firecrawl.MapRequest{URL: url, Search: search, Limit: limit})
	if err != nil {
		return nil, eris.Wrap(err, "scrape: map")
	}
	return resp, nil
}
