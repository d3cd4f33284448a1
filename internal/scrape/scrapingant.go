package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/htmltext"
	"github.com/sells-group/scout/pkg/scrapingant"
)

// ScrapingAntAdapter scrapes through ScrapingAnt's general endpoint.
type ScrapingAntAdapter struct {
	client scrapingant.Client
}

// NewScrapingAntAdapter wraps a ScrapingAnt client. A nil client means no
// API key is configured.
func NewScrapingAntAdapter(client scrapingant.Client) *ScrapingAntAdapter {
	return &ScrapingAntAdapter{client: client}
}

// Provider implements Adapter.
func (a *ScrapingAntAdapter) Provider() Provider { return ProviderScrapingAnt }

// Configured implements Adapter.
func (a *ScrapingAntAdapter) Configured() bool { return a.client != nil }

// ScrapeURL implements Adapter.
func (a *ScrapingAntAdapter) ScrapeURL(ctx context.Context, url string, opts Options) Result {
	if a.client == nil {
		return fail(ProviderScrapingAnt, "ScrapingAnt API-Key nicht konfiguriert")
	}
	if opts.JSRendering {
		zap.L().Warn("scrape: scrapingant browser rendering costs 10 credits per request", zap.String("url", url))
	}

	resp, err := a.client.Scrape(ctx, scrapingant.ScrapeRequest{URL: url, Browser: opts.JSRendering})
	if err != nil {
		zap.L().Debug("scrape: scrapingant failed", zap.String("url", url), zap.Error(err))
		return fail(ProviderScrapingAnt, scrapingAntMessage(err))
	}

	page := &Page{
		Markdown: htmltext.ConvertWith(resp.Content, htmltext.Basic),
		HTML:     resp.Content,
		URL:      url,
	}
	if title, ok := htmltext.ExtractTitle(resp.Content); ok {
		page.Title = title
	}
	return succeed(ProviderScrapingAnt, page, resp.CreditsUsed)
}

func scrapingAntMessage(err error) string {
	var apiErr *scrapingant.APIError
	if !errors.As(err, &apiErr) {
		return "ScrapingAnt Fehler: " + err.Error()
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return "Ungültiger ScrapingAnt API-Key"
	case http.StatusForbidden:
		return "ScrapingAnt Credits aufgebraucht"
	case http.StatusUnprocessableEntity:
		return "Ungültige URL oder Parameter"
	default:
		return fmt.Sprintf("ScrapingAnt Fehler: %d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
	}
}
