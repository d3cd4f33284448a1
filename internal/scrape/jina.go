package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/scout/pkg/jina"
)

// JinaAdapter scrapes through the Jina Reader.
type JinaAdapter struct {
	client jina.Client
	keyed  bool
}

// NewJinaAdapter wraps a Jina client. keyed marks that an API key was
// configured, which is what admits Jina into automatic chains.
func NewJinaAdapter(client jina.Client, keyed bool) *JinaAdapter {
	return &JinaAdapter{client: client, keyed: keyed}
}

// Provider implements Adapter.
func (a *JinaAdapter) Provider() Provider { return ProviderJina }

// Configured implements Adapter.
func (a *JinaAdapter) Configured() bool { return a.keyed }

// ScrapeURL implements Adapter.
func (a *JinaAdapter) ScrapeURL(ctx context.Context, url string, _ Options) Result {
	resp, err := a.client.Read(ctx, url)
	if err != nil {
		zap.L().Debug("scrape: jina read failed", zap.String("url", url), zap.Error(err))
		return fail(ProviderJina, jinaMessage(err))
	}

	page := &Page{Markdown: resp.Content, URL: resp.URL, Title: resp.Title}
	if page.URL == "" {
		page.URL = url
	}
	return succeed(ProviderJina, page, 0)
}

func jinaMessage(err error) string {
	var apiErr *jina.APIError
	if !errors.As(err, &apiErr) {
		return "Jina Reader Fehler: " + err.Error()
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		return "Rate limit erreicht. Bitte warte einen Moment und versuche es erneut."
	}
	return fmt.Sprintf("Jina Reader Fehler: %d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
}
