package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/scout/pkg/exa"
)

const snippetRunes = 300

// ExaAdapter serves scrape, search and find-similar through Exa.
type ExaAdapter struct {
	client exa.Client
}

// NewExaAdapter wraps an Exa client. A nil client means no API key is
// configured.
func NewExaAdapter(client exa.Client) *ExaAdapter {
	return &ExaAdapter{client: client}
}

// Provider implements Adapter.
func (a *ExaAdapter) Provider() Provider { return ProviderExa }

// Configured implements Adapter.
func (a *ExaAdapter) Configured() bool { return a.client != nil }

// ScrapeURL implements Adapter using the contents endpoint.
func (a *ExaAdapter) ScrapeURL(ctx context.Context, url string, _ Options) Result {
	if a.client == nil {
		return fail(ProviderExa, "Exa API-Key nicht konfiguriert")
	}

	resp, err := a.client.Contents(ctx, exa.ContentsRequest{URLs: []string{url}, Text: true})
	if err != nil {
		zap.L().Debug("scrape: exa contents failed", zap.String("url", url), zap.Error(err))
		return fail(ProviderExa, exaMessage(err))
	}
	if len(resp.Results) == 0 {
		return fail(ProviderExa, "Keine Inhalte gefunden")
	}

	r := resp.Results[0]
	return succeed(ProviderExa, &Page{Markdown: r.Text, URL: r.URL, Title: r.Title}, 0)
}

// Search implements Searcher.
func (a *ExaAdapter) Search(ctx context.Context, req SearchRequest) SearchResult {
	if a.client == nil {
		return SearchResult{Provider: ProviderExa, Error: "Exa API-Key nicht konfiguriert"}
	}

	autoprompt := true
	resp, err := a.client.Search(ctx, exa.SearchRequest{
		Query:          req.Query,
		NumResults:     req.NumResults,
		Type:           "auto",
		UseAutoprompt:  &autoprompt,
		IncludeDomains: req.IncludeDomains,
		ExcludeDomains: req.ExcludeDomains,
		Contents:       &exa.Contents{Text: true},
	})
	if err != nil {
		zap.L().Debug("scrape: exa search failed", zap.String("query", req.Query), zap.Error(err))
		return SearchResult{Provider: ProviderExa, Error: exaMessage(err)}
	}
	return searchSucceeded(req.Query, resp)
}

// FindSimilar implements SimilarFinder.
func (a *ExaAdapter) FindSimilar(ctx context.Context, url string, opts SearchOptions) SearchResult {
	if a.client == nil {
		return SearchResult{Provider: ProviderExa, Error: "Exa API-Key nicht konfiguriert"}
	}

	resp, err := a.client.FindSimilar(ctx, exa.FindSimilarRequest{
		URL:            url,
		NumResults:     opts.NumResults,
		IncludeDomains: opts.IncludeDomains,
		ExcludeDomains: opts.ExcludeDomains,
		Contents:       &exa.Contents{Text: true},
	})
	if err != nil {
		zap.L().Debug("scrape: exa find similar failed", zap.String("url", url), zap.Error(err))
		return SearchResult{Provider: ProviderExa, Error: exaMessage(err)}
	}
	return searchSucceeded("Similar to: "+url, resp)
}

func searchSucceeded(query string, resp *exa.SearchResponse) SearchResult {
	hits := make([]Hit, 0, len(resp.Results))
	for _, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		hits = append(hits, Hit{
			Title:         title,
			URL:           r.URL,
			Snippet:       truncateRunes(r.Text, snippetRunes),
			Content:       r.Text,
			PublishedDate: r.PublishedDate,
			Author:        r.Author,
		})
	}
	return SearchResult{
		Success:  true,
		Provider: ProviderExa,
		Data:     &SearchData{Results: hits, Query: query, TotalResults: len(hits)},
	}
}

// exaMessage maps err to a user-facing message. Response bodies and
// wrapped causes stay in the debug log.
func exaMessage(err error) string {
	var apiErr *exa.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return "Exa Fehler: Zeitüberschreitung"
		}
		return "Exa Fehler: Anfrage fehlgeschlagen"
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return "Ungültiger Exa API-Key"
	case http.StatusPaymentRequired:
		return "Exa Credits aufgebraucht"
	case http.StatusTooManyRequests:
		return "Rate limit erreicht. Bitte warte einen Moment und versuche es erneut."
	}
	return fmt.Sprintf("Exa Fehler: %d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
