package scrape

import "context"

// Request is a scrape request. An empty Provider means "use the fallback
// chain". DisableFallback stops the chain after its first attempt.
type Request struct {
	URL             string   `json:"url"`
	Provider        Provider `json:"provider,omitempty"`
	DisableFallback bool     `json:"-"`
	JSRendering     bool     `json:"jsRendering,omitempty"`
}

// Page is the content fetched for a URL.
type Page struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html,omitempty"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
}

// Result is the outcome of a scrape. Success implies Data is set, failure
// implies Error is set.
type Result struct {
	Success      bool     `json:"success"`
	Provider     Provider `json:"provider"`
	Data         *Page    `json:"data,omitempty"`
	Error        string   `json:"error,omitempty"`
	CreditsUsed  int      `json:"creditsUsed,omitempty"`
	FallbackUsed bool     `json:"fallbackUsed"`
}

func succeed(p Provider, page *Page, credits int) Result {
	return Result{Success: true, Provider: p, Data: page, CreditsUsed: credits}
}

func fail(p Provider, msg string) Result {
	return Result{Provider: p, Error: msg}
}

// Options tune a single adapter call.
type Options struct {
	JSRendering bool
}

// Adapter fetches one URL through one provider. Failures are reported in
// the Result, never as a Go error.
type Adapter interface {
	Provider() Provider
	// Configured reports whether the adapter may join automatic chains.
	Configured() bool
	ScrapeURL(ctx context.Context, url string, opts Options) Result
}

// SearchRequest is a search query.
type SearchRequest struct {
	Query          string   `json:"query"`
	Provider       Provider `json:"provider,omitempty"`
	NumResults     int      `json:"numResults,omitempty"`
	IncludeDomains []string `json:"includeDomains,omitempty"`
	ExcludeDomains []string `json:"excludeDomains,omitempty"`
}

// SearchOptions tune FindSimilar.
type SearchOptions struct {
	NumResults     int      `json:"numResults,omitempty"`
	IncludeDomains []string `json:"includeDomains,omitempty"`
	ExcludeDomains []string `json:"excludeDomains,omitempty"`
}

// Hit is one normalized search result.
type Hit struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	Content       string `json:"content,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
	Author        string `json:"author,omitempty"`
}

// SearchData is the payload of a successful search.
type SearchData struct {
	Results      []Hit  `json:"results"`
	Query        string `json:"query"`
	TotalResults int    `json:"totalResults"`
}

// SearchResult is the outcome of a search.
type SearchResult struct {
	Success  bool        `json:"success"`
	Provider Provider    `json:"provider"`
	Data     *SearchData `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Searcher is implemented by adapters that support search.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) SearchResult
}

// SimilarFinder is implemented by adapters that find pages similar to a URL.
type SimilarFinder interface {
	FindSimilar(ctx context.Context, url string, opts SearchOptions) SearchResult
}

// Status reports a provider's catalogue entry and whether it is configured.
type Status struct {
	Info
	Configured bool `json:"configured" yaml:"configured"`
}
