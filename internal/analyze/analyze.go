// Package analyze fetches a page through the scrape orchestrator and runs
// the tech-stack, SEO and procurement analyzers over its raw HTML.
package analyze

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/metrics"
	"github.com/sells-group/scout/internal/procurement"
	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/internal/seo"
	"github.com/sells-group/scout/internal/techstack"
)

// Kind selects an analyzer.
type Kind string

// Analyzer kinds.
const (
	KindTech        Kind = "tech"
	KindSEO         Kind = "seo"
	KindProcurement Kind = "procurement"
)

// Kinds lists every analyzer kind.
var Kinds = []Kind{KindTech, KindSEO, KindProcurement}

// ParseKind resolves an analyzer name. "tech-stack" and "tech-detect" are
// accepted for KindTech.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tech", "tech-stack", "tech-detect", "techstack":
		return KindTech, true
	case "seo", "seo-check":
		return KindSEO, true
	case "procurement", "procurement-check", "b2b":
		return KindProcurement, true
	}
	return "", false
}

// Scraper is the part of the orchestrator used here.
type Scraper interface {
	Scrape(ctx context.Context, req scrape.Request) scrape.Result
}

// Report is the outcome of one analysis.
type Report struct {
	Success     bool                `json:"success"`
	URL         string              `json:"url"`
	Kind        Kind                `json:"kind"`
	Provider    scrape.Provider     `json:"provider,omitempty"`
	Tech        *techstack.Result   `json:"detection,omitempty"`
	SEO         *seo.Result         `json:"analysis,omitempty"`
	Procurement *procurement.Result `json:"procurement,omitempty"`
	Formatted   string              `json:"formatted,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Title is a short label for history entries.
func (r *Report) Title() string {
	switch r.Kind {
	case KindTech:
		if r.Tech != nil && r.Tech.ShopSystem != nil {
			return "Tech-Stack: " + r.Tech.ShopSystem.Name
		}
		return "Tech-Stack"
	case KindSEO:
		if r.SEO != nil && r.SEO.Title.Content != "" {
			return r.SEO.Title.Content
		}
		return "SEO-Analyse"
	default:
		return "E-Procurement Analyse"
	}
}

// Analyzer runs analyses over scraped pages.
type Analyzer struct {
	scraper Scraper
}

// New creates an Analyzer fetching pages through s.
func New(s Scraper) *Analyzer {
	return &Analyzer{scraper: s}
}

// Run fetches url and runs the analyzer for kind.
func (a *Analyzer) Run(ctx context.Context, kind Kind, url string) Report {
	page, provider, errMsg := a.fetchHTML(ctx, url)
	if errMsg != "" {
		return Report{URL: url, Kind: kind, Provider: provider, Error: errMsg}
	}
	return Analyze(kind, url, page.HTML, provider)
}

// Analyze runs the analyzer for kind over already fetched html.
func Analyze(kind Kind, url, html string, provider scrape.Provider) Report {
	rep := Report{Success: true, URL: url, Kind: kind, Provider: provider}
	switch kind {
	case KindTech:
		res := techstack.Detect(html)
		rep.Tech = &res
		rep.Formatted = techstack.Format(res)
	case KindSEO:
		res := seo.Analyze(html, url)
		rep.SEO = &res
		rep.Formatted = seo.Format(res)
	case KindProcurement:
		res := procurement.Detect(html)
		rep.Procurement = &res
		rep.Formatted = procurement.Format(res)
	default:
		return Report{URL: url, Kind: kind, Error: "Unbekannte Analyse: " + string(kind)}
	}
	metrics.Analyses.WithLabelValues(string(kind)).Inc()
	return rep
}

// fetchHTML scrapes url through the fallback chain. Providers such as Jina
// return markdown only; in that case the page is fetched again natively to
// get raw HTML.
func (a *Analyzer) fetchHTML(ctx context.Context, url string) (*scrape.Page, scrape.Provider, string) {
	res := a.scraper.Scrape(ctx, scrape.Request{URL: url})
	if res.Success && res.Data != nil && res.Data.HTML != "" {
		return res.Data, res.Provider, ""
	}

	if res.Success && res.Provider != scrape.ProviderNative {
		zap.L().Debug("analyze: provider returned no html, fetching natively",
			zap.String("url", url),
			zap.String("provider", string(res.Provider)),
		)
		res = a.scraper.Scrape(ctx, scrape.Request{URL: url, Provider: scrape.ProviderNative})
		if res.Success && res.Data != nil && res.Data.HTML != "" {
			return res.Data, res.Provider, ""
		}
	}

	if res.Error != "" {
		return nil, res.Provider, res.Error
	}
	return nil, res.Provider, "Konnte HTML nicht laden"
}
