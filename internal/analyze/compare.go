package analyze

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/internal/techstack"
)

// DefaultCompareConcurrency bounds the pages fetched at once by Compare.
const DefaultCompareConcurrency = 4

// Comparison summarises every analyzer for one URL.
type Comparison struct {
	URL              string          `json:"url"`
	Provider         scrape.Provider `json:"provider,omitempty"`
	ShopSystem       string          `json:"shopSystem,omitempty"`
	TechConfidence   techstack.Tier  `json:"techConfidence,omitempty"`
	CMS              string          `json:"cms,omitempty"`
	SEOScore         int             `json:"seoScore"`
	SEOIssues        int             `json:"seoIssues"`
	ProcurementScore int             `json:"procurementScore"`
	Recommendation   string          `json:"recommendation,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// Compare fetches each URL once and runs all analyzers over it. Pages are
// fetched concurrently, at most limit at a time; each still walks the
// fallback chain sequentially. Results keep the order of urls.
func (a *Analyzer) Compare(ctx context.Context, urls []string, limit int) []Comparison {
	if limit <= 0 {
		limit = DefaultCompareConcurrency
	}
	out := make([]Comparison, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, u := range urls {
		g.Go(func() error {
			out[i] = a.compareOne(gCtx, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (a *Analyzer) compareOne(ctx context.Context, url string) Comparison {
	page, provider, errMsg := a.fetchHTML(ctx, url)
	c := Comparison{URL: url, Provider: provider}
	if errMsg != "" {
		c.Error = errMsg
		return c
	}

	tech := Analyze(KindTech, url, page.HTML, provider).Tech
	if tech.ShopSystem != nil {
		c.ShopSystem = tech.ShopSystem.Name
	}
	if tech.CMS != nil {
		c.CMS = tech.CMS.Name
	}
	c.TechConfidence = tech.Confidence

	s := Analyze(KindSEO, url, page.HTML, provider).SEO
	c.SEOScore = s.Score
	c.SEOIssues = len(s.Issues)

	p := Analyze(KindProcurement, url, page.HTML, provider).Procurement
	c.ProcurementScore = p.Score
	c.Recommendation = p.Recommendation
	return c
}

// FormatComparison renders comparisons as a Markdown table.
func FormatComparison(rows []Comparison) string {
	var b strings.Builder
	b.WriteString("## Vergleich\n\n")
	b.WriteString("| URL | Shopsystem | CMS | SEO | E-Procurement | Provider |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(&b, "| %s | Fehler: %s | | | | %s |\n", r.URL, r.Error, dash(string(r.Provider)))
			continue
		}
		shop := dash(r.ShopSystem)
		if r.ShopSystem != "" {
			shop += " (" + string(r.TechConfidence) + ")"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d/100 | %d/100 | %s |\n",
			r.URL, shop, dash(r.CMS), r.SEOScore, r.ProcurementScore, r.Provider)
	}
	return b.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
