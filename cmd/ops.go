package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sells-group/scout/internal/agent"
	"github.com/sells-group/scout/internal/analyze"
	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/internal/store"
	"github.com/sells-group/scout/pkg/firecrawl"
)

// The operations below are shared by the CLI and the HTTP API. Each runs
// one request and records a history entry when it succeeds.

var analysisEntryType = map[analyze.Kind]store.EntryType{
	analyze.KindTech:        store.TypeTech,
	analyze.KindSEO:         store.TypeSEO,
	analyze.KindProcurement: store.TypeProcurement,
}

func (env *appEnv) scrape(ctx context.Context, req scrape.Request) scrape.Result {
	var res scrape.Result
	if req.Provider == scrape.ProviderFirecrawl {
		res = env.Scraper.ScrapeFirecrawl(ctx, req.URL)
	} else {
		res = env.Scraper.Scrape(ctx, req)
	}
	if res.Success && res.Data != nil {
		var tags []string
		if res.FallbackUsed {
			tags = append(tags, "fallback")
		}
		if req.JSRendering {
			tags = append(tags, "js")
		}
		env.record(ctx, store.NewEntry(store.TypeScrape, req.URL, string(res.Provider), res.Data.Title, res.Data.Markdown, res), tags...)
	}
	return res
}

func (env *appEnv) search(ctx context.Context, req scrape.SearchRequest) scrape.SearchResult {
	res := env.Scraper.Search(ctx, req)
	if res.Success && res.Data != nil {
		env.record(ctx, store.NewEntry(store.TypeSearch, req.Query, string(res.Provider),
			"Suche: "+req.Query, hitsPreview(res.Data.Results), res))
	}
	return res
}

func (env *appEnv) findSimilar(ctx context.Context, target string, opts scrape.SearchOptions) scrape.SearchResult {
	res := env.Scraper.FindSimilar(ctx, target, opts)
	if res.Success && res.Data != nil {
		env.record(ctx, store.NewEntry(store.TypeSearch, target, string(res.Provider),
			"Ähnliche Seiten: "+target, hitsPreview(res.Data.Results), res))
	}
	return res
}

func (env *appEnv) analyze(ctx context.Context, kind analyze.Kind, target string) analyze.Report {
	rep := env.Analyzer.Run(ctx, kind, target)
	if rep.Success {
		env.record(ctx, store.NewEntry(analysisEntryType[kind], target, string(rep.Provider), rep.Title(), rep.Formatted, rep))
	}
	return rep
}

func (env *appEnv) compare(ctx context.Context, urls []string) []analyze.Comparison {
	return env.Analyzer.Compare(ctx, urls, env.Compare)
}

func (env *appEnv) runAgent(ctx context.Context, req agent.Request) agent.Result {
	res := env.Agent.Run(ctx, req)
	if res.Success {
		target := ""
		if len(req.URLs) > 0 {
			target = req.URLs[0]
		}
		title := req.Prompt
		var tags []string
		if t, ok := agent.TemplateByID(strings.TrimSpace(req.Template)); ok {
			title = t.Name
			tags = append(tags, t.ID)
		}
		env.record(ctx, store.NewEntry(store.TypeAgent, target, string(scrape.ProviderFirecrawl),
			title, string(res.Output), res), tags...)
	}
	return res
}

func (env *appEnv) extract(ctx context.Context, req scrape.ExtractRequest, opts ...firecrawl.WaitOption) (*firecrawl.ExtractResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	resp, err := env.Scraper.Firecrawl().Extract(ctx, req, opts...)
	if err != nil {
		return nil, err
	}

	title := "Extract: " + req.Prompt
	var tags []string
	if len(req.Schema) > 0 {
		tags = append(tags, "schema")
		if req.Prompt == "" {
			title = "Extract (Schema)"
		}
	}
	env.record(ctx, store.NewEntry(store.TypeExtract, req.URLs[0], string(scrape.ProviderFirecrawl),
		title, string(resp.Data), resp), tags...)
	return resp, nil
}

func (env *appEnv) crawl(ctx context.Context, target string, limit int, opts ...firecrawl.WaitOption) (*firecrawl.CrawlStatusResponse, error) {
	resp, err := env.Scraper.Firecrawl().Crawl(ctx, target, limit, opts...)
	if err != nil {
		return nil, err
	}
	env.record(ctx, store.NewEntry(store.TypeCrawl, target, string(scrape.ProviderFirecrawl),
		fmt.Sprintf("Crawl: %d Seiten", len(resp.Data)), crawlPreview(resp), resp))
	return resp, nil
}

func (env *appEnv) mapSite(ctx context.Context, target, search string, limit int) (*firecrawl.MapResponse, error) {
	resp, err := env.Scraper.Firecrawl().Map(ctx, target, search, limit)
	if err != nil {
		return nil, err
	}
	links := make([]string, 0, len(resp.Links))
	for _, l := range resp.Links {
		links = append(links, l.URL)
	}
	env.record(ctx, store.NewEntry(store.TypeMap, target, string(scrape.ProviderFirecrawl),
		fmt.Sprintf("Map: %d URLs", len(resp.Links)), strings.Join(links, "\n"), resp))
	return resp, nil
}

// record saves e tagged with tags and the tags set for this environment.
func (env *appEnv) record(ctx context.Context, e store.Entry, tags ...string) {
	e.Tags = mergeTags(append(slices.Clone(env.Tags), tags...))
	env.History.Record(ctx, e)
}

// mergeTags trims tags and drops blanks and case-insensitive duplicates,
// keeping the first spelling.
func mergeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.ContainsFunc(out, func(o string) bool { return strings.EqualFold(o, t) }) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hitsPreview(hits []scrape.Hit) string {
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "%s (%s)\n", h.Title, h.URL)
	}
	return strings.TrimSpace(b.String())
}

func crawlPreview(resp *firecrawl.CrawlStatusResponse) string {
	var b strings.Builder
	for _, p := range resp.Data {
		b.WriteString(p.Markdown)
		b.WriteString("\n")
		if b.Len() > store.PreviewLength*4 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
