// Package scrape routes scrape and search requests to the configured
// providers, walking an ordered fallback chain for scrapes.
package scrape

import (
	"slices"
	"strings"
)

// Provider identifies a scraping or search backend.
type Provider string

// Known providers.
const (
	ProviderFirecrawl   Provider = "firecrawl"
	ProviderExa         Provider = "exa"
	ProviderJina        Provider = "jina"
	ProviderScrapingAnt Provider = "scrapingant"
	ProviderNative      Provider = "native"
)

// AllProviders lists every provider in catalogue order.
var AllProviders = []Provider{ProviderFirecrawl, ProviderExa, ProviderJina, ProviderScrapingAnt, ProviderNative}

// DefaultFallbackOrder is the scrape chain used when none is configured.
var DefaultFallbackOrder = []Provider{ProviderJina, ProviderScrapingAnt, ProviderFirecrawl, ProviderNative}

// ParseProvider resolves a provider name case-insensitively.
func ParseProvider(s string) (Provider, bool) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(AllProviders, p) {
		return p, true
	}
	return "", false
}

// ParseOrder converts configured names into a chain, dropping unknown and
// duplicate entries.
func ParseOrder(names []string) []Provider {
	out := make([]Provider, 0, len(names))
	for _, n := range names {
		p, ok := ParseProvider(n)
		if !ok || slices.Contains(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Tool is an operation a provider can serve.
type Tool string

// Tools.
const (
	ToolScrape  Tool = "scrape"
	ToolSearch  Tool = "search"
	ToolCrawl   Tool = "crawl"
	ToolMap     Tool = "map"
	ToolExtract Tool = "extract"
	ToolAgent   Tool = "agent"
)

var allTools = []Tool{ToolScrape, ToolSearch, ToolCrawl, ToolMap, ToolExtract, ToolAgent}

// ParseTool accepts the lower-case tool names.
func ParseTool(s string) (Tool, bool) {
	t := Tool(strings.ToLower(strings.TrimSpace(s)))
	return t, slices.Contains(allTools, t)
}

// Info is the static catalogue entry of a provider.
type Info struct {
	ID             Provider `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Features       []string `json:"features" yaml:"features"`
	Limitations    []string `json:"limitations" yaml:"limitations"`
	FreeCredits    string   `json:"freeCredits" yaml:"free_credits"`
	BestFor        string   `json:"bestFor" yaml:"best_for"`
	RequiresAPIKey bool     `json:"requiresApiKey" yaml:"requires_api_key"`
	APIKeyEnv      string   `json:"apiKeyEnvVar,omitempty" yaml:"api_key_env,omitempty"`
	DocsURL        string   `json:"docsUrl,omitempty" yaml:"docs_url,omitempty"`
	Tools          []Tool   `json:"tools" yaml:"tools"`
}

var catalogue = map[Provider]Info{
	ProviderFirecrawl: {
		ID:          ProviderFirecrawl,
		Name:        "Firecrawl",
		Description: "KI-gestütztes Web-Scraping mit Agent-Funktion. Verarbeitet JavaScript-Seiten und komplexe Websites.",
		Features: []string{
			"Agent für autonome Web-Suche",
			"JavaScript-Rendering",
			"Anti-Bot-Umgehung",
			"Strukturierte Datenextraktion",
			"Crawling ganzer Websites",
			"Map für URL-Discovery",
		},
		Limitations:    []string{"500 kostenlose Credits (einmalig)", "Danach kostenpflichtig"},
		FreeCredits:    "500 Credits",
		BestFor:        "Komplexe Shops, JS-Heavy Seiten, Agent-Aufgaben",
		RequiresAPIKey: true,
		APIKeyEnv:      "FIRECRAWL_API_KEY",
		DocsURL:        "https://firecrawl.dev",
		Tools:          []Tool{ToolScrape, ToolSearch, ToolCrawl, ToolMap, ToolExtract, ToolAgent},
	},
	ProviderExa: {
		ID:          ProviderExa,
		Name:        "Exa",
		Description: "Semantische Web-Suche mit KI. Findet relevante Inhalte basierend auf Bedeutung, nicht nur Keywords.",
		Features: []string{
			"Semantische Suche",
			"Content-Extraktion",
			"Ähnliche Seiten finden",
			"News & Artikel durchsuchen",
			"Embedding-basierte Suche",
		},
		Limitations:    []string{"$10 kostenlose Credits", "Pay-per-use danach"},
		FreeCredits:    "$10 Credits (~2000 Suchen)",
		BestFor:        "Wettbewerber-Recherche, Marktanalyse, Content-Discovery",
		RequiresAPIKey: true,
		APIKeyEnv:      "EXA_API_KEY",
		DocsURL:        "https://exa.ai",
		Tools:          []Tool{ToolSearch},
	},
	ProviderJina: {
		ID:          ProviderJina,
		Name:        "Jina Reader",
		Description: "Konvertiert jede URL in sauberes Markdown. Einfachste Integration, ideal für LLM-ready Content.",
		Features: []string{
			"URL zu Markdown Konvertierung",
			"Automatische Content-Extraktion",
			"Entfernt Werbung & Navigation",
			"Sehr einfache API (URL-Prefix)",
			"Schnell und zuverlässig",
		},
		Limitations:    []string{"20 req/min ohne Key", "200 req/min mit kostenlosem Key", "Kein JavaScript-Rendering"},
		FreeCredits:    "Unbegrenzt (Rate-Limited)",
		BestFor:        "Blogs, Artikel, Produktseiten, Dokumentation",
		RequiresAPIKey: false,
		APIKeyEnv:      "JINA_API_KEY",
		DocsURL:        "https://jina.ai/reader",
		Tools:          []Tool{ToolScrape},
	},
	ProviderScrapingAnt: {
		ID:          ProviderScrapingAnt,
		Name:        "ScrapingAnt",
		Description: "Web-Scraping API mit Proxy-Rotation und Anti-Bot-Schutz. Großzügiges kostenloses Kontingent.",
		Features: []string{
			"10.000 Credits/Monat kostenlos",
			"Proxy-Rotation",
			"JavaScript-Rendering",
			"Anti-Bot-Umgehung",
			"Headless Chrome",
		},
		Limitations:    []string{"10.000 Credits/Monat", "JS-Rendering kostet 10 Credits", "Keine Kreditkarte nötig"},
		FreeCredits:    "10.000 Credits/Monat",
		BestFor:        "E-Commerce Shops, dynamische Seiten, regelmäßiges Scraping",
		RequiresAPIKey: true,
		APIKeyEnv:      "SCRAPINGANT_API_KEY",
		DocsURL:        "https://scrapingant.com",
		Tools:          []Tool{ToolScrape},
	},
	ProviderNative: {
		ID:          ProviderNative,
		Name:        "Native Fetch",
		Description: "Direkter HTTP-Abruf ohne externe API. Komplett kostenlos und unbegrenzt, aber nur für einfache Seiten.",
		Features: []string{
			"Komplett kostenlos",
			"Keine API-Keys nötig",
			"Unbegrenzte Requests",
			"Schnellste Option",
			"HTML zu Markdown Konvertierung",
		},
		Limitations:    []string{"Kein JavaScript-Rendering", "Keine Anti-Bot-Umgehung", "Nur öffentliche Seiten", "Keine Proxy-Rotation"},
		FreeCredits:    "Unbegrenzt",
		BestFor:        "Einfache Blogs, statische Seiten, öffentliche Produktseiten",
		RequiresAPIKey: false,
		Tools:          []Tool{ToolScrape},
	},
}

// Lookup returns the catalogue entry of p.
func Lookup(p Provider) (Info, bool) {
	info, ok := catalogue[p]
	return info, ok
}

// Catalogue returns all catalogue entries in AllProviders order.
func Catalogue() []Info {
	out := make([]Info, 0, len(AllProviders))
	for _, p := range AllProviders {
		out = append(out, catalogue[p])
	}
	return out
}

// ProvidersFor returns the providers supporting tool, in catalogue order.
func ProvidersFor(tool Tool) []Provider {
	var out []Provider
	for _, p := range AllProviders {
		if slices.Contains(catalogue[p].Tools, tool) {
			out = append(out, p)
		}
	}
	return out
}
