package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/metrics"
	"github.com/sells-group/scout/internal/resilience"
)

// Search result bounds.
const (
	DefaultNumResults = 10
	MaxNumResults     = 50
)

// Orchestrator dispatches scrapes and searches to provider adapters. Scrapes
// without an explicit provider walk the fallback chain, first success wins.
type Orchestrator struct {
	adapters map[Provider]Adapter
	order    []Provider
	breakers *resilience.ServiceBreakers
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFallbackOrder overrides DefaultFallbackOrder. An empty order is
// ignored.
func WithFallbackOrder(order []Provider) Option {
	return func(o *Orchestrator) {
		if len(order) > 0 {
			o.order = order
		}
	}
}

// WithBreakers enables per-provider circuit breakers. Providers whose
// breaker is open are skipped in automatic chains. Native is never gated.
func WithBreakers(sb *resilience.ServiceBreakers) Option {
	return func(o *Orchestrator) {
		o.breakers = sb
	}
}

// NewOrchestrator builds an orchestrator over adapters. A native adapter
// is added when none is given.
func NewOrchestrator(adapters []Adapter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		adapters: make(map[Provider]Adapter, len(adapters)+1),
		order:    DefaultFallbackOrder,
	}
	for _, a := range adapters {
		o.adapters[a.Provider()] = a
	}
	if _, ok := o.adapters[ProviderNative]; !ok {
		o.adapters[ProviderNative] = NewNativeAdapter(0)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Chain returns the automatic scrape chain: the fallback order filtered to
// configured providers, or just native when nothing is configured.
func (o *Orchestrator) Chain() []Provider {
	var chain []Provider
	for _, p := range o.order {
		if a, ok := o.adapters[p]; ok && a.Configured() {
			chain = append(chain, p)
		}
	}
	if len(chain) == 0 {
		chain = []Provider{ProviderNative}
	}
	return chain
}

// Scrape fetches req.URL. It never returns a Go error; failures are
// described by the Result.
func (o *Orchestrator) Scrape(ctx context.Context, req Request) Result {
	if msg := validateURL(req.URL); msg != "" {
		p := req.Provider
		if p == "" {
			p = ProviderNative
		}
		return fail(p, msg)
	}

	if req.Provider != "" {
		a, ok := o.adapters[req.Provider]
		if !ok {
			return fail(req.Provider, fmt.Sprintf("Unbekannter Provider: %s", req.Provider))
		}
		return o.call(ctx, a, req, false)
	}

	chain := o.Chain()
	var (
		last     Result
		attempts int
	)
	for i, p := range chain {
		if o.isOpen(p) {
			zap.L().Debug("scrape: circuit open, skipping provider", zap.String("provider", string(p)), zap.String("url", req.URL))
			metrics.ProviderRequests.WithLabelValues(string(p), string(ToolScrape), metrics.OutcomeSkipped).Inc()
			continue
		}

		attempts++
		res := o.call(ctx, o.adapters[p], req, true)
		if res.Success {
			res.FallbackUsed = i > 0
			if res.FallbackUsed {
				metrics.FallbacksUsed.Inc()
			}
			return res
		}

		zap.L().Debug("scrape: provider failed, trying next",
			zap.String("provider", string(p)),
			zap.String("url", req.URL),
			zap.String("error", res.Error),
		)
		last = res
		if req.DisableFallback {
			break
		}
	}

	if attempts == 0 {
		return fail(chain[len(chain)-1], "Alle Provider sind fehlgeschlagen")
	}
	last.FallbackUsed = attempts > 1
	return last
}

// call runs one adapter. Inside the automatic chain the call goes through
// the provider's circuit breaker; an explicitly chosen provider is always
// called.
func (o *Orchestrator) call(ctx context.Context, a Adapter, req Request, inChain bool) Result {
	p := a.Provider()
	opts := Options{JSRendering: req.JSRendering}
	start := time.Now()

	var cb *resilience.CircuitBreaker
	if inChain {
		cb = o.breaker(p)
	}

	var res Result
	if cb != nil {
		res, _ = resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (Result, error) {
			r := a.ScrapeURL(ctx, req.URL, opts)
			if !r.Success {
				return r, eris.New(r.Error)
			}
			return r, nil
		})
		if res.Provider == "" {
			// Opened by a concurrent request between isOpen and the call.
			res = fail(p, fmt.Sprintf("%s ist vorübergehend deaktiviert (Circuit Breaker offen)", p))
		}
	} else {
		res = a.ScrapeURL(ctx, req.URL, opts)
	}

	metrics.ObserveProvider(string(p), string(ToolScrape), res.Success, time.Since(start))
	return res
}

// breaker returns the breaker gating p, or nil. Native and Firecrawl (which
// never calls out from a chain) are not gated.
func (o *Orchestrator) breaker(p Provider) *resilience.CircuitBreaker {
	if o.breakers == nil || p == ProviderNative || p == ProviderFirecrawl {
		return nil
	}
	return o.breakers.Get(string(p))
}

func (o *Orchestrator) isOpen(p Provider) bool {
	cb := o.breaker(p)
	return cb != nil && cb.State() == resilience.CircuitOpen
}

// ScrapeFirecrawl scrapes url directly through Firecrawl, bypassing the
// chain.
func (o *Orchestrator) ScrapeFirecrawl(ctx context.Context, target string) Result {
	if msg := validateURL(target); msg != "" {
		return fail(ProviderFirecrawl, msg)
	}
	fc := o.Firecrawl()
	start := time.Now()
	res := fc.Direct(ctx, target)
	metrics.ObserveProvider(string(ProviderFirecrawl), string(ToolScrape), res.Success, time.Since(start))
	return res
}

// Firecrawl returns the Firecrawl adapter, unconfigured if none was given.
func (o *Orchestrator) Firecrawl() *FirecrawlAdapter {
	if fc, ok := o.adapters[ProviderFirecrawl].(*FirecrawlAdapter); ok {
		return fc
	}
	return NewFirecrawlAdapter(nil)
}

// Search runs a query. Only Exa supports search.
func (o *Orchestrator) Search(ctx context.Context, req SearchRequest) SearchResult {
	p := req.Provider
	if p == "" {
		p = ProviderExa
	}
	if strings.TrimSpace(req.Query) == "" {
		return SearchResult{Provider: p, Error: "Suchanfrage ist erforderlich"}
	}

	s, ok := o.adapters[p].(Searcher)
	if !ok && p == ProviderExa {
		return SearchResult{Provider: p, Error: "Exa API-Key nicht konfiguriert"}
	}
	if !ok {
		return SearchResult{Provider: p, Error: fmt.Sprintf("Provider %s unterstützt keine Suche", p)}
	}

	req.Provider = p
	req.NumResults = clampResults(req.NumResults)
	start := time.Now()
	res := s.Search(ctx, req)
	metrics.ObserveProvider(string(p), string(ToolSearch), res.Success, time.Since(start))
	return res
}

// FindSimilar returns pages similar to target via Exa.
func (o *Orchestrator) FindSimilar(ctx context.Context, target string, opts SearchOptions) SearchResult {
	if msg := validateURL(target); msg != "" {
		return SearchResult{Provider: ProviderExa, Error: msg}
	}
	f, ok := o.adapters[ProviderExa].(SimilarFinder)
	if !ok {
		return SearchResult{Provider: ProviderExa, Error: "Exa API-Key nicht konfiguriert"}
	}

	opts.NumResults = clampResults(opts.NumResults)
	start := time.Now()
	res := f.FindSimilar(ctx, target, opts)
	metrics.ObserveProvider(string(ProviderExa), "similar", res.Success, time.Since(start))
	return res
}

// Providers reports every catalogued provider with its configured status.
func (o *Orchestrator) Providers() []Status {
	out := make([]Status, 0, len(AllProviders))
	for _, info := range Catalogue() {
		a, ok := o.adapters[info.ID]
		out = append(out, Status{Info: info, Configured: ok && a.Configured()})
	}
	return out
}

// ProvidersWith returns the status of the providers serving tool.
func (o *Orchestrator) ProvidersWith(tool Tool) []Status {
	ids := ProvidersFor(tool)
	out := make([]Status, 0, len(ids))
	for _, st := range o.Providers() {
		if slices.Contains(ids, st.ID) {
			out = append(out, st)
		}
	}
	return out
}

// BreakerStates snapshots the circuit breaker states by provider.
func (o *Orchestrator) BreakerStates() map[string]string {
	out := map[string]string{}
	if o.breakers == nil {
		return out
	}
	for name, st := range o.breakers.States() {
		out[name] = st.String()
	}
	return out
}

func clampResults(n int) int {
	switch {
	case n <= 0:
		return DefaultNumResults
	case n > MaxNumResults:
		return MaxNumResults
	default:
		return n
	}
}

// validateURL returns a user-facing message for an unusable URL, or "".
func validateURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "URL ist erforderlich"
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "Ungültige URL"
	}
	return ""
}

// IsNotConfigured reports whether err means a provider lacks credentials.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrFirecrawlNotConfigured)
}
