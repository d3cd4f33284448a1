package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/agent"
	"github.com/sells-group/scout/internal/analyze"
	"github.com/sells-group/scout/internal/export"
	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/internal/store"
)

const (
	maxBodyBytes   = 1 << 20
	maxUploadBytes = 10 << 20
	maxCompareURLs = 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// api serves the /api routes over an appEnv.
type api struct {
	env *appEnv
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Ungültiger Request-Body")
		return false
	}
	return true
}

// providers lists the provider catalogue. ?tool= keeps the providers
// serving that tool.
func (h *api) providers(w http.ResponseWriter, r *http.Request) {
	statuses := h.env.Scraper.Providers()
	if raw := r.URL.Query().Get("tool"); raw != "" {
		tool, ok := scrape.ParseTool(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unbekanntes Tool: "+raw)
			return
		}
		statuses = h.env.Scraper.ProvidersWith(tool)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"providers": statuses,
		"chain":     h.env.Scraper.Chain(),
		"breakers":  h.env.Scraper.BreakerStates(),
	})
}

type scrapeBody struct {
	URL            string `json:"url"`
	Provider       string `json:"provider"`
	EnableFallback *bool  `json:"enableFallback"`
	JSRendering    bool   `json:"jsRendering"`
}

func (h *api) scrape(w http.ResponseWriter, r *http.Request) {
	var body scrapeBody
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		writeError(w, http.StatusBadRequest, "URL ist erforderlich")
		return
	}

	req := scrape.Request{
		URL:             body.URL,
		DisableFallback: body.EnableFallback != nil && !*body.EnableFallback,
		JSRendering:     body.JSRendering,
	}
	if body.Provider != "" {
		p, ok := scrape.ParseProvider(body.Provider)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unbekannter Provider: "+body.Provider)
			return
		}
		req.Provider = p
	}

	res := h.env.scrape(r.Context(), req)
	writeJSON(w, resultStatus(res.Success), res)
}

type searchBody struct {
	Type           string   `json:"type"`
	Query          string   `json:"query"`
	URL            string   `json:"url"`
	Provider       string   `json:"provider"`
	NumResults     int      `json:"numResults"`
	IncludeDomains []string `json:"includeDomains"`
	ExcludeDomains []string `json:"excludeDomains"`
}

func (h *api) search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !decodeBody(w, r, &body) {
		return
	}

	var res scrape.SearchResult
	if body.Type == "similar" {
		if strings.TrimSpace(body.URL) == "" {
			writeError(w, http.StatusBadRequest, "URL ist erforderlich")
			return
		}
		res = h.env.findSimilar(r.Context(), body.URL, scrape.SearchOptions{
			NumResults:     body.NumResults,
			IncludeDomains: body.IncludeDomains,
			ExcludeDomains: body.ExcludeDomains,
		})
	} else {
		if strings.TrimSpace(body.Query) == "" {
			writeError(w, http.StatusBadRequest, "Suchanfrage ist erforderlich")
			return
		}
		var p scrape.Provider
		if body.Provider != "" {
			var ok bool
			if p, ok = scrape.ParseProvider(body.Provider); !ok {
				writeError(w, http.StatusBadRequest, "Unbekannter Provider: "+body.Provider)
				return
			}
		}
		res = h.env.search(r.Context(), scrape.SearchRequest{
			Query:          body.Query,
			Provider:       p,
			NumResults:     body.NumResults,
			IncludeDomains: body.IncludeDomains,
			ExcludeDomains: body.ExcludeDomains,
		})
	}
	writeJSON(w, resultStatus(res.Success), res)
}

// agentResponse adds the human-readable duration to a job result.
type agentResponse struct {
	agent.Result
	Duration string `json:"duration"`
}

func (h *api) agent(w http.ResponseWriter, r *http.Request) {
	var req agent.Request
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := agent.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.env.runAgent(r.Context(), req)
	status := http.StatusOK
	switch res.State {
	case agent.StateTimedOut:
		status = http.StatusGatewayTimeout
	case agent.StateFailed:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, agentResponse{Result: res, Duration: res.DurationLabel()})
}

func (h *api) agentTemplates(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if _, ok := agent.CategoryLabels[category]; category != "" && !ok {
		writeError(w, http.StatusBadRequest, "Unbekannte Kategorie: "+category)
		return
	}
	ts := agent.Templates(category)
	if ts == nil {
		ts = []agent.Template{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"templates":  ts,
		"categories": agent.CategoryLabels,
	})
}

func (h *api) extract(w http.ResponseWriter, r *http.Request) {
	var req scrape.ExtractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.env.extract(r.Context(), req)
	if err != nil {
		if scrape.IsInvalidExtract(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeProviderError(w, "extract", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": resp})
}

type siteBody struct {
	URL    string `json:"url"`
	Search string `json:"search"`
	Limit  int    `json:"limit"`
}

func (h *api) crawl(w http.ResponseWriter, r *http.Request) {
	var body siteBody
	if !decodeBody(w, r, &body) || !requireURL(w, body.URL) {
		return
	}
	resp, err := h.env.crawl(r.Context(), body.URL, body.Limit)
	if err != nil {
		writeProviderError(w, "crawl", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": resp})
}

func (h *api) mapSite(w http.ResponseWriter, r *http.Request) {
	var body siteBody
	if !decodeBody(w, r, &body) || !requireURL(w, body.URL) {
		return
	}
	resp, err := h.env.mapSite(r.Context(), body.URL, body.Search, body.Limit)
	if err != nil {
		writeProviderError(w, "map", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": resp})
}

func (h *api) analyzer(kind analyze.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body siteBody
		if !decodeBody(w, r, &body) || !requireURL(w, body.URL) {
			return
		}
		rep := h.env.analyze(r.Context(), kind, body.URL)
		writeJSON(w, resultStatus(rep.Success), rep)
	}
}

func (h *api) compare(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URLs []string `json:"urls"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	urls := compactURLs(body.URLs)
	switch {
	case len(urls) == 0:
		writeError(w, http.StatusBadRequest, "Mindestens eine URL ist erforderlich")
		return
	case len(urls) > maxCompareURLs:
		writeError(w, http.StatusBadRequest, "Maximal "+strconv.Itoa(maxCompareURLs)+" URLs erlaubt")
		return
	}

	h.writeComparison(w, r, urls)
}

// compareUpload reads the URLs from an uploaded workbook, or from a CSV
// list when the body is sent as text/*. ?column= picks
// the URL column, ?format=xlsx answers with a workbook instead of JSON.
func (h *api) compareUpload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Datei konnte nicht gelesen werden")
		return
	}

	opts := export.URLOptions{SheetName: r.URL.Query().Get("sheet"), Column: -1}
	if c := r.URL.Query().Get("column"); c != "" {
		if opts.Column, err = export.ParseColumn(c); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	var urls []string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/") {
		urls, err = export.ReadURLsCSV(bytes.NewReader(data), opts.Column)
	} else {
		urls, err = export.ReadURLsBinary(data, opts)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case len(urls) == 0:
		writeError(w, http.StatusBadRequest, "Keine URLs in der Datei gefunden")
		return
	case len(urls) > maxCompareURLs:
		writeError(w, http.StatusBadRequest, "Maximal "+strconv.Itoa(maxCompareURLs)+" URLs erlaubt")
		return
	}
	h.writeComparison(w, r, urls)
}

func (h *api) writeComparison(w http.ResponseWriter, r *http.Request, urls []string) {
	rows := h.env.compare(r.Context(), urls)
	if r.URL.Query().Get("format") == "xlsx" {
		var buf bytes.Buffer
		if err := export.WriteComparison(&buf, rows); err != nil {
			writeProviderError(w, "compare export", err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="vergleich.xlsx"`)
		_, _ = w.Write(buf.Bytes())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"results":   rows,
		"formatted": analyze.FormatComparison(rows),
	})
}

func (h *api) listHistory(w http.ResponseWriter, r *http.Request) {
	st := h.env.History.Store()
	if st == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []store.Entry{}, "total": 0})
		return
	}

	f, err := queryHistoryParams(r.URL.Query()).filter()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := st.List(r.Context(), f)
	if err != nil {
		writeProviderError(w, "history list", err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": entries, "total": len(entries)})
}

func (h *api) exportHistory(w http.ResponseWriter, r *http.Request) {
	var entries []store.Entry
	if st := h.env.History.Store(); st != nil {
		f, err := queryHistoryParams(r.URL.Query()).filter()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if entries, err = st.List(r.Context(), f); err != nil {
			writeProviderError(w, "history export", err)
			return
		}
	}

	var buf bytes.Buffer
	if err := export.WriteHistory(&buf, entries); err != nil {
		writeProviderError(w, "history export", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="verlauf.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *api) historyStats(w http.ResponseWriter, r *http.Request) {
	st := h.env.History.Store()
	if st == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": store.ComputeStats(nil, nowFunc())})
		return
	}
	entries, err := st.List(r.Context(), store.Filter{})
	if err != nil {
		writeProviderError(w, "history stats", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": store.ComputeStats(entries, nowFunc())})
}

func (h *api) deleteHistory(w http.ResponseWriter, r *http.Request) {
	st := h.env.History.Store()
	if st == nil {
		writeError(w, http.StatusNotFound, "Eintrag nicht gefunden")
		return
	}
	if err := st.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Eintrag nicht gefunden")
			return
		}
		writeProviderError(w, "history delete", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *api) clearHistory(w http.ResponseWriter, r *http.Request) {
	if st := h.env.History.Store(); st != nil {
		if err := st.Clear(r.Context()); err != nil {
			writeProviderError(w, "history clear", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func requireURL(w http.ResponseWriter, u string) bool {
	if strings.TrimSpace(u) == "" {
		writeError(w, http.StatusBadRequest, "URL ist erforderlich")
		return false
	}
	return true
}

func resultStatus(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// writeProviderError logs err and answers 500. Missing credentials are
// reported with their user-facing message.
func writeProviderError(w http.ResponseWriter, op string, err error) {
	zap.L().Error("api: request failed", zap.String("operation", op), zap.Error(err))
	if scrape.IsNotConfigured(err) {
		writeError(w, http.StatusInternalServerError, scrape.ErrFirecrawlNotConfigured.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// compactURLs trims urls and drops blanks and duplicates.
func compactURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
