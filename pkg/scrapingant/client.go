// Package scrapingant provides a client for the ScrapingAnt general scraping API.
package scrapingant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.scrapingant.com"

// Client defines the ScrapingAnt operations.
type Client interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error)
}

// ScrapeRequest describes a single page fetch.
type ScrapeRequest struct {
	URL string
	// Browser enables headless-browser rendering (10 credits instead of 1).
	Browser bool
	// ReturnText asks for plain text instead of HTML.
	ReturnText bool
}

// ScrapeResponse is the fetched page.
type ScrapeResponse struct {
	Content     string
	CreditsUsed int
}

// APIError is returned when ScrapingAnt responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scrapingant: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new ScrapingAnt client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Scrape(ctx context.Context, sr ScrapeRequest) (*ScrapeResponse, error) {
	params := url.Values{}
	params.Set("url", sr.URL)
	if sr.Browser {
		params.Set("browser", "true")
	}
	if sr.ReturnText {
		params.Set("return_text", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/general?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrapingant: create request")
	}
	req.Header.Set("Accept", "text/html,application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrapingant: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "scrapingant: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	out := &ScrapeResponse{CreditsUsed: creditsUsed(resp.Header)}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		out.Content = string(body)
		return out, nil
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "scrapingant: unmarshal response")
	}
	out.Content = payload.Content
	return out, nil
}

// creditsUsed reads the x-credits-used header, defaulting to one credit.
func creditsUsed(h http.Header) int {
	n, err := strconv.Atoi(strings.TrimSpace(h.Get("x-credits-used")))
	if err != nil {
		return 1
	}
	return n
}
