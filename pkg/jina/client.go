// Package jina provides a client for the Jina AI Reader API.
package jina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://r.jina.ai"

// Requests per minute allowed by Jina for anonymous and keyed callers.
const (
	AnonymousPerMinute = 20
	KeyedPerMinute     = 200
)

// Client defines the Jina AI Reader operations.
type Client interface {
	// Read fetches a URL via Jina AI Reader and returns the markdown content.
	Read(ctx context.Context, targetURL string) (*ReadResponse, error)
}

// ReadResponse is the normalized reader result. URL is empty when Jina did
// not report one.
type ReadResponse struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// readPayload covers both the flat and the {"data": {...}} response shapes.
type readPayload struct {
	Title   string       `json:"title"`
	URL     string       `json:"url"`
	Content string       `json:"content"`
	Text    string       `json:"text"`
	Data    *readPayload `json:"data"`
}

func (p *readPayload) normalize() *ReadResponse {
	src := p
	if p.Data != nil {
		src = p.Data
	}
	content := src.Content
	if content == "" {
		content = src.Text
	}
	return &ReadResponse{Title: src.Title, URL: src.URL, Content: content}
}

// APIError is returned when Jina responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jina: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
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

// WithLimiter replaces the client-side rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Jina AI Reader client. The API key is optional; a
// key raises the rate-limit tier.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: NewLimiter(apiKey != ""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewLimiter returns a limiter matching Jina's per-minute quota for the tier.
func NewLimiter(keyed bool) *rate.Limiter {
	n := AnonymousPerMinute
	if keyed {
		n = KeyedPerMinute
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (*ReadResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "jina: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "jina: create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "jina: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "jina: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return &ReadResponse{Content: string(body)}, nil
	}

	var payload readPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal response")
	}
	return payload.normalize(), nil
}
