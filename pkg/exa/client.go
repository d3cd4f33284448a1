// Package exa provides a client for the Exa semantic search API.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.exa.ai"

// Client defines the Exa operations used by scout.
type Client interface {
	// Search runs a search and returns results with their page text.
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	// Contents fetches page text for the given URLs.
	Contents(ctx context.Context, req ContentsRequest) (*SearchResponse, error)
	// FindSimilar returns pages similar to a URL, with their page text.
	FindSimilar(ctx context.Context, req FindSimilarRequest) (*SearchResponse, error)
}

// Contents selects what page content Exa returns with results.
type Contents struct {
	Text bool `json:"text"`
}

// SearchRequest is the body for POST /search.
type SearchRequest struct {
	Query              string    `json:"query"`
	NumResults         int       `json:"numResults,omitempty"`
	Type               string    `json:"type,omitempty"`
	UseAutoprompt      *bool     `json:"useAutoprompt,omitempty"`
	IncludeDomains     []string  `json:"includeDomains,omitempty"`
	ExcludeDomains     []string  `json:"excludeDomains,omitempty"`
	StartPublishedDate string    `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string    `json:"endPublishedDate,omitempty"`
	Contents           *Contents `json:"contents,omitempty"`
}

// ContentsRequest is the body for POST /contents.
type ContentsRequest struct {
	URLs []string `json:"urls"`
	Text bool     `json:"text"`
}

// FindSimilarRequest is the body for POST /findSimilar.
type FindSimilarRequest struct {
	URL            string    `json:"url"`
	NumResults     int       `json:"numResults,omitempty"`
	IncludeDomains []string  `json:"includeDomains,omitempty"`
	ExcludeDomains []string  `json:"excludeDomains,omitempty"`
	Contents       *Contents `json:"contents,omitempty"`
}

// SearchResponse is shared by search, contents and findSimilar.
type SearchResponse struct {
	RequestID string   `json:"requestId,omitempty"`
	Results   []Result `json:"results"`
}

// Result is a single Exa document.
type Result struct {
	ID            string  `json:"id,omitempty"`
	URL           string  `json:"url"`
	Title         string  `json:"title,omitempty"`
	Score         float64 `json:"score,omitempty"`
	PublishedDate string  `json:"publishedDate,omitempty"`
	Author        string  `json:"author,omitempty"`
	Text          string  `json:"text,omitempty"`
}

// APIError is returned when Exa responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exa: HTTP %d: %s", e.StatusCode, e.Body)
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

// NewClient creates a new Exa client.
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
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, eris.Wrap(err, "exa: search")
	}
	return &resp, nil
}

func (c *httpClient) Contents(ctx context.Context, req ContentsRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/contents", req, &resp); err != nil {
		return nil, eris.Wrap(err, "exa: contents")
	}
	return &resp, nil
}

func (c *httpClient) FindSimilar(ctx context.Context, req FindSimilarRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/findSimilar", req, &resp); err != nil {
		return nil, eris.Wrap(err, "exa: find similar")
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
