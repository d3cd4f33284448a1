package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRead_FlatJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/https://acme.com", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Acme Corp","url":"https://acme.com/","content":"# Acme Corp\n\nWe build things."}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Title)
	assert.Equal(t, "https://acme.com/", got.URL)
	assert.Equal(t, "# Acme Corp\n\nWe build things.", got.Content)
}

func TestRead_NestedDataAndTextField(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"code":200,"data":{"title":"Docs","text":"plain body"}}`))
	}))
	defer srv.Close()

	got, err := NewClient("", WithBaseURL(srv.URL)).Read(context.Background(), "https://docs.example")

	require.NoError(t, err)
	assert.Equal(t, "Docs", got.Title)
	assert.Equal(t, "plain body", got.Content)
	assert.Empty(t, got.URL)
}

func TestRead_PlainText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Title: Example\n\nMarkdown body"))
	}))
	defer srv.Close()

	got, err := NewClient("", WithBaseURL(srv.URL)).Read(context.Background(), "https://example.com")

	require.NoError(t, err)
	assert.Equal(t, "Title: Example\n\nMarkdown body", got.Content)
	assert.Empty(t, got.Title)
}

func TestRead_ErrorStatusIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).Read(context.Background(), "https://example.com")

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRead_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{broken`))
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).Read(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestRead_LimiterHonorsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL), WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))
	_, err := client.Read(context.Background(), "https://example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Read(ctx, "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestNewLimiter_Tiers(t *testing.T) {
	anon := NewLimiter(false)
	keyed := NewLimiter(true)

	assert.Equal(t, AnonymousPerMinute, anon.Burst())
	assert.Equal(t, KeyedPerMinute, keyed.Burst())
	assert.InDelta(t, 20.0/60.0, float64(anon.Limit()), 0.001)
	assert.InDelta(t, 200.0/60.0, float64(keyed.Limit()), 0.001)
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond)).Read(context.Background(), "https://example.com")
	require.Error(t, err)
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 500, Body: "boom"}
	assert.Equal(t, "jina: HTTP 500: boom", err.Error())
}
