package scrape

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/scout/internal/htmltext"
)

const (
	nativeUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	nativeAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	nativeAcceptLanguage = "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7"

	maxNativeBody = 10 << 20
)

// NativeAdapter fetches pages directly over HTTP. It needs no credentials
// and is always configured.
type NativeAdapter struct {
	client    *http.Client
	bodyLimit int64
}

// NewNativeAdapter creates a NativeAdapter whose requests time out after
// timeout.
func NewNativeAdapter(timeout time.Duration) *NativeAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NativeAdapter{
		bodyLimit: maxNativeBody,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// NewNativeAdapterWithClient uses hc for all fetches.
func NewNativeAdapterWithClient(hc *http.Client) *NativeAdapter {
	return &NativeAdapter{client: hc, bodyLimit: maxNativeBody}
}

// Provider implements Adapter.
func (a *NativeAdapter) Provider() Provider { return ProviderNative }

// Configured implements Adapter.
func (a *NativeAdapter) Configured() bool { return true }

// ScrapeURL implements Adapter.
func (a *NativeAdapter) ScrapeURL(ctx context.Context, target string, _ Options) Result {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fail(ProviderNative, "Nur HTTP und HTTPS URLs werden unterstützt")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(ProviderNative, "Ungültige URL")
	}
	req.Header.Set("User-Agent", nativeUserAgent)
	req.Header.Set("Accept", nativeAccept)
	req.Header.Set("Accept-Language", nativeAcceptLanguage)

	resp, err := a.client.Do(req)
	if err != nil {
		zap.L().Debug("scrape: native fetch failed", zap.String("url", target), zap.Error(err))
		return fail(ProviderNative, "Netzwerkfehler. Die URL ist möglicherweise nicht erreichbar.")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.bodyLimit+1))
	if err != nil {
		return fail(ProviderNative, "Netzwerkfehler. Die URL ist möglicherweise nicht erreichbar.")
	}

	switch {
	case resp.StatusCode == http.StatusForbidden:
		msg := "Zugriff verweigert (403). Diese Seite blockiert automatische Anfragen. Versuche einen anderen Provider."
		if label := DetectBlock(resp, body).Label(); label != "" {
			msg += " (" + label + ")"
		}
		return fail(ProviderNative, msg)
	case resp.StatusCode == http.StatusNotFound:
		return fail(ProviderNative, "Seite nicht gefunden (404)")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fail(ProviderNative, fmt.Sprintf("HTTP Fehler: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}
	if int64(len(body)) > a.bodyLimit {
		return fail(ProviderNative, fmt.Sprintf("Seite zu groß (mehr als %d MB)", a.bodyLimit>>20))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "text/plain") {
		return fail(ProviderNative, fmt.Sprintf("Nicht unterstützter Content-Type: %s. Native Fetch unterstützt nur HTML/Text.", contentType))
	}

	html := decodeBody(body, contentType)
	page := &Page{
		Markdown: htmltext.Convert(html),
		HTML:     html,
		URL:      resp.Request.URL.String(),
	}
	if title, ok := htmltext.ExtractTitle(html); ok {
		page.Title = title
	}
	return succeed(ProviderNative, page, 0)
}

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([\w-]+)`)

// decodeBody converts body to UTF-8 using the charset from the Content-Type
// header or, failing that, a <meta charset> tag near the top of the page.
// Unknown charsets leave the body untouched.
func decodeBody(body []byte, contentType string) string {
	label := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = params["charset"]
	}
	if label == "" {
		head := body
		if len(head) > 2048 {
			head = head[:2048]
		}
		if m := metaCharsetRe.FindSubmatch(head); m != nil {
			label = string(m[1])
		}
	}
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return string(body)
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		zap.L().Debug("scrape: unknown charset", zap.String("charset", label))
		return string(body)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(out)
}
