package scrape

import (
	"net/http"
	"strings"
)

// BlockType names the anti-bot mechanism behind a refused fetch.
type BlockType string

// Block types.
const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

var blockLabels = map[BlockType]string{
	BlockCloudflare: "Cloudflare-Schutz erkannt",
	BlockCaptcha:    "CAPTCHA erkannt",
	BlockJSShell:    "Seite erfordert JavaScript",
}

// Label is the German hint appended to native access-denied messages.
func (b BlockType) Label() string {
	return blockLabels[b]
}

// DetectBlock classifies the anti-bot protection visible in a response.
// Only the first 64KB of body are inspected.
func DetectBlock(resp *http.Response, body []byte) BlockType {
	if resp == nil {
		return BlockNone
	}
	if len(body) > 64<<10 {
		body = body[:64<<10]
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-mitigated") != "" ||
			strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	switch {
	case strings.Contains(lower, "checking your browser"),
		strings.Contains(lower, "cf-browser-verification"),
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge"):
		return BlockCloudflare
	case strings.Contains(lower, "captcha"):
		return BlockCaptcha
	case len(body) < 2000 && strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript"):
		return BlockJSShell
	}
	return BlockNone
}
