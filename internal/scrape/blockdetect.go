package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot interstitial detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// interstitialMaxBytes bounds the body size of a challenge page. Real company
// pages often embed a reCAPTCHA contact form, so body markers only count on
// small documents.
const interstitialMaxBytes = 8 * 1024

// DetectBlock reports whether a response is an anti-bot page rather than the
// company's own content.
func DetectBlock(status int, header http.Header, body []byte) BlockType {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		if header.Get("cf-ray") != "" || strings.EqualFold(header.Get("server"), "cloudflare") {
			return BlockCloudflare
		}
	}

	if len(body) > interstitialMaxBytes {
		return BlockNone
	}

	lower := strings.ToLower(string(body))
	switch {
	case strings.Contains(lower, "checking your browser"),
		strings.Contains(lower, "cf-browser-verification"),
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge"):
		return BlockCloudflare
	case strings.Contains(lower, "captcha"):
		return BlockCaptcha
	case strings.Contains(lower, "<noscript") && strings.Contains(lower, "enable javascript"):
		return BlockJSShell
	}
	return BlockNone
}
