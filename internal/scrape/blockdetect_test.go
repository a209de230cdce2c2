package scrape

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	bigPage := "<html><body>" + strings.Repeat("<p>Produciamo etichette adesive dal 1970.</p>", 400) +
		`<form><div class="g-recaptcha"></div></form></body></html>`

	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockType
	}{
		{"cloudflare 403 ray", 403, http.Header{"Cf-Ray": {"abc123"}}, "", BlockCloudflare},
		{"cloudflare 503 server", 503, http.Header{"Server": {"cloudflare"}}, "", BlockCloudflare},
		{"challenge body", 200, http.Header{}, "<title>Just a moment...</title>Checking your browser before accessing", BlockCloudflare},
		{"captcha interstitial", 200, http.Header{}, "<html><body>Please complete the reCAPTCHA to continue</body></html>", BlockCaptcha},
		{"js shell", 200, http.Header{}, "<html><noscript>Please enable JavaScript</noscript></html>", BlockJSShell},
		{"large page with contact captcha", 200, http.Header{}, bigPage, BlockNone},
		{"clean page", 200, http.Header{}, "<html><body><h1>Tipografia Bianchi</h1></body></html>", BlockNone},
		{"plain 403", 403, http.Header{}, "forbidden", BlockNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBlock(tt.status, tt.header, []byte(tt.body)))
		})
	}
}
