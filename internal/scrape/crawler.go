package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const maxBodyBytes = 1 << 20

// Paths visited after the homepage when gathering text for scoring.
var textPaths = []string{"/chi-siamo", "/about", "/about-us", "/servizi", "/services", "/prodotti", "/products"}

// Paths visited after the homepage when looking for contacts.
var contactPaths = []string{"/contatti", "/contacts", "/contact", "/chi-siamo", "/about-us", "/about", "/info", "/impressum", "/dove-siamo", "/sede"}

// Crawler reads a handful of well-known pages of a company website.
type Crawler struct {
	http            *http.Client
	userAgent       string
	retry           resilience.Policy
	maxTextChars    int
	maxTextPages    int
	maxContactPages int
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Crawler) { c.http = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRetry overrides the per-page retry policy.
func WithRetry(p resilience.Policy) Option {
	return func(c *Crawler) { c.retry = p }
}

// WithLimits sets the text size cap and the page budgets. Zero keeps a default.
func WithLimits(textChars, textPages, contactPages int) Option {
	return func(c *Crawler) {
		if textChars > 0 {
			c.maxTextChars = textChars
		}
		if textPages > 0 {
			c.maxTextPages = textPages
		}
		if contactPages > 0 {
			c.maxContactPages = contactPages
		}
	}
}

// NewCrawler creates a Crawler. Each page fetch is tried twice with a one
// second pause on network errors.
func NewCrawler(opts ...Option) *Crawler {
	c := &Crawler{
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		userAgent:       "Mozilla/5.0 (compatible; leadgen-cli/1.0)",
		retry:           resilience.NewPolicy(2, 1.0),
		maxTextChars:    5000,
		maxTextPages:    4,
		maxContactPages: 8,
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.Retryable == nil {
		c.retry.Retryable = resilience.IsTransient
	}
	return c
}

// page is one fetched document.
type page struct {
	url    string
	host   string // host after redirects
	status int
	header http.Header
	body   []byte
}

// fetch GETs rawURL under the retry policy. Non-200 statuses are not errors.
func (c *Crawler) fetch(ctx context.Context, rawURL string) (*page, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*page, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "scrape: create request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.8")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "scrape: fetch")
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, eris.Wrap(err, "scrape: read body")
		}

		return &page{
			url:    rawURL,
			host:   resp.Request.URL.Host,
			status: resp.StatusCode,
			header: resp.Header,
			body:   body,
		}, nil
	})
}

// sitePages returns the homepage followed by paths resolved against it, and
// the host every page must stay on.
func sitePages(website string, paths []string) ([]string, string, error) {
	website = strings.TrimSpace(website)
	if !strings.HasPrefix(website, "http") {
		website = "https://" + website
	}
	base, err := url.Parse(website)
	if err != nil || base.Host == "" {
		return nil, "", eris.Errorf("scrape: invalid website %q", website)
	}

	pages := []string{base.String()}
	for _, p := range paths {
		pages = append(pages, base.ResolveReference(&url.URL{Path: p}).String())
	}
	return pages, base.Host, nil
}

// usable reports whether a fetched page is the site's own readable HTML.
func usable(p *page, host string) bool {
	if p.status != http.StatusOK || p.host != host {
		return false
	}
	if bt := DetectBlock(p.status, p.header, p.body); bt != BlockNone {
		zap.L().Debug("scrape: blocked page", zap.String("url", p.url), zap.String("block", string(bt)))
		return false
	}
	return true
}

// SiteText returns the visible text of the homepage and a few about/services
// pages, joined with "\n---\n" and capped at the configured size. Pages that
// fail, redirect off-site or return non-200 are skipped. It never errors; an
// unreadable site yields "".
func (c *Crawler) SiteText(ctx context.Context, website string) string {
	pages, host, err := sitePages(website, textPaths)
	if err != nil {
		zap.L().Debug("scrape: skip site text", zap.String("website", website), zap.Error(err))
		return ""
	}

	var parts []string
	visited := make(map[string]bool)
	for _, u := range pages {
		if visited[u] || len(visited) >= c.maxTextPages {
			break
		}
		visited[u] = true

		p, err := c.fetch(ctx, u)
		if err != nil {
			zap.L().Debug("scrape: page unreachable", zap.String("url", u), zap.Error(err))
			continue
		}
		if !usable(p, host) {
			continue
		}
		if text := extractText(p.body); text != "" {
			parts = append(parts, text)
		}
	}

	combined := strings.Join(parts, "\n---\n")
	return truncateRunes(combined, c.maxTextChars)
}

// Contacts crawls the homepage and common contact pages for email addresses
// and Italian phone numbers, in discovery order. It never errors.
func (c *Crawler) Contacts(ctx context.Context, website string) model.Contacts {
	var found model.Contacts
	pages, host, err := sitePages(website, contactPaths)
	if err != nil {
		zap.L().Debug("scrape: skip contacts", zap.String("website", website), zap.Error(err))
		return found
	}

	seen := newContactSet()
	visited := make(map[string]bool)
	for _, u := range pages {
		if len(visited) >= c.maxContactPages {
			break
		}
		if visited[u] {
			continue
		}
		visited[u] = true

		p, err := c.fetch(ctx, u)
		if err != nil {
			zap.L().Debug("scrape: contact page unreachable", zap.String("url", u), zap.Error(err))
			continue
		}
		if !usable(p, host) {
			continue
		}
		seen.addPage(p.body)
	}

	found = seen.contacts()
	zap.L().Debug("scrape: contacts found",
		zap.String("website", website),
		zap.Int("emails", len(found.Emails)),
		zap.Int("phones", len(found.Phones)),
	)
	return found
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
