package scrape

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// Italian numbers: optional +39, then a landline (0X..0XXX) or mobile (3XX)
	// prefix and two digit groups.
	phoneRe = regexp.MustCompile(`(?:\+39[\s.-]?)?(?:0[0-9]{1,3}|3[0-9]{2})[\s.-]?[0-9]{3,4}[\s.-]?[0-9]{3,4}`)

	phoneSeparators = regexp.MustCompile(`[\s.+-]`)
)

// Matches ending in these are asset filenames like logo@2x.png.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".js", ".css", ".svg", ".webp"}

// minPhoneDigits filters out short digit runs such as dates or VAT fragments.
const minPhoneDigits = 9

// contactSet accumulates unique contacts in discovery order.
type contactSet struct {
	emails    []string
	phones    []string
	seenEmail map[string]bool
	seenPhone map[string]bool
}

func newContactSet() *contactSet {
	return &contactSet{
		seenEmail: make(map[string]bool),
		seenPhone: make(map[string]bool),
	}
}

// addPage collects mailto:/tel: links first, then regex matches over the raw
// HTML so addresses in scripts or attributes are not missed.
func (s *contactSet) addPage(body []byte) {
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		doc.Find(`a[href^="mailto:"]`).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			if unescaped, err := url.PathUnescape(addr); err == nil {
				addr = unescaped
			}
			if m := emailRe.FindString(addr); m != "" {
				s.addEmail(m)
			}
		})
		doc.Find(`a[href^="tel:"]`).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if m := phoneRe.FindString(strings.TrimPrefix(href, "tel:")); m != "" {
				s.addPhone(m)
			}
		})
	}

	text := string(body)
	for _, m := range emailRe.FindAllString(text, -1) {
		s.addEmail(m)
	}
	for _, m := range phoneRe.FindAllString(text, -1) {
		s.addPhone(m)
	}
}

func (s *contactSet) addEmail(e string) {
	lower := strings.ToLower(e)
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return
		}
	}
	if s.seenEmail[lower] {
		return
	}
	s.seenEmail[lower] = true
	s.emails = append(s.emails, e)
}

func (s *contactSet) addPhone(p string) {
	p = strings.TrimSpace(p)
	digits := phoneSeparators.ReplaceAllString(p, "")
	if len(digits) < minPhoneDigits || s.seenPhone[digits] {
		return
	}
	s.seenPhone[digits] = true
	s.phones = append(s.phones, p)
}

func (s *contactSet) contacts() model.Contacts {
	return model.Contacts{Emails: s.emails, Phones: s.phones}
}
