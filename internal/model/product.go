package model

import (
	"strings"
	"time"
)

// Product is the offering a lead search prospects for.
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	TargetKeywords string    `json:"target_keywords,omitempty"` // comma-separated
	AIDescription  string    `json:"ai_description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Keywords derives the search keywords of the product. The comma-separated
// target keywords are used when set, otherwise the description, otherwise the
// name; entries are trimmed and blanks dropped. The product name is appended
// when no keyword equals it case-insensitively.
func (p Product) Keywords() []string {
	raw := p.TargetKeywords
	if strings.TrimSpace(raw) == "" {
		raw = p.Description
	}
	if strings.TrimSpace(raw) == "" {
		raw = p.Name
	}

	var keywords []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return keywords
	}
	for _, kw := range keywords {
		if strings.EqualFold(kw, name) {
			return keywords
		}
	}
	return append(keywords, name)
}

// Summary is the text a model sees when judging fit with the product.
func (p Product) Summary() string {
	if p.AIDescription != "" {
		return p.AIDescription
	}
	return p.Description
}
