// Package outreach drafts personalised cold emails for accepted leads.
package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// ErrNoWebsite is returned for leads that have no website to draw from.
var ErrNoWebsite = eris.New("outreach: lead has no website")

const (
	minContentChars    = 50
	defaultProductName = "il nostro servizio"
)

// Email is a generated draft.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Hook    string `json:"hook"`
}

// Store is the persistence the generator needs.
type Store interface {
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	SetGeneratedEmail(ctx context.Context, leadID, email string) error
}

// SiteReader returns the readable text of a website.
type SiteReader interface {
	SiteText(ctx context.Context, website string) string
}

// Generator drafts emails with a language model and stores them on the lead.
type Generator struct {
	client        anthropic.Client
	site          SiteReader
	store         Store
	model         string
	maxTokens     int64
	senderCompany string
	senderName    string
	retry         resilience.Policy
	now           func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithRetry overrides the model call retry policy.
func WithRetry(p resilience.Policy) Option {
	return func(g *Generator) { g.retry = p }
}

// WithClock overrides the time used for the date in the prompt.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator.
func NewGenerator(client anthropic.Client, site SiteReader, st Store, cfg config.AnthropicConfig, opts ...Option) *Generator {
	g := &Generator{
		client:        client,
		site:          site,
		store:         st,
		model:         cfg.EmailModel,
		maxTokens:     int64(cfg.EmailTokens),
		senderCompany: cfg.SenderCompany,
		senderName:    cfg.SenderName,
		retry:         resilience.NewPolicy(2, 2.0).WithLogger("anthropic", "generate_email"),
		now:           time.Now,
	}
	if g.maxTokens <= 0 {
		g.maxTokens = 1024
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// GenerateForLead drafts an email for the lead and saves it as the lead's
// generated email.
func (g *Generator) GenerateForLead(ctx context.Context, leadID string) (*Email, error) {
	lead, err := g.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "outreach: load lead %s", leadID)
	}
	if lead.Website == "" {
		return nil, eris.Wrapf(ErrNoWebsite, "outreach: lead %s", leadID)
	}

	log := zap.L().With(zap.String("lead_id", leadID), zap.String("website", lead.Website))

	name, desc, err := g.productFor(ctx, lead)
	if err != nil {
		return nil, err
	}

	text := g.site.SiteText(ctx, lead.Website)
	if len([]rune(text)) < minContentChars {
		log.Debug("outreach: site unreadable, using lead details")
		text = fmt.Sprintf("Azienda: %s, Luogo: %s, Settore: %s", lead.CompanyName, lead.Location, orNA(lead.IndustryVertical))
	}

	in := promptInput{
		now:         g.now(),
		sender:      g.senderCompany,
		senderAbout: g.senderName,
		company:     lead.CompanyName,
		website:     lead.Website,
		location:    lead.Location,
		siteText:    text,
		productName: name,
		productDesc: desc,
	}
	req := anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		System:    []anthropic.SystemBlock{{Text: buildSystemPrompt(in)}},
		Messages:  anthropic.UserMessage(buildUserPrompt(in)),
	}

	email, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*Email, error) {
		resp, err := g.client.CreateMessage(ctx, req)
		if err != nil {
			return nil, err
		}
		resp.Usage.LogCost(g.model, "generate_email")

		var out Email
		if err := anthropic.DecodeJSON(resp.Text(), &out); err != nil {
			return nil, eris.Wrap(err, "outreach: parse email")
		}
		if strings.TrimSpace(out.Subject) == "" || strings.TrimSpace(out.Body) == "" {
			return nil, eris.New("outreach: model returned an incomplete email")
		}
		return &out, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "outreach: generate email for lead %s", leadID)
	}

	encoded, err := encode(email)
	if err != nil {
		return nil, err
	}
	if err := g.store.SetGeneratedEmail(ctx, leadID, encoded); err != nil {
		return nil, eris.Wrapf(err, "outreach: save email for lead %s", leadID)
	}

	log.Info("outreach: email generated", zap.String("company", lead.CompanyName))
	return email, nil
}

// productFor returns the name and description of the lead's product. A
// lead with no product, or a product since deleted, gets a generic name.
func (g *Generator) productFor(ctx context.Context, lead *model.Lead) (string, string, error) {
	if lead.InterestedProductID == "" {
		return defaultProductName, "", nil
	}
	p, err := g.store.GetProduct(ctx, lead.InterestedProductID)
	if errors.Is(err, store.ErrNotFound) {
		return defaultProductName, "", nil
	}
	if err != nil {
		return "", "", eris.Wrapf(err, "outreach: load product %s", lead.InterestedProductID)
	}

	desc := p.Description
	if p.AIDescription != "" {
		desc = fmt.Sprintf("%s\n\nDettagli prodotto (da analisi AI): %s", desc, p.AIDescription)
	}
	return p.Name, desc, nil
}

// encode serialises the email without HTML escaping so accented text and
// quotes are stored as written.
func encode(e *Email) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return "", eris.Wrap(err, "outreach: encode email")
	}
	return strings.TrimSpace(buf.String()), nil
}
