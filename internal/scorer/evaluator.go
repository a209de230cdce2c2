// Package scorer judges how well a company website fits a product using a
// language model.
package scorer

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// Sites with less readable text than this are not sent to the model.
const minContentChars = 50

// Fixed verdicts outside the model's control.
const (
	ReasonUnreachable = "Sito web non raggiungibile o contenuto insufficiente per l'analisi."
	ReasonDefault     = "Analisi completata."

	// DegradedScore is assigned when the model cannot be reached.
	DegradedScore = 25
)

// SiteReader returns the readable text of a website, or "" when unusable.
type SiteReader interface {
	SiteText(ctx context.Context, website string) string
}

// LeadScoreWriter persists a rescored lead.
type LeadScoreWriter interface {
	UpdateLeadScore(ctx context.Context, leadID string, score int, reason string) error
}

// Evaluator scores candidates against a product. It never returns an error:
// unreadable sites score 0 and model failures fall back to DegradedScore.
type Evaluator struct {
	client    anthropic.Client
	site      SiteReader
	model     string
	maxTokens int64
	retry     resilience.Policy
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRetry overrides the model call retry policy.
func WithRetry(p resilience.Policy) Option {
	return func(e *Evaluator) { e.retry = p }
}

// NewEvaluator creates an Evaluator. Model calls are tried twice with a
// factor 2.0 backoff.
func NewEvaluator(client anthropic.Client, site SiteReader, cfg config.AnthropicConfig, opts ...Option) *Evaluator {
	e := &Evaluator{
		client:    client,
		site:      site,
		model:     cfg.ScoreModel,
		maxTokens: int64(cfg.ScoreTokens),
		retry:     resilience.NewPolicy(2, 2.0).WithLogger("anthropic", "evaluate"),
	}
	if e.maxTokens <= 0 {
		e.maxTokens = 1024
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// verdict is the JSON object the model is asked to return. Numbers are
// decoded as floats since models occasionally emit 72.5.
type verdict struct {
	Score             float64 `json:"score"`
	SectorMatch       float64 `json:"sector_match"`
	PurchasePotential float64 `json:"purchase_potential"`
	Complementarity   float64 `json:"complementarity"`
	WebQuality        float64 `json:"web_quality"`
	Reason            string  `json:"reason"`
}

// Evaluate scores one candidate website against product.
func (e *Evaluator) Evaluate(ctx context.Context, companyName, website, location string, product model.Product) model.Evaluation {
	log := zap.L().With(zap.String("company", companyName), zap.String("website", website))

	text := e.site.SiteText(ctx, website)
	if len([]rune(text)) < minContentChars {
		log.Debug("scorer: not enough site content", zap.Int("chars", len(text)))
		return model.Evaluation{Score: 0, Reason: ReasonUnreachable}
	}

	req := anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    []anthropic.SystemBlock{{Text: evaluateSystemPrompt}},
		Messages:  anthropic.UserMessage(buildEvaluatePrompt(companyName, website, location, product, text)),
	}

	v, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (verdict, error) {
		resp, err := e.client.CreateMessage(ctx, req)
		if err != nil {
			return verdict{}, err
		}
		resp.Usage.LogCost(e.model, "evaluate")

		var out verdict
		if err := anthropic.DecodeJSON(resp.Text(), &out); err != nil {
			return verdict{}, eris.Wrap(err, "scorer: parse verdict")
		}
		return out, nil
	})
	if err != nil {
		log.Warn("scorer: model unavailable, assigning conservative score", zap.Error(err))
		return degraded(err)
	}

	ev := model.Evaluation{
		Score:             clamp(v.Score),
		Reason:            v.Reason,
		SectorMatch:       clamp(v.SectorMatch),
		PurchasePotential: clamp(v.PurchasePotential),
		Complementarity:   clamp(v.Complementarity),
		WebQuality:        clamp(v.WebQuality),
		Accepted:          true,
	}
	if ev.Reason == "" {
		ev.Reason = ReasonDefault
	}
	log.Debug("scorer: evaluated", zap.Int("score", ev.Score))
	return ev
}

// Rescore evaluates a stored lead again and writes the new score back.
func (e *Evaluator) Rescore(ctx context.Context, lead model.Lead, product model.Product, w LeadScoreWriter) (model.Evaluation, error) {
	if lead.Website == "" {
		return model.Evaluation{}, eris.Errorf("scorer: lead %s has no website", lead.ID)
	}
	ev := e.Evaluate(ctx, lead.CompanyName, lead.Website, lead.Location, product)
	if err := w.UpdateLeadScore(ctx, lead.ID, ev.Score, ev.Reason); err != nil {
		return ev, eris.Wrapf(err, "scorer: update lead %s", lead.ID)
	}
	return ev, nil
}

func degraded(err error) model.Evaluation {
	msg := []rune(err.Error())
	if len(msg) > 80 {
		msg = msg[:80]
	}
	return model.Evaluation{
		Score:  DegradedScore,
		Reason: fmt.Sprintf("Score conservativo: analisi AI non disponibile (%s)", string(msg)),
	}
}

func clamp(f float64) int {
	n := int(math.Round(f))
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return n
}
