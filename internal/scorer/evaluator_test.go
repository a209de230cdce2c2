package scorer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	anthropicmocks "github.com/sells-group/leadgen-cli/pkg/anthropic/mocks"
)

type staticSite struct {
	text  string
	calls []string
}

func (s *staticSite) SiteText(_ context.Context, website string) string {
	s.calls = append(s.calls, website)
	return s.text
}

type scoreWriter struct {
	id     string
	score  int
	reason string
	err    error
}

func (w *scoreWriter) UpdateLeadScore(_ context.Context, id string, score int, reason string) error {
	w.id, w.score, w.reason = id, score, reason
	return w.err
}

var (
	labels = model.Product{
		ID:             "p1",
		Name:           "Etichette adesive",
		Description:    "Etichette in bobina per alimentare",
		TargetKeywords: "salumifici, caseifici",
	}
	richSite = strings.Repeat("Salumificio artigianale con spaccio aziendale. ", 4)
)

func newTestEvaluator(client anthropic.Client, site SiteReader) *Evaluator {
	cfg := config.AnthropicConfig{ScoreModel: "claude-test", ScoreTokens: 512}
	return NewEvaluator(client, site, cfg,
		WithRetry(resilience.NewPolicy(2, 2.0).WithBase(time.Millisecond)))
}

func TestEvaluate_ParsesVerdict(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		prompt := req.Messages[0].Content
		return req.Model == "claude-test" &&
			req.MaxTokens == 512 &&
			strings.Contains(prompt, "Salumificio Bianchi") &&
			strings.Contains(prompt, "Etichette in bobina") &&
			strings.Contains(prompt, "Parma")
	})).Return(anthropicmocks.TextResponse("Ecco:\n```json\n"+
		`{"score": 78, "sector_match": 90, "purchase_potential": 70, "complementarity": 65.6, "web_quality": 50, "reason": "Produce salumi confezionati."}`+
		"\n```"), nil).Once()

	site := &staticSite{text: richSite}
	ev := newTestEvaluator(client, site).Evaluate(context.Background(), "Salumificio Bianchi", "bianchi.it", "Parma", labels)

	assert.Equal(t, model.Evaluation{
		Score:             78,
		Reason:            "Produce salumi confezionati.",
		SectorMatch:       90,
		PurchasePotential: 70,
		Complementarity:   66,
		WebQuality:        50,
		Accepted:          true,
	}, ev)
	assert.Equal(t, []string{"bianchi.it"}, site.calls)
}

func TestEvaluate_ClampsAndDefaultsReason(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(anthropicmocks.TextResponse(`{"score": 140, "sector_match": -5}`), nil).Once()

	ev := newTestEvaluator(client, &staticSite{text: richSite}).
		Evaluate(context.Background(), "X", "x.it", "", labels)

	assert.Equal(t, 100, ev.Score)
	assert.Equal(t, 0, ev.SectorMatch)
	assert.Equal(t, ReasonDefault, ev.Reason)
	assert.True(t, ev.Accepted)
}

func TestEvaluate_ShortContentScoresZero(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)

	ev := newTestEvaluator(client, &staticSite{text: "Coming soon"}).
		Evaluate(context.Background(), "X", "x.it", "Milano", labels)

	assert.Equal(t, 0, ev.Score)
	assert.Equal(t, ReasonUnreachable, ev.Reason)
	assert.False(t, ev.Accepted)
	client.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestEvaluate_RetriesThenSucceeds(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("overloaded")).Once()
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(anthropicmocks.TextResponse(`{"score": 61, "reason": "ok"}`), nil).Once()

	ev := newTestEvaluator(client, &staticSite{text: richSite}).
		Evaluate(context.Background(), "X", "x.it", "", labels)

	assert.Equal(t, 61, ev.Score)
	assert.True(t, ev.Accepted)
}

func TestEvaluate_DegradesAfterRetries(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New(strings.Repeat("x", 120))).Twice()

	ev := newTestEvaluator(client, &staticSite{text: richSite}).
		Evaluate(context.Background(), "X", "x.it", "", labels)

	assert.Equal(t, DegradedScore, ev.Score)
	assert.False(t, ev.Accepted)
	assert.Equal(t, "Score conservativo: analisi AI non disponibile ("+strings.Repeat("x", 80)+")", ev.Reason)
	assert.Zero(t, ev.SectorMatch)
}

func TestEvaluate_UnparseableReplyIsRetried(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(anthropicmocks.TextResponse("Non posso valutare."), nil).Twice()

	ev := newTestEvaluator(client, &staticSite{text: richSite}).
		Evaluate(context.Background(), "X", "x.it", "", labels)

	assert.Equal(t, DegradedScore, ev.Score)
	assert.Contains(t, ev.Reason, "scorer: parse verdict")
}

func TestRescore(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(anthropicmocks.TextResponse(`{"score": 55, "reason": "Buona affinità."}`), nil).Once()

	w := &scoreWriter{}
	lead := model.Lead{ID: "l1", CompanyName: "Caseificio Verdi", Website: "verdi.it", Location: "Reggio Emilia"}
	ev, err := newTestEvaluator(client, &staticSite{text: richSite}).Rescore(context.Background(), lead, labels, w)
	require.NoError(t, err)

	assert.Equal(t, 55, ev.Score)
	assert.Equal(t, "l1", w.id)
	assert.Equal(t, 55, w.score)
	assert.Equal(t, "Buona affinità.", w.reason)
}

func TestRescore_Errors(t *testing.T) {
	client := anthropicmocks.NewMockClient(t)
	e := newTestEvaluator(client, &staticSite{text: ""})

	_, err := e.Rescore(context.Background(), model.Lead{ID: "l1"}, labels, &scoreWriter{})
	assert.ErrorContains(t, err, "has no website")

	_, err = e.Rescore(context.Background(), model.Lead{ID: "l2", Website: "a.it"}, labels, &scoreWriter{err: errors.New("db down")})
	assert.ErrorContains(t, err, "scorer: update lead l2")
}

func TestBuildEvaluatePrompt_FallsBack(t *testing.T) {
	prompt := buildEvaluatePrompt("Acme", "acme.it", "", model.Product{Name: "Viti"}, "testo")
	assert.Contains(t, prompt, "Località: N/D")
	assert.Contains(t, prompt, "Descrizione: N/D")
	assert.Contains(t, prompt, "peso 40%")
}
