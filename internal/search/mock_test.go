package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sells-group/leadgen-cli/internal/events"
	"github.com/sells-group/leadgen-cli/internal/jobs"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// --- Store fake ---

type fakeStore struct {
	mu         sync.Mutex
	products   map[string]*model.Product
	productErr error
	existing   map[string]bool
	existsErr  error
	insertErr  map[string]error
	inserted   []model.Lead
}

func newFakeStore(products ...model.Product) *fakeStore {
	s := &fakeStore{
		products:  make(map[string]*model.Product),
		existing:  make(map[string]bool),
		insertErr: make(map[string]error),
	}
	for i := range products {
		p := products[i]
		s.products[p.ID] = &p
	}
	return s
}

func (s *fakeStore) GetProduct(_ context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.productErr != nil {
		return nil, s.productErr
	}
	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) LeadExistsByWebsite(_ context.Context, website string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.existing[website], nil
}

func (s *fakeStore) InsertLead(_ context.Context, lead model.Lead) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertErr[lead.Website]; err != nil {
		return nil, err
	}
	lead.ID = fmt.Sprintf("lead-%d", len(s.inserted)+1)
	s.inserted = append(s.inserted, lead)
	s.existing[lead.Website] = true
	return &lead, nil
}

func (s *fakeStore) leads() []model.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Lead, len(s.inserted))
	copy(out, s.inserted)
	return out
}

// --- Provider fake ---

type pageCall struct {
	Query  string
	Offset int
}

// scriptedProvider serves pages per query in order. Unscripted pages are
// exhausted.
type scriptedProvider struct {
	mu     sync.Mutex
	pages  map[string][]PageFetchResult
	served map[string]int
	calls  []pageCall
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{
		pages:  make(map[string][]PageFetchResult),
		served: make(map[string]int),
	}
}

func (p *scriptedProvider) add(query string, pages ...PageFetchResult) *scriptedProvider {
	p.pages[query] = append(p.pages[query], pages...)
	return p
}

func (p *scriptedProvider) Page(_ context.Context, query string, offset int) PageFetchResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pageCall{Query: query, Offset: offset})
	n := p.served[query]
	p.served[query] = n + 1
	if n >= len(p.pages[query]) {
		return PageFetchResult{Kind: PageExhausted}
	}
	return p.pages[query][n]
}

func (p *scriptedProvider) callsFor(query string) []pageCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pageCall
	for _, c := range p.calls {
		if c.Query == query {
			out = append(out, c)
		}
	}
	return out
}

func results(cs ...model.Candidate) PageFetchResult {
	return PageFetchResult{Kind: PageResults, Candidates: cs}
}

func candidate(name, website, address string) model.Candidate {
	return model.Candidate{CompanyName: name, Website: website, Address: address}
}

// --- Oracle fake ---

// scoreOracle scores by website. Unknown websites score 0.
type scoreOracle struct {
	mu     sync.Mutex
	scores map[string]int
	calls  []string
	hook   func(website string)
}

func newScoreOracle(scores map[string]int) *scoreOracle {
	return &scoreOracle{scores: scores}
}

func (o *scoreOracle) Evaluate(_ context.Context, _, website, _ string, _ model.Product) model.Evaluation {
	o.mu.Lock()
	o.calls = append(o.calls, website)
	score := o.scores[website]
	hook := o.hook
	o.mu.Unlock()

	if hook != nil {
		hook(website)
	}
	if score == 0 {
		return model.Evaluation{Score: 0, Reason: "Sito non raggiungibile o contenuto insufficiente"}
	}
	return model.Evaluation{Score: score, Reason: "Analisi completata.", Accepted: true}
}

func (o *scoreOracle) evaluated() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.calls))
	copy(out, o.calls)
	return out
}

// --- Enricher fake ---

type fakeEnricher struct {
	contacts map[string]model.Contacts
}

func (e *fakeEnricher) Contacts(_ context.Context, website string) model.Contacts {
	if e == nil || e.contacts == nil {
		return model.Contacts{}
	}
	return e.contacts[website]
}

// --- Publisher fake ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) ofType(typ string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// --- Registry wrapper ---

// statusRecorder records every status a job actually takes.
type statusRecorder struct {
	*jobs.MemoryRegistry
	mu      sync.Mutex
	history map[string][]jobs.Status
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{
		MemoryRegistry: jobs.NewMemoryRegistry(),
		history:        make(map[string][]jobs.Status),
	}
}

func (r *statusRecorder) Create(jobID, productID string) error {
	if err := r.MemoryRegistry.Create(jobID, productID); err != nil {
		return err
	}
	r.record(jobID)
	return nil
}

func (r *statusRecorder) CreateUnlessRunning(jobID, productID string) (string, error) {
	existing, err := r.MemoryRegistry.CreateUnlessRunning(jobID, productID)
	if err != nil || existing != "" {
		return existing, err
	}
	r.record(jobID)
	return "", nil
}

func (r *statusRecorder) Update(jobID string, u jobs.Update) error {
	if err := r.MemoryRegistry.Update(jobID, u); err != nil {
		return err
	}
	r.record(jobID)
	return nil
}

func (r *statusRecorder) record(jobID string) {
	job, err := r.MemoryRegistry.Get(jobID)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.history[jobID]
	if len(h) == 0 || h[len(h)-1] != job.Status {
		r.history[jobID] = append(h, job.Status)
	}
}

func (r *statusRecorder) statuses(jobID string) []jobs.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]jobs.Status(nil), r.history[jobID]...)
}

// --- Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testLimits disables the page interval so tests run without waiting.
func testLimits() Limits {
	return Limits{
		Timeout:          time.Minute,
		MaxPagesPerQuery: 10,
		PageSize:         20,
		PageInterval:     0,
	}
}
