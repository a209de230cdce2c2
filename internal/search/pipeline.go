package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/events"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// process runs one candidate through dedup, scoring, filtering, enrichment
// and persistence. Each candidate ends in at most one bucket; candidates
// without a website or already seen are dropped unbucketed. It returns false
// when the accepted limit was already reached before enrichment.
func (s *search) process(ctx context.Context, keyword string, c model.Candidate) bool {
	if c.Website == "" {
		return true
	}
	if s.visited[c.Website] {
		return true
	}
	s.visited[c.Website] = true

	log := s.log.With(zap.String("company", c.CompanyName), zap.String("website", c.Website))

	exists, err := s.o.store.LeadExistsByWebsite(ctx, c.Website)
	switch {
	case err != nil:
		log.Warn("search: duplicate check failed, treating as new", zap.Error(err))
	case exists:
		log.Info("search: skip duplicate lead")
		return true
	}

	s.analyzed++
	s.progress(fmt.Sprintf("\"%s\" - Analisi AI: %s...", keyword, c.CompanyName))

	oracleLocation := c.Address
	if oracleLocation == "" {
		oracleLocation = s.req.Location
	}
	ev := s.o.oracle.Evaluate(ctx, c.CompanyName, c.Website, oracleLocation, s.product)
	summary := model.NewLeadSummary(c, s.req.Location, ev)

	// Score 0 means the site could not be read.
	if ev.Score == 0 {
		log.Info("search: discarded, site unusable", zap.String("reason", ev.Reason))
		s.discarded = append(s.discarded, summary)
		return true
	}
	s.scores = append(s.scores, ev.Score)

	if filterApplies(c.Address, s.req.Location) && !locationMatches(c.Address, s.req.Location, s.req.IncludeProvince) {
		log.Info("search: discarded, location mismatch",
			zap.String("address", c.Address),
			zap.String("location", s.req.Location),
		)
		summary.Reason = fmt.Sprintf("Località non corrispondente: %s vs %s", c.Address, s.req.Location)
		s.discarded = append(s.discarded, summary)
		return true
	}

	if ev.Score < s.req.MinScore {
		log.Info("search: below threshold", zap.Int("score", ev.Score), zap.Int("min_score", s.req.MinScore))
		s.below = append(s.below, summary)
		return true
	}

	if s.limitReached() {
		return false
	}

	contacts := s.o.enricher.Contacts(ctx, c.Website)
	email := contacts.FirstEmail()
	phone := c.Phone
	if phone == "" {
		phone = contacts.FirstPhone()
	}
	source := model.EmailSourceNone
	if email != "" {
		source = model.EmailSourceScraper
	}

	saved, err := s.o.store.InsertLead(ctx, model.Lead{
		CompanyName:         c.CompanyName,
		Website:             c.Website,
		Location:            summary.Location,
		Phone:               phone,
		IndustryVertical:    keyword,
		Status:              model.LeadStatusNew,
		Email:               email,
		BestEmailSource:     source,
		InterestedProductID: s.req.ProductID,
		MatchScore:          ev.Score,
		MatchReason:         ev.Reason,
		Notes:               fmt.Sprintf("AI Score: %d/100 for %s", ev.Score, s.product.Name),
	})
	if err != nil {
		log.Error("search: insert lead failed, dropping candidate", zap.Error(err))
		return true
	}

	summary.ID = saved.ID
	summary.Email = email
	summary.Phone = phone
	s.accepted = append(s.accepted, summary)
	log.Info("search: lead accepted",
		zap.String("keyword", keyword),
		zap.Int("score", ev.Score),
		zap.Int("accepted", len(s.accepted)),
		zap.Int("limit", s.req.Limit),
	)

	s.o.publish(ctx, events.Event{
		Type:      events.TypeLeadAccepted,
		JobID:     s.req.JobID,
		ProductID: s.req.ProductID,
		Lead:      &summary,
	})
	return true
}
