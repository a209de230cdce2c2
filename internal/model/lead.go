package model

import "time"

// LeadStatusNew is the status of a freshly accepted lead.
const LeadStatusNew = "New"

// Email sources recorded on a lead.
const (
	EmailSourceScraper = "Website Scraper"
	EmailSourceNone    = "None"
)

// Candidate is one raw result from the maps search provider.
type Candidate struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Evaluation is the scoring oracle's verdict on a candidate. It always
// carries a score; Score 0 means the site could not be read.
type Evaluation struct {
	Score             int    `json:"score"`
	Reason            string `json:"reason"`
	SectorMatch       int    `json:"sector_match"`
	PurchasePotential int    `json:"purchase_potential"`
	Complementarity   int    `json:"complementarity"`
	WebQuality        int    `json:"web_quality"`
	Accepted          bool   `json:"accepted"`
}

// Contacts holds what the contact crawl found, in discovery order.
type Contacts struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
}

// FirstEmail returns the first discovered email or "".
func (c Contacts) FirstEmail() string {
	if len(c.Emails) == 0 {
		return ""
	}
	return c.Emails[0]
}

// FirstPhone returns the first discovered phone or "".
func (c Contacts) FirstPhone() string {
	if len(c.Phones) == 0 {
		return ""
	}
	return c.Phones[0]
}

// LeadSummary is a candidate together with its evaluation outcome, as shown
// in a job's outcome buckets.
type LeadSummary struct {
	ID                string `json:"id,omitempty"`
	CompanyName       string `json:"company_name"`
	Website           string `json:"website"`
	Location          string `json:"location,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Email             string `json:"email,omitempty"`
	Score             int    `json:"score"`
	Reason            string `json:"reason"`
	SectorMatch       int    `json:"sector_match"`
	PurchasePotential int    `json:"purchase_potential"`
	Complementarity   int    `json:"complementarity"`
	WebQuality        int    `json:"web_quality"`
}

// NewLeadSummary combines a candidate with its evaluation. The candidate's
// address is the location, or searchLocation when the address is unknown.
func NewLeadSummary(c Candidate, searchLocation string, ev Evaluation) LeadSummary {
	loc := c.Address
	if loc == "" {
		loc = searchLocation
	}
	return LeadSummary{
		CompanyName:       c.CompanyName,
		Website:           c.Website,
		Location:          loc,
		Phone:             c.Phone,
		Score:             ev.Score,
		Reason:            ev.Reason,
		SectorMatch:       ev.SectorMatch,
		PurchasePotential: ev.PurchasePotential,
		Complementarity:   ev.Complementarity,
		WebQuality:        ev.WebQuality,
	}
}

// Lead is a persisted, accepted candidate.
type Lead struct {
	ID                  string    `json:"id"`
	CompanyName         string    `json:"company_name"`
	Website             string    `json:"website"`
	Location            string    `json:"location,omitempty"`
	Phone               string    `json:"phone,omitempty"`
	IndustryVertical    string    `json:"industry_vertical,omitempty"`
	Status              string    `json:"status"`
	Email               string    `json:"email,omitempty"`
	BestEmailSource     string    `json:"best_email_source,omitempty"`
	InterestedProductID string    `json:"interested_product_id,omitempty"`
	MatchScore          int       `json:"match_score"`
	MatchReason         string    `json:"match_reason,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	GeneratedEmail      string    `json:"generated_email,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}
