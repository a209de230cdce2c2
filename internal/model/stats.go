package model

import "math"

// Stats aggregates the outcome of one search.
type Stats struct {
	Analyzed          int    `json:"analyzed"`
	Accepted          int    `json:"accepted"`
	Discarded         int    `json:"discarded"`
	BelowThreshold    int    `json:"below_threshold"`
	AvgScore          int    `json:"avg_score"`
	MinScoreThreshold int    `json:"min_score_threshold,omitempty"`
	ProductName       string `json:"product_name,omitempty"`
	Location          string `json:"location,omitempty"`
	PagesSearched     int    `json:"pages_searched,omitempty"`
	Warning           string `json:"warning,omitempty"`
}

// AverageScore returns the mean of scores rounded half to even, or 0 when
// empty.
func AverageScore(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return int(math.RoundToEven(float64(sum) / float64(len(scores))))
}
