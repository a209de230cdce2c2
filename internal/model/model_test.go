package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductKeywords(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    []string
	}{
		{
			name:    "target keywords plus name",
			product: Product{Name: "Etichette", TargetKeywords: "tipografia, , packaging "},
			want:    []string{"tipografia", "packaging", "Etichette"},
		},
		{
			name:    "name already present",
			product: Product{Name: "Etichette", TargetKeywords: "ETICHETTE, packaging"},
			want:    []string{"ETICHETTE", "packaging"},
		},
		{
			name:    "falls back to description",
			product: Product{Name: "Caffè", Description: "torrefazione, bar"},
			want:    []string{"torrefazione", "bar", "Caffè"},
		},
		{
			name:    "falls back to name",
			product: Product{Name: "Software gestionale"},
			want:    []string{"Software gestionale"},
		},
		{
			name:    "nothing at all",
			product: Product{},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.Keywords())
		})
	}
}

func TestProductSummary(t *testing.T) {
	assert.Equal(t, "dettagli", Product{Description: "breve", AIDescription: "dettagli"}.Summary())
	assert.Equal(t, "breve", Product{Description: "breve"}.Summary())
}

func TestAverageScore(t *testing.T) {
	assert.Equal(t, 0, AverageScore(nil))
	assert.Equal(t, 63, AverageScore([]int{70, 30, 90}))
	assert.Equal(t, 50, AverageScore([]int{50, 51}))
	assert.Equal(t, 72, AverageScore([]int{70, 75}))
	assert.Equal(t, 22, AverageScore([]int{20, 25}))
	assert.Equal(t, 52, AverageScore([]int{51, 54}))
	assert.Equal(t, 80, AverageScore([]int{80}))
}

func TestContactsFirst(t *testing.T) {
	c := Contacts{Emails: []string{"info@rossi.it", "vendite@rossi.it"}, Phones: []string{"+39 02 1234567"}}
	assert.Equal(t, "info@rossi.it", c.FirstEmail())
	assert.Equal(t, "+39 02 1234567", c.FirstPhone())

	assert.Empty(t, Contacts{}.FirstEmail())
	assert.Empty(t, Contacts{}.FirstPhone())
}

func TestNewLeadSummary(t *testing.T) {
	ev := Evaluation{Score: 72, Reason: "buon fit", SectorMatch: 30, PurchasePotential: 20, Complementarity: 12, WebQuality: 10}

	s := NewLeadSummary(Candidate{CompanyName: "Rossi SRL", Website: "https://rossi.it", Phone: "02 123"}, "Milano", ev)
	assert.Equal(t, "Milano", s.Location)
	assert.Equal(t, 72, s.Score)
	assert.Equal(t, 30, s.SectorMatch)
	assert.Equal(t, "02 123", s.Phone)
	assert.Empty(t, s.ID)

	s = NewLeadSummary(Candidate{CompanyName: "Rossi SRL", Address: "Via Roma 1, Monza"}, "Milano", ev)
	assert.Equal(t, "Via Roma 1, Monza", s.Location)
}
