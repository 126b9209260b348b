package classify

import (
	"strings"
	"testing"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/stretchr/testify/assert"
)

func TestRisk(t *testing.T) {
	c := Default()
	tests := []struct {
		score, threshold float64
		want             models.RiskLevel
	}{
		{0.61, 0.4, models.RiskHigh},
		{0.601, 0.4, models.RiskHigh},
		{0.59, 0.4, models.RiskMedium},
		{0.4, 0.4, models.RiskMedium},
		{0.39, 0.4, models.RiskLow},
		{-1, 0.4, models.RiskLow},
		{0.46, 0.25, models.RiskHigh},
		{0.2, 0.2, models.RiskMedium},
	}
	for _, tt := range tests {
		got := c.Risk(tt.score, tt.threshold)
		assert.Equal(t, tt.want, got, "score=%v threshold=%v", tt.score, tt.threshold)
	}
}

func TestRiskMonotonicInScore(t *testing.T) {
	c := Default()
	for _, threshold := range []float64{-0.5, 0, 0.2, 0.25, 0.3, 0.4, 0.8, 1} {
		prev := models.RiskLow
		for i := -100; i <= 100; i++ {
			score := float64(i) / 100
			got := c.Risk(score, threshold)
			if got.Rank() < prev.Rank() {
				t.Fatalf("risk decreased at score=%v threshold=%v: %s after %s", score, threshold, got, prev)
			}
			prev = got

			comp := Compliance(score, threshold)
			assert.Equal(t, score >= threshold, comp == models.Compliant)
		}
	}
}

func TestSuggestionIffBelowThreshold(t *testing.T) {
	for i := -10; i <= 10; i++ {
		score := float64(i) / 10
		s := Suggestion(score, 0.4, "data_location", "", "Data must be stored in US")
		a := Alert(score, 0.4, "data_location", "EU", "Data must be stored in US")
		if score < 0.4 {
			assert.NotEmpty(t, s)
			assert.NotEmpty(t, a)
			assert.True(t, MissingActionable(score, 0.4))
		} else {
			assert.Empty(t, s)
			assert.Empty(t, a)
			assert.False(t, MissingActionable(score, 0.4))
		}
	}
}

func TestSuggestionFormats(t *testing.T) {
	assert.Equal(t,
		"Change 'data_location' to comply with rule: 'Data must be stored in US'",
		Suggestion(0.1, 0.4, "data_location", "", "Data must be stored in US"))
	assert.Equal(t,
		"Change 'sensitive_access' of BankApp to comply with: 'Only authorized users'",
		Suggestion(0.1, 0.4, "sensitive_access", "BankApp", "Only authorized users"))
	assert.Equal(t,
		"Non-compliance on data_location: value='EU' vs rule='Data must be stored in US' (score=0.12)",
		Alert(0.123, 0.4, "data_location", "EU", "Data must be stored in US"))
}

func TestSiteSuggestion(t *testing.T) {
	assert.Equal(t, "Compliant", SiteSuggestion(true, "anything"))

	long := strings.Repeat("x", 150)
	got := SiteSuggestion(false, long)
	assert.Equal(t, "Review: "+strings.Repeat("x", 100)+"...", got)
	assert.Equal(t, "Review: short...", SiteSuggestion(false, "short"))
}

func TestFor(t *testing.T) {
	c := New(0.4, 0)
	assert.Equal(t, 0.2, c.HighGap)
	assert.Equal(t, 0.4, c.For(models.Rule{Text: "r"}))
	assert.Equal(t, 0.25, c.For(models.Rule{Text: "r", Threshold: models.Float(0.25)}))
}
