// Package classify maps similarity scores to labels and templated suggestions.
// All functions here are pure.
package classify

import (
	"fmt"

	"github.com/dtnitsch/llm-compliance-monitor/models"
)

// DefaultThreshold is used when neither the rule nor the config sets one.
const DefaultThreshold = 0.4

// DefaultHighGap is how far above the threshold a score must be to count as High.
const DefaultHighGap = 0.2

// Classifier holds the constants used to label scores.
type Classifier struct {
	Threshold float64
	HighGap   float64
}

// New returns a Classifier; a zero highGap falls back to DefaultHighGap.
func New(threshold, highGap float64) Classifier {
	if highGap <= 0 {
		highGap = DefaultHighGap
	}
	return Classifier{Threshold: threshold, HighGap: highGap}
}

// Default returns the Classifier with the stock constants.
func Default() Classifier {
	return New(DefaultThreshold, DefaultHighGap)
}

// For returns the threshold that applies to rule.
func (c Classifier) For(rule models.Rule) float64 {
	return rule.ThresholdOr(c.Threshold)
}

// Risk labels score against threshold t: High at t+gap, Medium at t, otherwise Low.
func (c Classifier) Risk(score, t float64) models.RiskLevel {
	switch {
	case score >= t+c.HighGap:
		return models.RiskHigh
	case score >= t:
		return models.RiskMedium
	}
	return models.RiskLow
}

// Compliance is Compliant iff score >= t.
func Compliance(score, t float64) models.Compliance {
	if score >= t {
		return models.Compliant
	}
	return models.NonCompliant
}

// MissingActionable is true iff the score falls below the threshold.
func MissingActionable(score, t float64) bool {
	return score < t
}

// Suggestion returns the attribute-mode remediation text, or "" when score >= t.
// app may be empty.
func Suggestion(score, t float64, metric, app, rule string) string {
	if score >= t {
		return ""
	}
	if app != "" {
		return fmt.Sprintf("Change '%s' of %s to comply with: '%s'", metric, app, rule)
	}
	return fmt.Sprintf("Change '%s' to comply with rule: '%s'", metric, rule)
}

// Alert returns the non-compliance alert line, or "" when score >= t.
func Alert(score, t float64, metric, value, rule string) string {
	if score >= t {
		return ""
	}
	return fmt.Sprintf("Non-compliance on %s: value='%s' vs rule='%s' (score=%.2f)", metric, value, rule, score)
}

// SiteSuggestion returns "Compliant" or a review prompt quoting the matched rule.
func SiteSuggestion(compliant bool, rule string) string {
	if compliant {
		return string(models.Compliant)
	}
	return "Review: " + models.Prefix(rule, 100) + "..."
}
