package models

// Rule is a natural-language compliance statement compared against document text.
type Rule struct {
	Text   string `json:"rule" yaml:"rule"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Metric ties the rule to one extracted attribute (attribute mode only).
	Metric    string   `json:"metric,omitempty" yaml:"metric,omitempty"`
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// ThresholdOr returns the rule's own threshold, or def when none is set.
func (r Rule) ThresholdOr(def float64) float64 {
	if r.Threshold != nil {
		return *r.Threshold
	}
	return def
}

// Float returns a pointer to v, for literal rule thresholds.
func Float(v float64) *float64 {
	return &v
}
