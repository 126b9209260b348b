package models

// RiskLevel is the paragraph-mode label derived from a similarity score.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Rank orders risk levels so that higher scores map to higher ranks.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	}
	return 0
}

// Compliance is the attribute- and site-mode label.
type Compliance string

const (
	Compliant    Compliance = "Compliant"
	NonCompliant Compliance = "Non-Compliant"
)

// ScoreRecord is one row of output: a (document, [paragraph,] rule) comparison.
type ScoreRecord struct {
	RunID             string       `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Document          string       `json:"document" yaml:"document"`
	Kind              DocumentKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	ParagraphID       int          `json:"paragraph_id" yaml:"paragraph_id"`
	Text              string       `json:"text,omitempty" yaml:"text,omitempty"`
	Rule              string       `json:"rule" yaml:"rule"`
	RuleSource        string       `json:"rule_source,omitempty" yaml:"rule_source,omitempty"`
	Metric            string       `json:"metric,omitempty" yaml:"metric,omitempty"`
	Value             string       `json:"value,omitempty" yaml:"value,omitempty"`
	Threshold         float64      `json:"threshold" yaml:"threshold"`
	Similarity        float64      `json:"similarity" yaml:"similarity"`
	Risk              RiskLevel    `json:"risk,omitempty" yaml:"risk,omitempty"`
	Compliance        Compliance   `json:"compliance,omitempty" yaml:"compliance,omitempty"`
	Summary           string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Suggestion        string       `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	MissingActionable bool         `json:"missing_actionable" yaml:"missing_actionable"`
}

// Label returns whichever label the record carries.
func (r *ScoreRecord) Label() string {
	if r.Risk != "" {
		return string(r.Risk)
	}
	return string(r.Compliance)
}

// AppReport is the per-application result of attribute mode.
type AppReport struct {
	AppName          string   `json:"app_name" yaml:"app_name"`
	Compliant        bool     `json:"compliant" yaml:"compliant"`
	Alerts           []string `json:"alerts" yaml:"alerts"`
	SuggestedChanges []string `json:"suggested_changes" yaml:"suggested_changes"`
}

// Issues is the number of failed checks.
func (a *AppReport) Issues() int {
	return len(a.Alerts)
}

// SiteResult is one functional check of a site against the rule set.
type SiteResult struct {
	URL              string  `json:"url" yaml:"url"`
	IP               string  `json:"ip,omitempty" yaml:"ip,omitempty"`
	TLSVersion       string  `json:"tls_version,omitempty" yaml:"tls_version,omitempty"`
	Region           string  `json:"region,omitempty" yaml:"region,omitempty"`
	HTTPSOK          bool    `json:"https_ok" yaml:"https_ok"`
	TLSOK            bool    `json:"tls_ok" yaml:"tls_ok"`
	RegionOK         bool    `json:"region_ok" yaml:"region_ok"`
	MatchedRule      string  `json:"matched_rule,omitempty" yaml:"matched_rule,omitempty"`
	RuleSource       string  `json:"rule_source,omitempty" yaml:"rule_source,omitempty"`
	Similarity       float64 `json:"similarity" yaml:"similarity"`
	OverallCompliant bool    `json:"overall_compliant" yaml:"overall_compliant"`
	Suggestion       string  `json:"suggestion" yaml:"suggestion"`
	Error            string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Status returns the compliance label of the site.
func (s *SiteResult) Status() Compliance {
	if s.OverallCompliant {
		return Compliant
	}
	return NonCompliant
}

// SearchHit is one paragraph returned by a semantic search.
type SearchHit struct {
	Document    string   `json:"document" yaml:"document"`
	ParagraphID int      `json:"paragraph_id" yaml:"paragraph_id"`
	Text        string   `json:"text" yaml:"text"`
	Score       float64  `json:"score" yaml:"score"`
	Summary     string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	ActionItems []string `json:"action_items,omitempty" yaml:"action_items,omitempty"`
}
