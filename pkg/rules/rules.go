// Package rules holds the built-in rule sets and sources, and extracts candidate
// rules from regulator pages.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
)

// Rule set names.
const (
	SetLegal      = "legal"
	SetUSData     = "us-data"
	SetEUContract = "eu-contract"
	// SetExtracted is scraped from the rule sources at run time rather than built in.
	SetExtracted = "extracted"
)

var sets = map[string][]models.Rule{
	// Thresholded rules scored against every paragraph of legal and bank documents.
	SetLegal: {
		{Text: "Privacy policy adherence", Source: "Policy", Threshold: models.Float(0.3)},
		{Text: "User consent tracking", Source: "Policy", Threshold: models.Float(0.25)},
		{Text: "Data sharing restrictions", Source: "Policy", Threshold: models.Float(0.3)},
		{Text: "Accessibility compliance", Source: "Policy", Threshold: models.Float(0.2)},
	},
	// US regulator rules, one per extracted attribute.
	SetUSData: {
		{Text: "All customer data must be stored within the United States", Metric: "data_location", Source: "NIST"},
		{Text: "Access to sensitive data must be restricted to authorized personnel", Metric: "sensitive_access", Source: "OCC"},
		{Text: "All financial transactions must be logged and auditable", Metric: "transactions_logged", Source: "CFPB"},
		{Text: "Third-party vendors must sign a data protection agreement", Metric: "third_party_agreement", Source: "FFIEC"},
	},
	// Contract-style rules with an EU data-location requirement.
	SetEUContract: {
		{Text: "All customer data must be stored within the European Union", Metric: "data_location", Source: "Contract"},
		{Text: "Access to sensitive data must be restricted to authorized personnel", Metric: "sensitive_access", Source: "Contract"},
	},
}

// Set returns a copy of the named built-in rule set.
func Set(name string) ([]models.Rule, error) {
	rs, ok := sets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown rule set %q (want one of %s)", name, strings.Join(SetNames(), ", "))
	}
	out := make([]models.Rule, len(rs))
	copy(out, rs)
	return out, nil
}

// SetNames lists the built-in rule sets.
func SetNames() []string {
	names := make([]string, 0, len(sets))
	for n := range sets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultSetFor picks the built-in set used by an evaluation mode when the config has no rules.
func DefaultSetFor(mode models.EvalMode) string {
	if mode == models.EvalParagraph {
		return SetLegal
	}
	return SetUSData
}

// DefaultSources returns the pages each mode checks when none are configured.
func DefaultSources(mode models.EvalMode) []models.Source {
	switch mode {
	case models.EvalParagraph:
		return []models.Source{
			{Name: "LegalDoc1", URL: "https://www.sec.gov/privacy", Kind: "legal"},
			{Name: "BankApp1", URL: "https://www.bankofamerica.com/mobile-banking/", Kind: "app"},
			{Name: "BankApp2", URL: "https://www.bankofamerica.com/deposits/online-banking-features/", Kind: "app"},
		}
	case models.EvalAttribute:
		return []models.Source{
			{Name: "homepage", URL: "https://www.bankofamerica.com/"},
			{Name: "privacy", URL: "https://www.bankofamerica.com/privacy/"},
		}
	}
	return []models.Source{
		{Name: "home", URL: "https://www.bankofamerica.com"},
		{Name: "security-center", URL: "https://www.bankofamerica.com/security-center/"},
		{Name: "privacy", URL: "https://www.bankofamerica.com/privacy/"},
		{Name: "about", URL: "https://about.bankofamerica.com/en"},
	}
}

// DefaultRuleSources are the regulator pages rules are extracted from.
func DefaultRuleSources() []models.Source {
	return []models.Source{
		{Name: "NIST", URL: "https://www.nist.gov/topics/cybersecurity"},
		{Name: "OCC", URL: "https://www.occ.gov/news-issuances/bulletins/"},
		{Name: "CFPB", URL: "https://www.consumerfinance.gov/policy-compliance/rulemaking/"},
	}
}

// Resolve returns the configured rules, or the default set for mode when none are configured.
func Resolve(cfg *models.Config, mode models.EvalMode) []models.Rule {
	if len(cfg.Rules) > 0 {
		out := make([]models.Rule, len(cfg.Rules))
		copy(out, cfg.Rules)
		return out
	}
	rs, _ := Set(DefaultSetFor(mode))
	return rs
}

// WithMetric keeps only rules tied to an attribute.
func WithMetric(rs []models.Rule) []models.Rule {
	var out []models.Rule
	for _, r := range rs {
		if r.Metric != "" {
			out = append(out, r)
		}
	}
	return out
}
