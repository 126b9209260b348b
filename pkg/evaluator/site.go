package evaluator

import (
	"context"
	"errors"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/classify"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/similarity"
)

// ErrNoChecker is returned by Sites when no prober is configured.
var ErrNoChecker = errors.New("site mode requires a checker")

// Sites matches each page's leading text to its closest rule and runs the
// functional probes against the page URL. A site is compliant only when every
// probe passes; the matched rule feeds the suggestion, not the verdict.
func (e *Evaluator) Sites(ctx context.Context, docs []models.Document, rules []models.Rule) ([]models.SiteResult, error) {
	if e.Checker == nil {
		return nil, ErrNoChecker
	}
	ruleVecs, err := e.embedRules(ctx, rules)
	if err != nil {
		return nil, err
	}

	logger := e.logger()
	var results []models.SiteResult
	for _, doc := range docs {
		text := strings.TrimSpace(models.Prefix(doc.ToPlainText(), e.pageTextChars()))
		if text == "" {
			logger.Debug("Page has no text, skipping", "document", doc.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		pageVec, err := e.Embedder.EmbedQuery(ctx, text)
		if err != nil {
			logger.Warn("Failed to embed page, skipping", "document", doc.Name, "error", err)
			continue
		}
		best, _ := similarity.Best(pageVec, ruleVecs)
		matched := rules[best.Index]

		checks := e.Checker.Check(ctx, doc.Source)
		res := models.SiteResult{
			URL:         doc.Source,
			IP:          checks.IP,
			TLSVersion:  checks.TLSVersion,
			Region:      checks.Region,
			HTTPSOK:     checks.HTTPSOK,
			TLSOK:       checks.TLSOK,
			RegionOK:    checks.RegionOK,
			MatchedRule: matched.Text,
			RuleSource:  matched.Source,
			Similarity:  best.Score,
		}
		res.OverallCompliant = checks.Passed()
		res.Suggestion = classify.SiteSuggestion(res.OverallCompliant, matched.Text)
		if len(checks.Errors) > 0 {
			res.Error = strings.Join(checks.Errors, "; ")
		}
		results = append(results, res)
		logger.Info("Site evaluated", "url", doc.Source, "compliant", res.OverallCompliant, "matched_rule_source", matched.Source)
	}
	return results, nil
}
