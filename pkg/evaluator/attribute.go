package evaluator

import (
	"context"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/attributes"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/classify"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/rules"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/similarity"
)

// UnknownValue stands in for an attribute a rule asks about but nothing supplied.
const UnknownValue = "unknown"

type target struct {
	name   string
	kind   models.DocumentKind
	values attributes.Values
}

// targets pairs each document with its extracted attributes, overlaid by the
// static attributes of the application of the same name. Applications that
// match no document are evaluated on their static attributes alone.
func (e *Evaluator) targets(docs []models.Document) []target {
	static := map[string]map[string]string{}
	for _, app := range e.Applications {
		static[app.Name] = app.Attributes
	}

	seen := map[string]bool{}
	var out []target
	for _, doc := range docs {
		seen[doc.Name] = true
		if doc.Empty() {
			e.logger().Debug("Document has no text, skipping", "document", doc.Name)
			continue
		}
		out = append(out, target{
			name:   doc.Name,
			kind:   doc.Kind,
			values: attributes.Merge(attributes.Extract(doc.ToPlainText()), static[doc.Name]),
		})
	}
	for _, app := range e.Applications {
		if seen[app.Name] || len(app.Attributes) == 0 {
			continue
		}
		out = append(out, target{name: app.Name, kind: models.KindApp, values: attributes.Merge(nil, app.Attributes)})
	}
	return out
}

// Attributes scores each document's attribute values against the rule tied to
// that attribute. Rules without a metric are ignored. It returns one record per
// (document, rule) pair and one AppReport per document.
func (e *Evaluator) Attributes(ctx context.Context, docs []models.Document, rs []models.Rule) ([]models.ScoreRecord, []models.AppReport, error) {
	checked := rules.WithMetric(rs)
	ruleVecs, err := e.embedRules(ctx, checked)
	if err != nil {
		return nil, nil, err
	}

	logger := e.logger()
	var records []models.ScoreRecord
	var reports []models.AppReport
	for _, tg := range e.targets(docs) {
		values := make([]string, len(checked))
		for i, r := range checked {
			v, ok := tg.values[r.Metric]
			if !ok || v == "" {
				v = UnknownValue
			}
			values[i] = v
		}
		valueVecs, err := e.Embedder.EmbedDocuments(ctx, values)
		if err != nil {
			logger.Warn("Failed to embed attribute values, skipping", "document", tg.name, "error", err)
			continue
		}

		report := models.AppReport{AppName: tg.name, Alerts: []string{}, SuggestedChanges: []string{}}
		for i, r := range checked {
			t := e.Classifier.For(r)
			score := similarity.Cosine(ruleVecs[i], valueVecs[i])
			records = append(records, models.ScoreRecord{
				Document:          tg.name,
				Kind:              tg.kind,
				Rule:              r.Text,
				RuleSource:        r.Source,
				Metric:            r.Metric,
				Value:             values[i],
				Threshold:         t,
				Similarity:        score,
				Compliance:        classify.Compliance(score, t),
				Suggestion:        classify.Suggestion(score, t, r.Metric, "", r.Text),
				MissingActionable: classify.MissingActionable(score, t),
			})
			if alert := classify.Alert(score, t, r.Metric, values[i], r.Text); alert != "" {
				report.Alerts = append(report.Alerts, alert)
				report.SuggestedChanges = append(report.SuggestedChanges, classify.Suggestion(score, t, r.Metric, tg.name, r.Text))
			}
		}
		report.Compliant = len(report.Alerts) == 0
		reports = append(reports, report)
		logger.Info("Application evaluated", "document", tg.name, "compliant", report.Compliant, "issues", report.Issues())
	}
	return records, reports, nil
}
