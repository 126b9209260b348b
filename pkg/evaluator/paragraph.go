package evaluator

import (
	"context"
	"fmt"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/classify"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/similarity"
)

// Paragraphs scores every paragraph of every document against every rule.
// Records are ordered by document, then rule, then paragraph.
func (e *Evaluator) Paragraphs(ctx context.Context, docs []models.Document, rules []models.Rule) ([]models.ScoreRecord, error) {
	ruleVecs, err := e.embedRules(ctx, rules)
	if err != nil {
		return nil, err
	}

	logger := e.logger()
	var records []models.ScoreRecord
	for _, doc := range docs {
		texts, ids := nonEmpty(doc.Paragraphs)
		if len(texts) == 0 {
			logger.Debug("Document has no text, skipping", "document", doc.Name)
			continue
		}
		vecs, err := e.Embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			logger.Warn("Failed to embed document, skipping", "document", doc.Name, "error", err)
			continue
		}

		summaries := make([]string, len(texts))
		for i, text := range texts {
			summaries[i] = e.summarize(ctx, text)
		}

		for ri, rule := range rules {
			t := e.Classifier.For(rule)
			for pi, text := range texts {
				score := similarity.Cosine(ruleVecs[ri], vecs[pi])
				records = append(records, models.ScoreRecord{
					Document:          doc.Name,
					Kind:              doc.Kind,
					ParagraphID:       ids[pi],
					Text:              models.Truncate(text, e.textChars()),
					Rule:              rule.Text,
					RuleSource:        rule.Source,
					Threshold:         t,
					Similarity:        score,
					Risk:              e.Classifier.Risk(score, t),
					Summary:           summaries[pi],
					Suggestion:        classify.Suggestion(score, t, fmt.Sprintf("paragraph %d", ids[pi]), "", rule.Text),
					MissingActionable: classify.MissingActionable(score, t),
				})
			}
		}
		logger.Info("Document evaluated", "document", doc.Name, "paragraphs", len(texts), "rules", len(rules))
	}
	return records, nil
}
