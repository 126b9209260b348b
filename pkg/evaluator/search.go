package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/similarity"
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("empty search query")

// Search returns the k paragraphs across docs closest to query, best first.
// With a summarizer configured each hit also gets a summary and action items.
func (e *Evaluator) Search(ctx context.Context, docs []models.Document, query string, k int) ([]models.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = DefaultTopK
	}

	type ref struct {
		doc  string
		id   int
		text string
	}
	var refs []ref
	var texts []string
	for _, doc := range docs {
		ts, ids := nonEmpty(doc.Paragraphs)
		for i, t := range ts {
			refs = append(refs, ref{doc: doc.Name, id: ids[i], text: t})
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return []models.SearchHit{}, nil
	}

	queryVec, err := e.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vecs, err := e.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed paragraphs: %w", err)
	}

	matches := similarity.TopK(queryVec, vecs, k)
	hits := make([]models.SearchHit, 0, len(matches))
	for _, m := range matches {
		r := refs[m.Index]
		hit := models.SearchHit{Document: r.doc, ParagraphID: r.id, Text: r.text, Score: m.Score}
		if e.Summarizer != nil {
			hit.Summary = e.summarize(ctx, r.text)
			items, err := e.Summarizer.ActionItems(ctx, r.text)
			if err != nil {
				e.logger().Warn("Action item generation failed", "document", r.doc, "paragraph_id", r.id, "error", err)
			}
			hit.ActionItems = items
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
