// Package evaluator scores acquired documents against compliance rules.
//
// It is the single pipeline behind every mode: embed, compare, classify.
// Documents with no text produce no output, and a document whose text cannot
// be embedded is logged and skipped; only a failure to embed the rules
// themselves aborts an evaluation.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/classify"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/embeddings"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/probe"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/summarizer"
)

const (
	// DefaultTextChars bounds the paragraph text kept on each record.
	DefaultTextChars = 200
	// DefaultPageTextChars bounds the page text embedded in site mode.
	DefaultPageTextChars = 3000
	// DefaultTopK is the number of search hits returned.
	DefaultTopK = 3
)

// ErrNoRules is returned when an evaluation has nothing to compare against.
var ErrNoRules = errors.New("no rules to evaluate")

// Checker runs the functional probes of site mode. *probe.Prober satisfies it.
type Checker interface {
	Check(ctx context.Context, rawURL string) *probe.Result
}

// Evaluator holds the collaborators shared by all modes. Embedder is required.
type Evaluator struct {
	Embedder   embeddings.Embedder
	Classifier classify.Classifier
	// Summarizer is optional; nil disables summaries and action items.
	Summarizer summarizer.Summarizer
	// Checker is required for site mode only.
	Checker       Checker
	Applications  []models.Application
	TextChars     int
	PageTextChars int
	Logger        *slog.Logger
}

// New returns an Evaluator with the default classifier and text limits.
func New(e embeddings.Embedder, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		Embedder:      e,
		Classifier:    classify.Default(),
		TextChars:     DefaultTextChars,
		PageTextChars: DefaultPageTextChars,
		Logger:        logger,
	}
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Evaluator) embedRules(ctx context.Context, rules []models.Rule) ([][]float32, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	texts := make([]string, len(rules))
	for i, r := range rules {
		texts[i] = r.Text
	}
	vecs, err := e.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed rules: %w", err)
	}
	if len(vecs) != len(rules) {
		return nil, fmt.Errorf("failed to embed rules: got %d vectors for %d rules", len(vecs), len(rules))
	}
	return vecs, nil
}

// nonEmpty drops blank fragments, keeping their 1-based paragraph IDs.
func nonEmpty(paragraphs []string) ([]string, []int) {
	texts := make([]string, 0, len(paragraphs))
	ids := make([]int, 0, len(paragraphs))
	for i, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		texts = append(texts, p)
		ids = append(ids, i+1)
	}
	return texts, ids
}

func (e *Evaluator) textChars() int {
	if e.TextChars > 0 {
		return e.TextChars
	}
	return DefaultTextChars
}

func (e *Evaluator) pageTextChars() int {
	if e.PageTextChars > 0 {
		return e.PageTextChars
	}
	return DefaultPageTextChars
}

// summarize returns the summary of text, or "" when summaries are disabled.
func (e *Evaluator) summarize(ctx context.Context, text string) string {
	if e.Summarizer == nil {
		return ""
	}
	s, err := e.Summarizer.Summarize(ctx, text)
	if err != nil {
		e.logger().Warn("Summarization failed, keeping original text", "error", err)
		return text
	}
	return s
}
