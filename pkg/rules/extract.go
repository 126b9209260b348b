package rules

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/analytics"
)

// DefaultKeywords select regulator sentences worth treating as rules.
var DefaultKeywords = []string{"data", "security", "privacy", "encryption", "access", "storage"}

// DefaultMaxRules caps how many extracted rules are kept.
const DefaultMaxRules = 50

// HTMLGetter fetches and parses a page. *fetcher.Fetcher satisfies it.
type HTMLGetter interface {
	GetHtml(ctx context.Context, url string) (*goquery.Document, error)
}

// Extractor pulls candidate rules out of regulator pages.
type Extractor struct {
	Getter   HTMLGetter
	Keywords []string
	MaxRules int
	Logger   *slog.Logger
}

// SourceError records a regulator page that could not be used.
type SourceError struct {
	Source string
	URL    string
	Err    error
}

// Extract fetches every source in order and keeps sentences that mention a keyword.
// Failed sources are logged and reported but never abort the extraction.
func (e *Extractor) Extract(ctx context.Context, sources []models.Source) ([]models.Rule, []SourceError) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keywords := e.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	limit := e.MaxRules
	if limit <= 0 {
		limit = DefaultMaxRules
	}

	var out []models.Rule
	var failed []SourceError
	for _, src := range sources {
		if ctx.Err() != nil {
			failed = append(failed, SourceError{Source: src.Name, URL: src.URL, Err: ctx.Err()})
			continue
		}
		doc, err := e.Getter.GetHtml(ctx, src.URL)
		if err != nil {
			logger.Warn("Failed to fetch rule source", "source", src.Name, "url", src.URL, "error", err)
			failed = append(failed, SourceError{Source: src.Name, URL: src.URL, Err: err})
			continue
		}
		found := SentencesFromDocument(doc, keywords)
		logger.Info("Extracted rules from source", "source", src.Name, "url", src.URL, "count", len(found))
		for _, s := range found {
			out = append(out, models.Rule{Text: s, Source: src.Name})
		}
	}
	logger.Info("Rule extraction finished", "rules", len(out), "sources", len(sources), "kept", min(len(out), limit))
	if len(out) > limit {
		out = out[:limit]
	}
	return out, failed
}

// SentencesFromDocument joins the text of every <p> and returns the '.'-separated
// sentences that contain any keyword.
func SentencesFromDocument(doc *goquery.Document, keywords []string) []string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return Sentences(strings.Join(parts, " "), keywords)
}

// Sentences splits text on '.' and keeps non-empty sentences mentioning a keyword.
func Sentences(text string, keywords []string) []string {
	var out []string
	for _, sent := range strings.Split(text, ".") {
		sent = strings.Join(strings.Fields(sent), " ")
		if sent == "" {
			continue
		}
		if analytics.ContainsAny(sent, keywords) {
			out = append(out, sent)
		}
	}
	return out
}
