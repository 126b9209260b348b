// Package summarizer shortens and simplifies legal paragraphs.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/embeddings/ollama"
)

// DefaultMaxWords bounds summaries from the truncating summarizer.
const DefaultMaxWords = 60

const (
	summaryPrompt = "Summarize the following text in at most %d words. Reply with the summary only.\n\n%s"
	actionPrompt  = "Simplify the following legal clause into 3-4 clear action items. Reply with one action item per line.\n\n%s"
)

// Summarizer turns a paragraph into a short summary and a list of action items.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	ActionItems(ctx context.Context, text string) ([]string, error)
}

// Generator is a text-completion backend. *ollama.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLM prompts a Generator.
type LLM struct {
	Gen      Generator
	MaxWords int
}

func (l *LLM) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	out, err := l.Gen.Generate(ctx, fmt.Sprintf(summaryPrompt, l.maxWords(), text))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}

func (l *LLM) ActionItems(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	out, err := l.Gen.Generate(ctx, fmt.Sprintf(actionPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("action items: %w", err)
	}
	return ParseItems(out), nil
}

func (l *LLM) maxWords() int {
	if l.MaxWords <= 0 {
		return DefaultMaxWords
	}
	return l.MaxWords
}

// Truncate is the offline summarizer: the first MaxWords words of the text,
// and one action item per sentence.
type Truncate struct {
	MaxWords int
}

func (t *Truncate) Summarize(_ context.Context, text string) (string, error) {
	limit := t.MaxWords
	if limit <= 0 {
		limit = DefaultMaxWords
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return strings.Join(words, " "), nil
	}
	return strings.Join(words[:limit], " ") + "...", nil
}

func (t *Truncate) ActionItems(_ context.Context, text string) ([]string, error) {
	var out []string
	for _, s := range strings.Split(text, ".") {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" {
			out = append(out, s)
		}
		if len(out) == 4 {
			break
		}
	}
	return out, nil
}

var itemPrefix = regexp.MustCompile(`^\s*(?:[-*•·]|\d+[.)])\s*`)

// ParseItems splits generated text into action items, dropping one bullet or number per line.
func ParseItems(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(itemPrefix.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Fallback wraps a Summarizer so errors degrade to the raw text instead of failing.
type Fallback struct {
	Next   Summarizer
	Logger *slog.Logger
}

func (f *Fallback) Summarize(ctx context.Context, text string) (string, error) {
	s, err := f.Next.Summarize(ctx, text)
	if err != nil || strings.TrimSpace(s) == "" {
		if err != nil {
			f.logger().Warn("Summarizer failed, using original text", "error", err)
		}
		return text, nil
	}
	return s, nil
}

func (f *Fallback) ActionItems(ctx context.Context, text string) ([]string, error) {
	items, err := f.Next.ActionItems(ctx, text)
	if err != nil {
		f.logger().Warn("Action item generation failed, using original text", "error", err)
		return []string{text}, nil
	}
	return items, nil
}

func (f *Fallback) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// New builds the configured summarizer, wrapped in Fallback. It returns nil when disabled.
func New(cfg models.SummarizerConfig, logger *slog.Logger) (Summarizer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	var next Summarizer
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "ollama":
		next = &LLM{Gen: ollama.NewClient(cfg.Model, cfg.BaseURL), MaxWords: cfg.MaxLength}
	case "truncate":
		next = &Truncate{MaxWords: cfg.MaxLength}
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q (want ollama or truncate)", cfg.Provider)
	}
	return &Fallback{Next: next, Logger: logger}, nil
}
