// Package embeddings hides the sentence-embedding model behind a small interface.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/embeddings/ollama"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/embeddings/openai"
)

// ErrEmptyInput is returned when asked to embed nothing.
var ErrEmptyInput = errors.New("no input texts provided")

// Embedder is a minimal interface for computing vector embeddings
// for documents and queries.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider names accepted in configuration.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

// New builds the embedder selected by cfg. The result is not cached; wrap it with NewCached.
func New(cfg models.EmbedderConfig) (Embedder, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOllama:
		return &ollama.Embedder{C: ollama.NewClient(cfg.Model, cfg.BaseURL)}, nil
	case ProviderOpenAI:
		c := openai.NewClient(cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		return &openai.Embedder{C: c}, nil
	case ProviderHashing:
		return NewHashing(cfg.Dim), nil
	}
	return nil, fmt.Errorf("unknown embedder provider %q (want ollama, openai or hashing)", cfg.Provider)
}

// ModelKey identifies the vector space of cfg for cache keys.
func ModelKey(cfg models.EmbedderConfig) string {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOllama
	}
	if provider == ProviderHashing {
		dim := cfg.Dim
		if dim <= 0 {
			dim = DefaultHashingDim
		}
		return fmt.Sprintf("%s/%d", provider, dim)
	}
	return provider + "/" + cfg.Model
}
