package embeddings

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/embeddings/ollama"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/embeddings/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashingDeterministicAndNormalized(t *testing.T) {
	h := NewHashing(64)
	ctx := context.Background()

	a, err := h.EmbedQuery(ctx, "Customer data must be stored in the United States")
	require.NoError(t, err)
	b, err := h.EmbedQuery(ctx, "Customer data must be stored in the United States")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, dot(a, a), 1e-5)

	empty, err := h.EmbedQuery(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, 0.0, dot(empty, empty))
}

func TestHashingRelatedTextScoresHigher(t *testing.T) {
	h := NewHashing(0)
	ctx := context.Background()
	vecs, err := h.EmbedDocuments(ctx, []string{
		"customer data stored in the united states",
		"data stored in united states data centers",
		"bake the bread for twenty minutes",
	})
	require.NoError(t, err)
	related := dot(vecs[0], vecs[1])
	unrelated := dot(vecs[0], vecs[2])
	assert.Greater(t, related, unrelated)
	assert.False(t, math.IsNaN(related))
}

func TestHashingEmptyBatch(t *testing.T) {
	_, err := NewHashing(8).EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

type countingEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	inner Embedder
}

func (c *countingEmbedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	c.mu.Lock()
	c.calls = append(c.calls, append([]string(nil), docs...))
	c.mu.Unlock()
	return c.inner.EmbedDocuments(ctx, docs)
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

type mapStore struct {
	m map[string][]float32
}

func (s *mapStore) key(model string, hash uint64) string {
	b, _ := json.Marshal([]any{model, hash})
	return string(b)
}

func (s *mapStore) GetEmbedding(model string, hash uint64) ([]float32, bool, error) {
	v, ok := s.m[s.key(model, hash)]
	return v, ok, nil
}

func (s *mapStore) PutEmbedding(model string, hash uint64, vec []float32) error {
	s.m[s.key(model, hash)] = vec
	return nil
}

func TestCachedOnlyComputesMisses(t *testing.T) {
	inner := &countingEmbedder{inner: NewHashing(16)}
	store := &mapStore{m: map[string][]float32{}}
	c := NewCached(inner, "hashing/16", 8, store)
	ctx := context.Background()

	first, err := c.EmbedDocuments(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	second, err := c.EmbedDocuments(ctx, []string{"beta", "gamma", "alpha"})
	require.NoError(t, err)

	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"alpha", "beta"}, inner.calls[0])
	assert.Equal(t, []string{"gamma"}, inner.calls[1])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, first[1], second[0])
	assert.Len(t, store.m, 3)

	stats := c.Stats()
	assert.Equal(t, 2, stats.MemoryHits)
	assert.Equal(t, 3, stats.Computed)

	// A fresh process with an empty memory layer reads from the store.
	inner2 := &countingEmbedder{inner: NewHashing(16)}
	c2 := NewCached(inner2, "hashing/16", 8, store)
	_, err = c2.EmbedQuery(ctx, "alpha")
	require.NoError(t, err)
	assert.Empty(t, inner2.calls)
	assert.Equal(t, 1, c2.Stats().StoreHits)
}

func TestEmbedCacheEvictsLeastRecent(t *testing.T) {
	c := newEmbedCache(2)
	c.Add(1, []float32{1})
	c.Add(2, []float32{2})
	_, _ = c.Get(1)
	c.Add(3, []float32{3})

	_, ok := c.Get(2)
	assert.False(t, ok)
	_, ok = c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())

	disabled := newEmbedCache(0)
	disabled.Add(1, []float32{1})
	_, ok = disabled.Get(1)
	assert.False(t, ok)
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		vecs := make([][]float32, len(req.Input))
		for i := range vecs {
			vecs[i] = []float32{float32(i), 1}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": vecs})
	}))
	defer srv.Close()

	e, err := New(models.EmbedderConfig{Provider: "ollama", Model: "all-minilm", BaseURL: srv.URL})
	require.NoError(t, err)
	_, ok := e.(*ollama.Embedder)
	require.True(t, ok)

	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, vecs)
}

func TestOllamaEmbedderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	e, err := New(models.EmbedderConfig{Provider: "ollama", Model: "missing", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = e.EmbedQuery(context.Background(), "x")
	assert.ErrorContains(t, err, "model not found")
}

func TestOpenAIEmbedderReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[{"embedding":[2,2],"index":1},{"embedding":[1,1],"index":0}],"usage":{"total_tokens":4}}`))
	}))
	defer srv.Close()

	e, err := New(models.EmbedderConfig{Provider: "openai", APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	_, ok := e.(*openai.Embedder)
	require.True(t, ok)

	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 2}}, vecs)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(models.EmbedderConfig{Provider: "bert"})
	assert.Error(t, err)
}

func TestModelKey(t *testing.T) {
	assert.Equal(t, "ollama/all-minilm", ModelKey(models.EmbedderConfig{Model: "all-minilm"}))
	assert.Equal(t, "hashing/384", ModelKey(models.EmbedderConfig{Provider: "hashing"}))
	assert.Equal(t, "openai/text-embedding-3-small", ModelKey(models.EmbedderConfig{Provider: "OpenAI", Model: "text-embedding-3-small"}))
}
