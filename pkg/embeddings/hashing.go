package embeddings

import (
	"context"
	"math"

	"github.com/dtnitsch/llm-compliance-monitor/pkg/analytics"
	"github.com/minio/highwayhash"
)

// DefaultHashingDim is the vector width of the hashing embedder when none is configured.
const DefaultHashingDim = 384

const stopwordWeight = 0.2

var hashKey = []byte("lcm-feature-hashing-key-32-bytes")

// Hashing is an offline embedder: a signed bag-of-words projected by feature hashing
// and L2-normalized. It is deterministic, so equal texts always map to equal vectors.
type Hashing struct {
	dim int
}

func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Dim() int { return h.dim }

func (h *Hashing) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(docs))
	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(d)
	}
	return out, nil
}

func (h *Hashing) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.embed(text), nil
}

func (h *Hashing) embed(text string) []float32 {
	vec := make([]float32, h.dim)
	for _, tok := range analytics.Tokens(text, true) {
		sum := Hash([]byte(tok))
		w := float32(1)
		if analytics.IsStopword(tok) {
			w = stopwordWeight
		}
		if sum>>63 == 1 {
			w = -w
		}
		vec[sum%uint64(h.dim)] += w
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// Hash is the 64-bit highwayhash used for feature buckets and embedding cache keys.
func Hash(data []byte) uint64 {
	return highwayhash.Sum64(data, hashKey)
}
