package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"empty", nil, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"common prefix", []float32{1, 0, 5}, []float32{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSelfIsOne(t *testing.T) {
	vecs := [][]float32{
		{0.1, -0.7, 0.3},
		{1e-3, 2e-3, 5e-4, 9},
		{-4, 4, -4, 4, 0.5},
	}
	for _, v := range vecs {
		assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)
	}
}

func TestTopK(t *testing.T) {
	q := []float32{1, 0}
	cands := [][]float32{
		{0, 1},    // 0
		{1, 0.1},  // ~0.995
		{1, 1},    // ~0.707
		{-1, 0},   // -1
		{1, 0.01}, // ~0.99995
	}

	got := TopK(q, cands, 3)
	assert.Len(t, got, 3)
	assert.Equal(t, []int{4, 1, 2}, []int{got[0].Index, got[1].Index, got[2].Index})
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)

	assert.Len(t, TopK(q, cands, 0), 5)
	assert.Len(t, TopK(q, cands, 10), 5)
	assert.Empty(t, TopK(q, nil, 3))
}

func TestBest(t *testing.T) {
	m, ok := Best([]float32{0, 1}, [][]float32{{1, 0}, {0, 2}})
	assert.True(t, ok)
	assert.Equal(t, 1, m.Index)

	_, ok = Best([]float32{0, 1}, nil)
	assert.False(t, ok)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.457, Round3(0.45678))
	assert.Equal(t, -0.2, Round3(-0.2000001))
}
