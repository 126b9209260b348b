// Package similarity scores embedding vectors against each other.
package similarity

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Empty or zero vectors score 0. When lengths differ only the common prefix is compared.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp float drift so callers can rely on the range.
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// Match is one scored candidate.
type Match struct {
	Index int
	Score float64
}

// Rank scores query against every candidate and returns matches sorted by score,
// highest first. Ties keep candidate order.
func Rank(query []float32, candidates [][]float32) []Match {
	out := make([]Match, len(candidates))
	for i, c := range candidates {
		out[i] = Match{Index: i, Score: Cosine(query, c)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// TopK returns at most k best matches. k <= 0 returns all of them.
func TopK(query []float32, candidates [][]float32, k int) []Match {
	ranked := Rank(query, candidates)
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Best returns the highest scoring candidate, or false when there are none.
func Best(query []float32, candidates [][]float32) (Match, bool) {
	ranked := TopK(query, candidates, 1)
	if len(ranked) == 0 {
		return Match{}, false
	}
	return ranked[0], true
}

// Round3 rounds to three decimals, as scores are shown in tabular reports.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
