package mapreduce

import (
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/analytics"
)

// Map generates a word frequency map for a single document's paragraphs.
func Map(doc *models.Document, a *analytics.Analytics) map[string]int {
	counts := make(map[string]int)
	for _, p := range doc.Paragraphs {
		for word, n := range a.WordFrequency(p) {
			counts[word] += n
		}
	}
	return counts
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	finalResults := make(map[string]int)

	for _, counts := range intermediate {
		for word, count := range counts {
			finalResults[word] += count
		}
	}

	return finalResults
}
