package mapreduce

import (
	"bytes"
	"testing"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapReduce(t *testing.T) {
	docs := []models.Document{
		{Name: "sec", Paragraphs: []string{"Privacy of customer data.", "Customer data must be encrypted."}},
		{Name: "bank", Paragraphs: []string{"We protect your privacy."}},
		{Name: "empty"},
	}
	a := &analytics.Analytics{}

	var maps []map[string]int
	for i := range docs {
		maps = append(maps, Map(&docs[i], a))
	}
	require.Len(t, maps, 3)
	assert.Equal(t, 2, maps[0]["data"])
	assert.Empty(t, maps[2])

	total := Reduce(maps)
	assert.Equal(t, 2, total["privacy"])
	assert.Equal(t, 2, total["customer"])
}

func TestRankAndTopKeywords(t *testing.T) {
	counts := map[string]int{"privacy": 5, "data": 5, "access": 2, "broken(": 9, "key:": 9}

	assert.Equal(t, []Keyword{{"data", 5}, {"privacy", 5}, {"access", 2}}, Rank(counts, 0))
	assert.Equal(t, []string{"data:5", "privacy:5"}, TopKeywords(counts, 2))
	assert.Empty(t, TopKeywords(nil, 3))
}

func TestKeywordsJSON(t *testing.T) {
	assert.Equal(t, `{"data":5,"privacy":7}`, KeywordsJSON(map[string]int{"privacy": 7, "data": 5, "x": 1}, 2))
	assert.Equal(t, "", KeywordsJSON(map[string]int{}, 5))
}

func TestWriteTopKeywords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTopKeywords(&buf, map[string]int{"privacy": 3, "data": 1}, 5))
	assert.Equal(t, "1. privacy: 3\n2. data: 1\n", buf.String())
}

func TestIsValidKeyword(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"privacy", true},
		{"x_train", true},
		{"f(x)", true},
		{"key:", false},
		{"a=", false},
		{"open[", false},
		{`"quoted`, false},
		{"it's", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isValidKeyword(tt.word), tt.word)
	}
}
