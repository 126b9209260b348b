package mapreduce

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Keyword is one entry of a ranked word count.
type Keyword struct {
	Word  string
	Count int
}

// isValidKeyword checks if a keyword should be included in results.
// Filters malformed tokens (unmatched delimiters, trailing special chars, unmatched quotes).
func isValidKeyword(word string) bool {
	if strings.HasSuffix(word, ":") || strings.HasSuffix(word, "=") {
		return false
	}

	if strings.Contains(word, "(") && !strings.Contains(word, ")") {
		return false
	}
	if strings.Contains(word, "[") && !strings.Contains(word, "]") {
		return false
	}
	if strings.Contains(word, "{") && !strings.Contains(word, "}") {
		return false
	}

	if strings.Count(word, "\"")%2 != 0 {
		return false
	}
	if strings.Count(word, "'")%2 != 0 {
		return false
	}

	return true
}

// Rank returns the top n valid keywords by count, ties broken alphabetically.
// n <= 0 returns all of them.
func Rank(wordCounts map[string]int, n int) []Keyword {
	var ss []Keyword
	for k, v := range wordCounts {
		if isValidKeyword(k) {
			ss = append(ss, Keyword{k, v})
		}
	}

	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Count != ss[j].Count {
			return ss[i].Count > ss[j].Count
		}
		return ss[i].Word < ss[j].Word
	})

	if n > 0 && len(ss) > n {
		ss = ss[:n]
	}
	return ss
}

// TopKeywords returns the top N keywords formatted as "word:count" (e.g., "privacy:42").
func TopKeywords(wordCounts map[string]int, n int) []string {
	ranked := Rank(wordCounts, n)
	keywords := make([]string, len(ranked))
	for i, kv := range ranked {
		keywords[i] = fmt.Sprintf("%s:%d", kv.Word, kv.Count)
	}
	return keywords
}

// KeywordsJSON encodes the top N keywords as a JSON object {"word": count}.
// An empty count map yields "".
func KeywordsJSON(wordCounts map[string]int, n int) string {
	ranked := Rank(wordCounts, n)
	if len(ranked) == 0 {
		return ""
	}
	obj := make(map[string]int, len(ranked))
	for _, kv := range ranked {
		obj[kv.Word] = kv.Count
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return string(data)
}

// WriteTopKeywords prints the top N keywords in a numbered list format.
func WriteTopKeywords(w io.Writer, wordCounts map[string]int, n int) error {
	for i, kv := range Rank(wordCounts, n) {
		if _, err := fmt.Fprintf(w, "%d. %s: %d\n", i+1, kv.Word, kv.Count); err != nil {
			return err
		}
	}
	return nil
}
