package fetch

import (
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/db"
)

// Error types recorded on failed results and in url_accesses.
const (
	ErrorTypeFetch = "fetch_error"
	ErrorTypeRead  = "read_error"
	ErrorTypeParse = "parse_error"
)

// Job is one source to acquire. Index keeps results in input order.
type Job struct {
	Index  int
	Source models.Source
}

// Result holds the outcome of a processed job.
// A failed job still carries a Document with no paragraphs.
type Result struct {
	Index       int
	Source      models.Source
	Document    models.Document
	URLID       int64
	StatusCode  int
	Error       error
	ErrorType   string
	WordCounts  map[string]int
	ContentHash string
	SizeBytes   int64
	Cached      bool
}

// Failed reports whether the source could not be acquired.
func (r *Result) Failed() bool {
	return r.Error != nil
}

// Status is "success" or "failed".
func (r *Result) Status() string {
	if r.Failed() {
		return "failed"
	}
	return "success"
}

// RunDocument converts the result into its run-history row.
func (r *Result) RunDocument() db.RunDocument {
	doc := db.RunDocument{
		URL:            r.Source.URL,
		Name:           r.Document.Name,
		Kind:           string(r.Document.Kind),
		Language:       r.Document.Language,
		ParagraphCount: len(r.Document.Paragraphs),
		Status:         r.Status(),
		StatusCode:     r.StatusCode,
		ErrorType:      r.ErrorType,
		ContentHash:    r.ContentHash,
		SizeBytes:      r.SizeBytes,
	}
	if r.Error != nil {
		doc.ErrorMessage = r.Error.Error()
	}
	return doc
}

// ResultOutput is the structured output for a single source.
type ResultOutput struct {
	Name       string `json:"name" yaml:"name"`
	URL        string `json:"url" yaml:"url"`
	Kind       string `json:"kind" yaml:"kind"`
	Language   string `json:"language,omitempty" yaml:"language,omitempty"`
	Paragraphs int    `json:"paragraphs" yaml:"paragraphs"`
	Size       string `json:"size,omitempty" yaml:"size,omitempty"`
	Cached     bool   `json:"cached,omitempty" yaml:"cached,omitempty"`
	Status     string `json:"status" yaml:"status"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType  string `json:"error_type,omitempty" yaml:"error_type,omitempty"`
}

// FinalOutput is the structured output for the entire fetch command.
type FinalOutput struct {
	Status  string         `json:"status" yaml:"status"`
	Results []ResultOutput `json:"results" yaml:"results"`
	Stats   Stats          `json:"stats" yaml:"stats"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	TotalSources     int      `json:"total_sources" yaml:"total_sources"`
	Successful       int      `json:"successful" yaml:"successful"`
	Failed           int      `json:"failed" yaml:"failed"`
	TotalTimeSeconds float64  `json:"total_time_seconds" yaml:"total_time_seconds"`
	TopKeywords      []string `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
}

// Counts returns how many results succeeded and failed.
func Counts(results []Result) (successful, failed int) {
	for i := range results {
		if results[i].Failed() {
			failed++
		} else {
			successful++
		}
	}
	return successful, failed
}

// Documents returns the documents of all results, in order.
func Documents(results []Result) []models.Document {
	docs := make([]models.Document, len(results))
	for i := range results {
		docs[i] = results[i].Document
	}
	return docs
}

// FailedNames maps document names to error text for every failed result.
func FailedNames(results []Result) map[string]string {
	failed := map[string]string{}
	for i := range results {
		if results[i].Failed() {
			failed[results[i].Document.Name] = results[i].Error.Error()
		}
	}
	return failed
}
