package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dtnitsch/llm-compliance-monitor/pkg/mapreduce"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/storage"
)

// DocumentResult is the outcome of acquiring and scoring one document.
// Callers convert their own result types into it to keep this package free of
// the CLI's internals.
type DocumentResult struct {
	Name       string
	URL        string
	Kind       string
	Language   string
	Paragraphs int
	Issues     int
	Error      error
	ErrorType  string
	WordCounts map[string]int
	SizeBytes  int64
}

// Run describes the run a manifest belongs to.
type Run struct {
	RunID    string
	Mode     string
	RuleSet  string
	Embedder string
	Records  int
	Reports  []string
}

// Path returns where the manifest of runID is stored under dir.
func Path(dir, runID string) string {
	return filepath.Join(dir, fmt.Sprintf("manifest-%s.json", runID))
}

// Build assembles the manifest without writing it.
func Build(run Run, results []DocumentResult, aggregateKeywords map[string]int) *RunManifest {
	m := &RunManifest{
		RunID:             run.RunID,
		GeneratedAt:       time.Now().Format(time.RFC3339),
		Mode:              run.Mode,
		RuleSet:           run.RuleSet,
		Embedder:          run.Embedder,
		TotalDocuments:    len(results),
		Records:           run.Records,
		Reports:           append([]string{}, run.Reports...),
		AggregateKeywords: mapreduce.TopKeywords(aggregateKeywords, 25),
		Results:           []DocumentSummary{},
	}

	for _, result := range results {
		summary := DocumentSummary{
			Name:       result.Name,
			URL:        result.URL,
			Kind:       result.Kind,
			Language:   result.Language,
			Paragraphs: result.Paragraphs,
			SizeBytes:  result.SizeBytes,
		}

		if result.Error != nil {
			m.Failed++
			summary.Status = "error"
			summary.ErrorType = result.ErrorType
			summary.ErrorMessage = result.Error.Error()
		} else {
			m.Successful++
			summary.Status = "success"
			summary.Issues = result.Issues
			m.Issues += result.Issues
			if result.WordCounts != nil {
				summary.TopKeywords = mapreduce.TopKeywords(result.WordCounts, 10)
			}
		}

		m.Results = append(m.Results, summary)
	}
	return m
}

// Generate builds the manifest and saves it under dir through s.
// Returns the path to the generated manifest file and any error.
func Generate(dir string, run Run, results []DocumentResult, aggregateKeywords map[string]int, s *storage.Storage) (string, error) {
	m := Build(run, results, aggregateKeywords)

	manifestPath := Path(dir, run.RunID)
	manifestData, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshalling manifest: %w", err)
	}

	if err := s.SaveFile(manifestPath, manifestData); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}

	return manifestPath, nil
}

// Load reads a manifest written by Generate.
func Load(path string, s *storage.Storage) (*RunManifest, error) {
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing manifest %s: %w", path, err)
	}
	return &m, nil
}
