package pipeline

import (
	"github.com/dtnitsch/llm-compliance-monitor/pkg/embeddings"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/manifest"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/storage"
)

// WriteManifest records the outcome as manifest-<run_id>.json in the output directory.
func (p *Pipeline) WriteManifest(out *Outcome, reports []string) (string, error) {
	run := manifest.Run{
		RunID:    out.RunID,
		Mode:     string(p.Mode),
		RuleSet:  p.RuleSet,
		Embedder: embeddings.ModelKey(p.Config.Embedder),
		Reports:  reports,
	}
	if out.Report != nil {
		run.Records = len(out.Report.Records)
	}
	return manifest.Generate(p.Config.Output.Dir, run, DocumentResults(out), out.Keywords, &storage.Storage{})
}

// DocumentResults flattens fetch results for the manifest, counting the issues
// attributed to each document.
func DocumentResults(out *Outcome) []manifest.DocumentResult {
	byDoc := map[string]int{}
	if out.Report != nil {
		for _, rec := range out.Report.Records {
			if rec.MissingActionable {
				byDoc[rec.Document]++
			}
		}
		for _, s := range out.Report.Sites {
			if !s.OverallCompliant {
				byDoc[s.URL]++
			}
		}
	}

	docs := make([]manifest.DocumentResult, 0, len(out.Results))
	for _, r := range out.Results {
		issues := byDoc[r.Document.Name]
		if r.Source.URL != r.Document.Name {
			issues += byDoc[r.Source.URL]
		}
		docs = append(docs, manifest.DocumentResult{
			Name:       r.Document.Name,
			URL:        r.Source.URL,
			Kind:       string(r.Document.Kind),
			Language:   r.Document.Language,
			Paragraphs: len(r.Document.Paragraphs),
			Issues:     issues,
			Error:      r.Error,
			ErrorType:  r.ErrorType,
			WordCounts: r.WordCounts,
			SizeBytes:  r.SizeBytes,
		})
	}
	return docs
}
