package manifest

// RunManifest represents the structure of the run manifest JSON file.
// It gives a lightweight overview of one check run: which documents were
// acquired, how they scored, and which reports were written.
type RunManifest struct {
	RunID             string            `json:"run_id"`
	GeneratedAt       string            `json:"generated_at"`
	Mode              string            `json:"mode"`
	RuleSet           string            `json:"rule_set,omitempty"`
	Embedder          string            `json:"embedder,omitempty"`
	TotalDocuments    int               `json:"total_documents"`
	Successful        int               `json:"successful"`
	Failed            int               `json:"failed"`
	Records           int               `json:"records"`
	Issues            int               `json:"issues"`
	Reports           []string          `json:"reports"`
	AggregateKeywords []string          `json:"aggregate_keywords"`
	Results           []DocumentSummary `json:"results"`
}

// DocumentSummary represents summary information for a single document.
type DocumentSummary struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Status       string   `json:"status"` // "success" or "error"
	Kind         string   `json:"kind,omitempty"`
	Language     string   `json:"language,omitempty"`
	ErrorType    string   `json:"error_type,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	SizeBytes    int64    `json:"size_bytes,omitempty"`
	Paragraphs   int      `json:"paragraphs"`
	Issues       int      `json:"issues"`
	TopKeywords  []string `json:"top_keywords,omitempty"`
}
