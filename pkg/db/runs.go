package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dtnitsch/llm-compliance-monitor/models"
)

// Run represents one evaluation run
type Run struct {
	RunID         string
	CreatedAt     time.Time
	Mode          string
	RuleSet       string
	Embedder      string
	DocumentCount int
	SuccessCount  int
	FailedCount   int
	RecordCount   int
	IssueCount    int
	ReportDir     string
	TopKeywords   string
}

// RunDocument is the fetch outcome of one source within a run
type RunDocument struct {
	URL            string
	Name           string
	Kind           string
	Language       string
	ParagraphCount int
	Status         string
	StatusCode     int
	ErrorType      string
	ErrorMessage   string
	ContentHash    string
	SizeBytes      int64
}

// CreateRun inserts the run header. Counts are filled in by FinishRun.
func (db *DB) CreateRun(runID, mode, ruleSet, embedder, reportDir string, documentCount int) error {
	_, err := db.Exec(`
		INSERT INTO runs (run_id, mode, rule_set, embedder, document_count, report_dir)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, mode, NewNullString(ruleSet), NewNullString(embedder), documentCount, NewNullString(reportDir))
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun updates the outcome counts of a run
func (db *DB) FinishRun(runID string, successCount, failedCount, recordCount, issueCount int, topKeywords string) error {
	_, err := db.Exec(`
		UPDATE runs
		SET success_count = ?, failed_count = ?, record_count = ?, issue_count = ?, top_keywords = ?
		WHERE run_id = ?
	`, successCount, failedCount, recordCount, issueCount, NewNullString(topKeywords), runID)
	if err != nil {
		return fmt.Errorf("failed to update run stats: %w", err)
	}
	return nil
}

// InsertRunDocument records a source's outcome in a run, registering the URL if needed
func (db *DB) InsertRunDocument(runID string, doc RunDocument) error {
	urlID, err := db.InsertURL(doc.URL)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO run_documents (run_id, url_id, name, kind, language, paragraph_count, status,
		                           status_code, error_type, error_message, content_hash, size_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, url_id) DO UPDATE SET
			status = excluded.status,
			paragraph_count = excluded.paragraph_count,
			error_type = excluded.error_type,
			error_message = excluded.error_message
	`, runID, urlID, doc.Name, NewNullString(doc.Kind), NewNullString(doc.Language), doc.ParagraphCount,
		doc.Status, doc.StatusCode, NewNullString(doc.ErrorType), NewNullString(doc.ErrorMessage),
		NewNullString(doc.ContentHash), doc.SizeBytes)
	if err != nil {
		return fmt.Errorf("failed to insert run document: %w", err)
	}
	return nil
}

// InsertRecords stores a run's score table in one transaction
func (db *DB) InsertRecords(runID string, records []models.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare(`
		INSERT INTO run_records (run_id, document, paragraph_id, rule, rule_source, metric, value,
		                         threshold, similarity, label, suggestion, missing_actionable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.Exec(runID, r.Document, r.ParagraphID, r.Rule, NewNullString(r.RuleSource),
			NewNullString(r.Metric), NewNullString(r.Value), r.Threshold, r.Similarity, r.Label(),
			NewNullString(r.Suggestion), r.MissingActionable); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

const runColumns = `run_id, created_at, mode, rule_set, embedder, document_count, success_count,
	failed_count, record_count, issue_count, report_dir, top_keywords`

func scanRun(scan func(...any) error) (*Run, error) {
	var r Run
	var ruleSet, embedder, reportDir, keywords sql.NullString
	if err := scan(&r.RunID, &r.CreatedAt, &r.Mode, &ruleSet, &embedder, &r.DocumentCount,
		&r.SuccessCount, &r.FailedCount, &r.RecordCount, &r.IssueCount, &reportDir, &keywords); err != nil {
		return nil, err
	}
	r.RuleSet = ruleSet.String
	r.Embedder = embedder.String
	r.ReportDir = reportDir.String
	r.TopKeywords = keywords.String
	return &r, nil
}

// GetRun retrieves a run by its ID
func (db *DB) GetRun(runID string) (*Run, error) {
	r, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns retrieves runs ordered by most recent first
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRunDocuments retrieves the per-source outcomes of a run in insertion order
func (db *DB) GetRunDocuments(runID string) ([]RunDocument, error) {
	rows, err := db.Query(`
		SELECT u.original_url, d.name, d.kind, d.language, d.paragraph_count, d.status, d.status_code,
		       d.error_type, d.error_message, d.content_hash, d.size_bytes
		FROM run_documents d
		JOIN urls u ON d.url_id = u.url_id
		WHERE d.run_id = ?
		ORDER BY d.id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run documents: %w", err)
	}
	defer rows.Close()

	var docs []RunDocument
	for rows.Next() {
		var d RunDocument
		var kind, lang, errType, errMsg, hash sql.NullString
		var statusCode, size sql.NullInt64
		if err := rows.Scan(&d.URL, &d.Name, &kind, &lang, &d.ParagraphCount, &d.Status, &statusCode,
			&errType, &errMsg, &hash, &size); err != nil {
			return nil, fmt.Errorf("failed to scan run document: %w", err)
		}
		d.Kind, d.Language, d.ErrorType, d.ErrorMessage, d.ContentHash = kind.String, lang.String, errType.String, errMsg.String, hash.String
		d.StatusCode, d.SizeBytes = int(statusCode.Int64), size.Int64
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetRunRecords retrieves the score table of a run. With issuesOnly, only
// records below their threshold are returned.
func (db *DB) GetRunRecords(runID string, issuesOnly bool) ([]models.ScoreRecord, error) {
	query := `
		SELECT document, paragraph_id, rule, rule_source, metric, value, threshold, similarity,
		       label, suggestion, missing_actionable
		FROM run_records
		WHERE run_id = ?`
	if issuesOnly {
		query += ` AND missing_actionable = 1`
	}
	query += ` ORDER BY record_id`

	rows, err := db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run records: %w", err)
	}
	defer rows.Close()

	var records []models.ScoreRecord
	for rows.Next() {
		r := models.ScoreRecord{RunID: runID}
		var paragraphID sql.NullInt64
		var source, metric, value, suggestion sql.NullString
		var label string
		if err := rows.Scan(&r.Document, &paragraphID, &r.Rule, &source, &metric, &value, &r.Threshold,
			&r.Similarity, &label, &suggestion, &r.MissingActionable); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.ParagraphID = int(paragraphID.Int64)
		r.RuleSource, r.Metric, r.Value, r.Suggestion = source.String, metric.String, value.String, suggestion.String
		switch models.RiskLevel(label) {
		case models.RiskHigh, models.RiskMedium, models.RiskLow:
			r.Risk = models.RiskLevel(label)
		default:
			r.Compliance = models.Compliance(label)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteRunsBefore removes runs older than cutoff along with their documents and records
func (db *DB) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return res.RowsAffected()
}
