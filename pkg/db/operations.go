package db

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// InsertURL parses and inserts a URL, returning the url_id.
// If the URL already exists, returns the existing url_id.
// Local file sources are stored with scheme "file".
func (db *DB) InsertURL(rawURL string) (int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" {
		parsed = &url.URL{Scheme: "file", Path: rawURL}
	}

	// Check if URL already exists
	var existingID int64
	err = db.QueryRow("SELECT url_id FROM urls WHERE original_url = ?", rawURL).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing URL: %w", err)
	}

	// Extract canonical URL (scheme + host + path, no query/fragment)
	canonicalURL := fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)

	result, err := db.Exec(`
		INSERT INTO urls (original_url, canonical_url, scheme, domain, path, fragment)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rawURL, canonicalURL, parsed.Scheme, parsed.Host, parsed.Path, parsed.Fragment)
	if err != nil {
		return 0, fmt.Errorf("failed to insert URL: %w", err)
	}

	urlID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}

	if parsed.RawQuery != "" {
		params, err := url.ParseQuery(parsed.RawQuery)
		if err == nil {
			for key, values := range params {
				for _, value := range values {
					_, err = db.Exec(`
						INSERT INTO url_query_params (url_id, key, value)
						VALUES (?, ?, ?)
					`, urlID, key, value)
					if err != nil {
						return 0, fmt.Errorf("failed to insert query param: %w", err)
					}
				}
			}
		}
	}

	return urlID, nil
}

// RecordAccess records a fetch attempt in url_accesses.
func (db *DB) RecordAccess(urlID int64, statusCode int, errorType string, success bool) error {
	_, err := db.Exec(`
		INSERT INTO url_accesses (url_id, status_code, error_type, success)
		VALUES (?, ?, ?, ?)
	`, urlID, statusCode, errorType, success)
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

// GetLastAccess returns the most recent access record for a URL.
func (db *DB) GetLastAccess(urlID int64) (*AccessRecord, error) {
	var record AccessRecord
	err := db.QueryRow(`
		SELECT access_id, accessed_at, status_code, error_type, success
		FROM url_accesses
		WHERE url_id = ?
		ORDER BY accessed_at DESC, access_id DESC
		LIMIT 1
	`, urlID).Scan(&record.AccessID, &record.AccessedAt, &record.StatusCode, &record.ErrorType, &record.Success)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last access: %w", err)
	}
	return &record, nil
}

// AccessRecord represents a URL access attempt.
type AccessRecord struct {
	AccessID   int64
	AccessedAt time.Time
	StatusCode int
	ErrorType  string
	Success    bool
}

// GetURLID returns the url_id for a given original URL.
func (db *DB) GetURLID(originalURL string) (int64, error) {
	var urlID int64
	err := db.QueryRow("SELECT url_id FROM urls WHERE original_url = ?", originalURL).Scan(&urlID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("URL not found: %s", originalURL)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get URL ID: %w", err)
	}
	return urlID, nil
}

// URLInfo represents basic URL information.
type URLInfo struct {
	URLID        int64
	OriginalURL  string
	CanonicalURL sql.NullString
	Domain       string
	Kind         sql.NullString
	Language     sql.NullString
	TopKeywords  sql.NullString // JSON object
}

// UpdateURLClassification stores the detected kind, language and top keywords of a URL.
func (db *DB) UpdateURLClassification(urlID int64, kind, language, topKeywords string) error {
	_, err := db.Exec(`
		UPDATE urls SET
			kind = ?,
			language = ?,
			top_keywords = COALESCE(?, top_keywords),
			updated_at = CURRENT_TIMESTAMP
		WHERE url_id = ?
	`, NewNullString(kind), NewNullString(language), NewNullString(topKeywords), urlID)
	if err != nil {
		return fmt.Errorf("failed to update url classification: %w", err)
	}
	return nil
}

// GetURLInfo retrieves a URL and its classification.
func (db *DB) GetURLInfo(urlID int64) (*URLInfo, error) {
	var info URLInfo
	err := db.QueryRow(`
		SELECT url_id, original_url, canonical_url, domain, kind, language, top_keywords
		FROM urls
		WHERE url_id = ?
	`, urlID).Scan(&info.URLID, &info.OriginalURL, &info.CanonicalURL, &info.Domain,
		&info.Kind, &info.Language, &info.TopKeywords)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("URL not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get url info: %w", err)
	}
	return &info, nil
}

// NewNullString creates a sql.NullString from a string value.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
