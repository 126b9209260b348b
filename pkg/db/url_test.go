package db

import (
	"testing"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database := &DB{path: ":memory:"}
	var err error
	database.DB, err = openDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func TestInsertURL(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name: "regulator page",
			url:  "https://www.sec.gov/privacy",
		},
		{
			name: "bank page with path",
			url:  "https://www.bankofamerica.com/security-center/online-banking-security/",
		},
		{
			name: "URL with query params",
			url:  "https://www.consumerfinance.gov/search?q=privacy&lang=en",
		},
		{
			name: "local file source",
			url:  "testdata/policy.txt",
		},
		{
			name: "duplicate URL returns same ID",
			url:  "https://www.sec.gov/privacy",
		},
	}

	var firstID int64
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urlID, err := db.InsertURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if urlID == 0 && !tt.wantErr {
				t.Error("InsertURL() returned 0 ID")
			}

			if i == 0 {
				firstID = urlID
			}
			if i == len(tests)-1 && urlID != firstID {
				t.Errorf("Duplicate URL got different ID: got %d, want %d", urlID, firstID)
			}
		})
	}
}

func TestInsertURL_ParsesComponents(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	testURL := "https://www.occ.gov/topics/consumers-and-communities/consumer-protection/index-consumer-protection.html?v=2#privacy"
	urlID, err := db.InsertURL(testURL)
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	var scheme, domain, path, fragment string
	err = db.QueryRow(`
		SELECT scheme, domain, path, fragment
		FROM urls WHERE url_id = ?
	`, urlID).Scan(&scheme, &domain, &path, &fragment)
	if err != nil {
		t.Fatalf("failed to query URL: %v", err)
	}

	if scheme != "https" {
		t.Errorf("scheme = %q, want %q", scheme, "https")
	}
	if domain != "www.occ.gov" {
		t.Errorf("domain = %q, want %q", domain, "www.occ.gov")
	}
	if path != "/topics/consumers-and-communities/consumer-protection/index-consumer-protection.html" {
		t.Errorf("path = %q", path)
	}
	if fragment != "privacy" {
		t.Errorf("fragment = %q, want %q", fragment, "privacy")
	}
}

func TestInsertURL_LocalFile(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, err := db.InsertURL("docs/policy.txt")
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	var scheme, path string
	if err := db.QueryRow("SELECT scheme, path FROM urls WHERE url_id = ?", urlID).Scan(&scheme, &path); err != nil {
		t.Fatalf("failed to query URL: %v", err)
	}
	if scheme != "file" || path != "docs/policy.txt" {
		t.Errorf("got scheme=%q path=%q, want file docs/policy.txt", scheme, path)
	}
}

func TestInsertURL_QueryParams(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, err := db.InsertURL("https://example.com/search?q=privacy&lang=en&limit=10")
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	rows, err := db.Query("SELECT key, value FROM url_query_params WHERE url_id = ? ORDER BY key", urlID)
	if err != nil {
		t.Fatalf("failed to query params: %v", err)
	}
	defer rows.Close()

	expected := map[string]string{
		"lang":  "en",
		"limit": "10",
		"q":     "privacy",
	}

	got := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			t.Fatalf("failed to scan row: %v", err)
		}
		got[key] = value
	}

	if len(got) != len(expected) {
		t.Errorf("param count = %d, want %d", len(got), len(expected))
	}
	for k, v := range expected {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestGetURLID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	testURL := "https://www.sec.gov/privacy"
	wantID, err := db.InsertURL(testURL)
	if err != nil {
		t.Fatalf("InsertURL() failed: %v", err)
	}

	gotID, err := db.GetURLID(testURL)
	if err != nil {
		t.Fatalf("GetURLID() error = %v", err)
	}
	if gotID != wantID {
		t.Errorf("GetURLID() = %d, want %d", gotID, wantID)
	}

	if _, err := db.GetURLID("https://nonexistent.example"); err == nil {
		t.Error("GetURLID() with non-existent URL should return error")
	}
}

func TestUpdateURLClassification(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	urlID, _ := db.InsertURL("https://www.sec.gov/privacy")

	if err := db.UpdateURLClassification(urlID, "Legal", "en", `{"privacy":4}`); err != nil {
		t.Fatalf("UpdateURLClassification() failed: %v", err)
	}
	// An empty keyword set keeps the previous one
	if err := db.UpdateURLClassification(urlID, "Legal", "en", ""); err != nil {
		t.Fatalf("UpdateURLClassification() failed: %v", err)
	}

	info, err := db.GetURLInfo(urlID)
	if err != nil {
		t.Fatalf("GetURLInfo() failed: %v", err)
	}
	if info.Kind.String != "Legal" {
		t.Errorf("kind = %q, want Legal", info.Kind.String)
	}
	if info.Language.String != "en" {
		t.Errorf("language = %q, want en", info.Language.String)
	}
	if info.TopKeywords.String != `{"privacy":4}` {
		t.Errorf("top_keywords = %q", info.TopKeywords.String)
	}
	if info.Domain != "www.sec.gov" {
		t.Errorf("domain = %q", info.Domain)
	}
}
