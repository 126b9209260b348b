package db

import (
	"testing"
	"time"

	dbpkg "github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *dbpkg.DB {
	t.Helper()
	database, err := dbpkg.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestResolveRunID(t *testing.T) {
	database := setupTestDB(t)
	for _, id := range []string{"3f1c9a20-aaaa", "3f1d0000-bbbb", "7e2b1111-cccc"} {
		require.NoError(t, database.CreateRun(id, "paragraph", "legal", "hashing/384", "reports", 3))
	}

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr string
	}{
		{name: "exact", arg: "7e2b1111-cccc", want: "7e2b1111-cccc"},
		{name: "unique prefix", arg: "7e2b", want: "7e2b1111-cccc"},
		{name: "ambiguous prefix", arg: "3f1", wantErr: "ambiguous"},
		{name: "unknown", arg: "ffff", wantErr: "not found"},
		{name: "empty", arg: "  ", wantErr: "empty run ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRunID(tt.arg, database)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"privacy:7", "banking:4"}, Keywords(`{"banking":4,"privacy":7,"data":1}`, 2))
	assert.Nil(t, Keywords("", 10))
	assert.Nil(t, Keywords("not json", 10))
}

func TestRunRows(t *testing.T) {
	runs := []dbpkg.Run{{
		RunID: "3f1c9a20-aaaa-bbbb", CreatedAt: time.Now().Add(-2 * time.Hour), Mode: "attribute", RuleSet: "us-data",
		DocumentCount: 2, SuccessCount: 1, FailedCount: 1, RecordCount: 1200, IssueCount: 3,
	}}
	rows := RunRows(runs)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(RunHeaders))
	assert.Equal(t, "3f1c9a20", rows[0][0])
	assert.Equal(t, "2 hours ago", rows[0][1])
	assert.Equal(t, "1,200", rows[0][7])
}

func TestDocumentRows(t *testing.T) {
	rows := DocumentRows([]dbpkg.RunDocument{
		{Name: "home", URL: "https://bank.example/", Status: "success", ParagraphCount: 4, SizeBytes: 1500},
		{Name: "about", URL: "https://bank.example/about", Status: "failed", ErrorType: "fetch_error", ErrorMessage: "timeout"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "1.5 kB", rows[0][5])
	assert.Equal(t, "failed [fetch_error] timeout", rows[1][6])
}
