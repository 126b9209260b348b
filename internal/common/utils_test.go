package common

import (
	"bytes"
	"testing"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  https://www.sec.gov/privacy  ", "https://www.sec.gov/privacy"},
		{"https://www.sec.gov/privacy,", "https://www.sec.gov/privacy"},
		{"[SEC](https://www.sec.gov/privacy)", "https://www.sec.gov/privacy"},
		{"<https://www.occ.gov/>", "https://www.occ.gov/"},
		{"(https://www.nist.gov)", "https://www.nist.gov"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeURL(tt.in), tt.in)
	}
}

func TestValidURL(t *testing.T) {
	assert.True(t, ValidURL("https://www.bankofamerica.com/privacy/"))
	assert.True(t, ValidURL("http://127.0.0.1:8080/terms"))
	assert.False(t, ValidURL("https://bad host.com"))
	assert.False(t, ValidURL("ftp://example.com"))
	assert.False(t, ValidURL("https://"))
	assert.False(t, ValidURL(""))
}

func TestSanitizeSources(t *testing.T) {
	in := []models.Source{
		{Name: "SEC", URL: " https://www.sec.gov/privacy, "},
		{URL: "testdata/policy.txt"},
		{Name: "broken", URL: "https://exa mple.com"},
		{Name: "empty", URL: "  "},
	}
	got, invalid := SanitizeSources(in)

	assert.Equal(t, []models.Source{
		{Name: "SEC", URL: "https://www.sec.gov/privacy"},
		{Name: "testdata/policy.txt", URL: "testdata/policy.txt"},
	}, got)
	assert.Equal(t, []string{"https://exa mple.com", "  "}, invalid)
}

func TestSourcesFromList(t *testing.T) {
	got := SourcesFromList([]string{"SEC=https://www.sec.gov/privacy, https://www.occ.gov/?a=b", "notes.txt"})
	assert.Equal(t, []models.Source{
		{Name: "SEC", URL: "https://www.sec.gov/privacy"},
		{URL: "https://www.occ.gov/?a=b"},
		{URL: "notes.txt"},
	}, got)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true, false, "json")
	logger.Warn("dropped")
	logger.Error("kept", "url", "https://www.sec.gov")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"url":"https://www.sec.gov"`)

	buf.Reset()
	NewLogger(&buf, false, true, "text").Debug("trace", "worker_id", 1)
	assert.Contains(t, buf.String(), "worker_id=1")
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHash(nil))
}
