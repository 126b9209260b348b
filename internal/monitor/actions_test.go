package monitor

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/llm-compliance-monitor/internal/pipeline"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passingChecker struct{}

func (passingChecker) Check(ctx context.Context, rawURL string) *probe.Result {
	return &probe.Result{IP: "127.0.0.1", TLSVersion: "TLSv1.3", Region: "US", HTTPSOK: true, TLSOK: true, RegionOK: true}
}

func TestScanFunc(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html><body><p>Your data is stored securely within the United States.</p></body></html>`)
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := models.DefaultConfig()
	cfg.Fetch.MaxAge = 0
	cfg.Embedder = models.EmbedderConfig{Provider: "hashing", Dim: 64}
	cfg.Probe.GeoIPDB = filepath.Join(t.TempDir(), "missing.mmdb")

	p, err := pipeline.New(cfg, models.EvalSite, "", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	p.Evaluator.Checker = passingChecker{}

	sources := []models.Source{
		{Name: "home", URL: srv.URL + "/home"},
		{Name: "down", URL: srv.URL + "/down"},
	}
	scan, err := ScanFunc(p, sources)(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, scan.Sites, 1)
	assert.Equal(t, srv.URL+"/home", scan.Sites[0].URL)
	assert.True(t, scan.Sites[0].OverallCompliant)
	assert.Equal(t, "Compliant", scan.Sites[0].Suggestion)

	require.Contains(t, scan.Failed, srv.URL+"/down")
	assert.Contains(t, scan.Failed[srv.URL+"/down"], "503")
}
