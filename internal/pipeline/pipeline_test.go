package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/llm-compliance-monitor/internal/fetch"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/manifest"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/probe"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/report"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/rules"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankPage = `<html><head><title>Bank</title></head><body>
<p>We protect your privacy and never share customer data without your consent.</p>
<p>Online banking lets you pay bills and transfer money securely from the United States.</p>
</body></html>`

const regulatorPage = `<html><body>
<p>Banks must encrypt customer data at rest. Branch hours vary by location.</p>
<p>Access to account records is limited to authorized staff.</p>
</body></html>`

type stubChecker struct{}

func (stubChecker) Check(ctx context.Context, rawURL string) *probe.Result {
	return &probe.Result{IP: "127.0.0.1", TLSVersion: "TLSv1.3", Region: "US", HTTPSOK: true, TLSOK: true, RegionOK: true}
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/bank", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, bankPage)
	})
	mux.HandleFunc("/regulator", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, regulatorPage)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.Fetch.WorkerCount = 1
	cfg.Fetch.MaxAge = 0
	cfg.Embedder = models.EmbedderConfig{Provider: "hashing", Dim: 128, CacheSize: 64}
	cfg.Output.Dir = filepath.Join(t.TempDir(), "reports")
	cfg.Probe.GeoIPDB = filepath.Join(t.TempDir(), "missing.mmdb")
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveRules(t *testing.T) {
	cfg := models.DefaultConfig()

	rs, name, err := ResolveRules(cfg, models.EvalParagraph, "")
	require.NoError(t, err)
	assert.Equal(t, rules.SetLegal, name)
	assert.Len(t, rs, 4)

	_, name, err = ResolveRules(cfg, models.EvalAttribute, "eu-contract")
	require.NoError(t, err)
	assert.Equal(t, rules.SetEUContract, name)

	cfg.Rules = []models.Rule{{Text: "Data must be encrypted at rest"}}
	rs, name, err = ResolveRules(cfg, models.EvalSite, "")
	require.NoError(t, err)
	assert.Equal(t, ConfigRuleSet, name)
	assert.Equal(t, cfg.Rules, rs)

	_, _, err = ResolveRules(cfg, models.EvalSite, "nope")
	assert.Error(t, err)

	rs, name, err = ResolveRules(cfg, models.EvalSite, "Extracted")
	require.NoError(t, err)
	assert.Equal(t, rules.SetExtracted, name)
	assert.Empty(t, rs, "extracted rules are scraped at run time")
}

func TestRunSiteModeWithExtractedRules(t *testing.T) {
	srv := testServer(t)
	cfg := testConfig(t)
	cfg.RuleSources = []models.Source{
		{Name: "Regulator", URL: srv.URL + "/regulator"},
		{Name: "Retired", URL: srv.URL + "/gone"},
	}

	p, err := New(cfg, models.EvalSite, rules.SetExtracted, nil, testLogger())
	require.NoError(t, err)
	defer p.Close()
	p.Evaluator.Checker = stubChecker{}

	out, err := p.Run(context.Background(), "run-extracted", []models.Source{{Name: "bank", URL: srv.URL + "/bank"}})
	require.NoError(t, err)

	assert.Equal(t, []models.Rule{
		{Text: "Banks must encrypt customer data at rest", Source: "Regulator"},
		{Text: "Access to account records is limited to authorized staff", Source: "Regulator"},
	}, p.Rules)
	require.Len(t, out.Report.Sites, 1)
	assert.Equal(t, "Regulator", out.Report.Sites[0].RuleSource)
	assert.Contains(t, []string{p.Rules[0].Text, p.Rules[1].Text}, out.Report.Sites[0].MatchedRule)
}

func TestRunFailsWhenNoRulesExtracted(t *testing.T) {
	srv := testServer(t)
	cfg := testConfig(t)
	cfg.RuleSources = []models.Source{{Name: "Retired", URL: srv.URL + "/gone"}}

	p, err := New(cfg, models.EvalSite, rules.SetExtracted, nil, testLogger())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Run(context.Background(), "run-empty", []models.Source{{Name: "bank", URL: srv.URL + "/bank"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rules extracted")
}

func TestRunParagraphMode(t *testing.T) {
	srv := testServer(t)
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	defer database.Close()

	cfg := testConfig(t)
	p, err := New(cfg, models.EvalParagraph, "", database, testLogger())
	require.NoError(t, err)
	defer p.Close()

	sources := []models.Source{
		{Name: "bank", URL: srv.URL + "/bank"},
		{Name: "gone", URL: srv.URL + "/gone"},
	}
	out, err := p.Run(context.Background(), "run-1", sources)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Successful)
	assert.Equal(t, 1, out.Failed)
	require.NotNil(t, out.Report)
	assert.Equal(t, "run-1", out.Report.RunID)
	assert.Len(t, out.Report.Records, 2*4, "two paragraphs times four legal rules")
	assert.Contains(t, out.Report.Failed, "gone")

	issues := 0
	for _, rec := range out.Report.Records {
		assert.Equal(t, "bank", rec.Document)
		assert.NotEmpty(t, rec.Risk)
		assert.Equal(t, rec.MissingActionable, rec.Suggestion != "")
		if rec.MissingActionable {
			issues++
		}
	}
	assert.Equal(t, issues, out.Issues)

	run, err := database.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, rules.SetLegal, run.RuleSet)
	assert.Equal(t, "hashing/128", run.Embedder)
	assert.Equal(t, 1, run.SuccessCount)
	assert.Equal(t, 1, run.FailedCount)
	assert.Equal(t, 8, run.RecordCount)
	assert.Equal(t, issues, run.IssueCount)

	stored, err := database.GetRunRecords("run-1", false)
	require.NoError(t, err)
	assert.Len(t, stored, 8)

	docs, err := database.GetRunDocuments("run-1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	path, err := p.WriteManifest(out, []string{"reports/compliance_report.csv"})
	require.NoError(t, err)
	m, err := manifest.Load(path, &storage.Storage{})
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalDocuments)
	assert.Equal(t, issues, m.Issues)
	assert.Equal(t, 8, m.Records)
}

func TestRunEmbeddingsAreCachedAcrossRuns(t *testing.T) {
	srv := testServer(t)
	database, err := db.Open(":memory:")
	require.NoError(t, err)
	defer database.Close()

	cfg := testConfig(t)
	sources := []models.Source{{Name: "bank", URL: srv.URL + "/bank"}}

	first, err := New(cfg, models.EvalParagraph, "", database, testLogger())
	require.NoError(t, err)
	_, err = first.Run(context.Background(), "run-a", sources)
	require.NoError(t, err)
	assert.Positive(t, first.Embedder.Stats().Computed)

	second, err := New(cfg, models.EvalParagraph, "", database, testLogger())
	require.NoError(t, err)
	_, err = second.Run(context.Background(), "run-b", sources)
	require.NoError(t, err)
	assert.Zero(t, second.Embedder.Stats().Computed, "vectors come from the database on the second run")
	assert.Positive(t, second.Embedder.Stats().StoreHits)
}

func TestRunAttributeModeWithoutDatabase(t *testing.T) {
	srv := testServer(t)
	cfg := testConfig(t)
	p, err := New(cfg, models.EvalAttribute, "", nil, testLogger())
	require.NoError(t, err)

	out, err := p.Run(context.Background(), "run-attr", []models.Source{{Name: "bank", URL: srv.URL + "/bank"}})
	require.NoError(t, err)
	require.Len(t, out.Report.Apps, 1)
	assert.Equal(t, "bank", out.Report.Apps[0].AppName)
	assert.Len(t, out.Report.Records, 4, "one record per us-data metric")
}

func TestSiteModeWithoutGeoIP(t *testing.T) {
	cfg := testConfig(t)
	p, err := New(cfg, models.EvalSite, "", nil, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, p.Evaluator.Checker)
	assert.NoError(t, p.Close())
}

func TestIssues(t *testing.T) {
	r := &report.Report{
		Records: []models.ScoreRecord{{MissingActionable: true}, {}, {MissingActionable: true}},
		Sites:   []models.SiteResult{{OverallCompliant: false}, {OverallCompliant: true}},
	}
	assert.Equal(t, 3, Issues(r))
}

func TestDocumentResultsCountsIssuesPerDocument(t *testing.T) {
	out := &Outcome{
		Report: &report.Report{
			Records: []models.ScoreRecord{{Document: "bank", MissingActionable: true}, {Document: "bank"}},
			Sites:   []models.SiteResult{{URL: "https://bank.example/", OverallCompliant: false}},
		},
	}
	out.Results = append(out.Results, fetchResult("bank", "https://bank.example/"), fetchResult("https://other.example/", "https://other.example/"))

	docs := DocumentResults(out)
	require.Len(t, docs, 2)
	assert.Equal(t, 2, docs[0].Issues)
	assert.Equal(t, 0, docs[1].Issues)
}

func fetchResult(name, url string) fetch.Result {
	return fetch.Result{
		Source:   models.Source{Name: name, URL: url},
		Document: models.Document{Name: name, Source: url},
	}
}
