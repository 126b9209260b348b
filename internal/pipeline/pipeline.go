// Package pipeline wires a configuration into the fetch pool and evaluator
// shared by the check, monitor and search commands.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dtnitsch/llm-compliance-monitor/internal/fetch"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/classify"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/embeddings"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/evaluator"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/fetcher"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/mapreduce"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/probe"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/report"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/rules"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/summarizer"
)

// ReportTitle heads every rendered report.
const ReportTitle = "Compliance Monitoring Report"

// ConfigRuleSet names the rule set when rules come from the config file.
const ConfigRuleSet = "config"

// Pipeline is one configured fetch-and-evaluate chain.
type Pipeline struct {
	Config    *models.Config
	Mode      models.EvalMode
	Rules     []models.Rule
	RuleSet   string
	DB        *db.DB
	Pool      *fetch.Pool
	Evaluator *evaluator.Evaluator
	Embedder  *embeddings.Cached
	Logger    *slog.Logger

	geo       *probe.GeoIP
	extractor *rules.Extractor
}

// Outcome is the result of one Run.
type Outcome struct {
	RunID      string
	Results    []fetch.Result
	Keywords   map[string]int
	Report     *report.Report
	Successful int
	Failed     int
	Issues     int
	Elapsed    time.Duration
}

// ResolveRules picks the named built-in set when ruleSet is given, else the
// configured rules, else the default set for mode. The extracted set has no
// rules until RefreshRules scrapes them.
func ResolveRules(cfg *models.Config, mode models.EvalMode, ruleSet string) ([]models.Rule, string, error) {
	if strings.EqualFold(strings.TrimSpace(ruleSet), rules.SetExtracted) {
		return nil, rules.SetExtracted, nil
	}
	if ruleSet != "" {
		rs, err := rules.Set(ruleSet)
		if err != nil {
			return nil, "", err
		}
		return rs, ruleSet, nil
	}
	if len(cfg.Rules) > 0 {
		return rules.Resolve(cfg, mode), ConfigRuleSet, nil
	}
	return rules.Resolve(cfg, mode), rules.DefaultSetFor(mode), nil
}

// New builds the pipeline. database may be nil, in which case nothing is persisted
// and embeddings are cached in memory only.
func New(cfg *models.Config, mode models.EvalMode, ruleSet string, database *db.DB, logger *slog.Logger) (*Pipeline, error) {
	rs, setName, err := ResolveRules(cfg, mode, ruleSet)
	if err != nil {
		return nil, err
	}

	pool, err := fetch.NewPool(cfg, database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fetch pool: %w", err)
	}

	base, err := embeddings.New(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	var store embeddings.Store
	if database != nil {
		store = database
	}
	cached := embeddings.NewCached(base, embeddings.ModelKey(cfg.Embedder), cfg.Embedder.CacheSize, store)

	ev := evaluator.New(cached, logger)
	ev.Classifier = classify.New(cfg.Thresholds.Default, cfg.Thresholds.HighGap)
	ev.Applications = cfg.Applications
	if cfg.Thresholds.PageText > 0 {
		ev.PageTextChars = cfg.Thresholds.PageText
	}
	sum, err := summarizer.New(cfg.Summarizer, logger)
	if err != nil {
		return nil, err
	}
	ev.Summarizer = sum

	p := &Pipeline{
		Config:    cfg,
		Mode:      mode,
		Rules:     rs,
		RuleSet:   setName,
		DB:        database,
		Pool:      pool,
		Evaluator: ev,
		Embedder:  cached,
		Logger:    logger,
	}

	if setName == rules.SetExtracted {
		p.extractor = &rules.Extractor{
			Getter: fetcher.NewFetcher(
				fetcher.WithUserAgent(cfg.Fetch.UserAgent),
				fetcher.WithTimeout(cfg.Fetch.Timeout),
			),
			Keywords: cfg.RuleKeywords,
			MaxRules: cfg.MaxExtractRules,
			Logger:   logger,
		}
	}

	if mode == models.EvalSite {
		prober := &probe.Prober{Timeout: cfg.Probe.Timeout, ExpectedRegion: cfg.Probe.ExpectedRegion}
		if geo, err := probe.OpenGeoIP(cfg.Probe.GeoIPDB); err != nil {
			logger.Warn("GeoIP database unavailable, region checks will fail", "path", cfg.Probe.GeoIPDB, "error", err)
		} else {
			prober.Locator = geo
			p.geo = geo
		}
		ev.Checker = prober
	}
	return p, nil
}

// Close releases the GeoIP reader. The database belongs to the caller.
func (p *Pipeline) Close() error {
	if p.geo != nil {
		return p.geo.Close()
	}
	return nil
}

// RuleSources returns the regulator pages the extracted rule set is scraped from.
func RuleSources(cfg *models.Config) []models.Source {
	if len(cfg.RuleSources) > 0 {
		return cfg.RuleSources
	}
	return rules.DefaultRuleSources()
}

// RefreshRules re-scrapes the rule sources when the pipeline uses the extracted
// rule set. Other rule sets are left untouched. It fails only when no rule at all
// could be extracted.
func (p *Pipeline) RefreshRules(ctx context.Context) error {
	if p.extractor == nil {
		return nil
	}
	sources := RuleSources(p.Config)
	rs, failed := p.extractor.Extract(ctx, sources)
	for _, f := range failed {
		p.Logger.Warn("Rule source unavailable", "source", f.Source, "url", f.URL, "error", f.Err)
	}
	if len(rs) == 0 {
		return fmt.Errorf("no rules extracted from %d rule source(s)", len(sources))
	}
	if p.Mode == models.EvalAttribute {
		p.Logger.Warn("Extracted rules carry no metric and are skipped in attribute mode", "rules", len(rs))
	}
	p.Rules = rs
	return nil
}

// Acquire fetches and parses every source.
func (p *Pipeline) Acquire(ctx context.Context, sources []models.Source) ([]fetch.Result, map[string]int) {
	return p.Pool.Run(ctx, sources)
}

// Evaluate scores the acquired documents in the pipeline's mode.
func (p *Pipeline) Evaluate(ctx context.Context, results []fetch.Result) (*report.Report, error) {
	docs := fetch.Documents(results)
	r := &report.Report{
		Title:  ReportTitle,
		Mode:   string(p.Mode),
		Failed: fetch.FailedNames(results),
	}

	var err error
	switch p.Mode {
	case models.EvalAttribute:
		r.Records, r.Apps, err = p.Evaluator.Attributes(ctx, docs, p.Rules)
	case models.EvalSite:
		r.Sites, err = p.Evaluator.Sites(ctx, docs, p.Rules)
	default:
		r.Records, err = p.Evaluator.Paragraphs(ctx, docs, p.Rules)
	}
	if err != nil {
		return r, fmt.Errorf("%s evaluation failed: %w", p.Mode, err)
	}
	if r.Records == nil {
		r.Records = []models.ScoreRecord{}
	}
	return r, nil
}

// Run acquires and evaluates sources as one recorded run. A nil DB skips the history.
func (p *Pipeline) Run(ctx context.Context, runID string, sources []models.Source) (*Outcome, error) {
	start := time.Now()
	logger := p.Logger.With("run_id", runID)

	if err := p.RefreshRules(ctx); err != nil {
		return nil, err
	}

	if p.DB != nil {
		if err := p.DB.CreateRun(runID, string(p.Mode), p.RuleSet, embeddings.ModelKey(p.Config.Embedder), p.Config.Output.Dir, len(sources)); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	p.Pool.RunID = runID
	results, keywords := p.Acquire(ctx, sources)
	out := &Outcome{RunID: runID, Results: results, Keywords: keywords}
	out.Successful, out.Failed = fetch.Counts(results)
	logger.Info("Documents acquired", "successful", out.Successful, "failed", out.Failed)

	r, err := p.Evaluate(ctx, results)
	out.Report = r
	if r != nil {
		r.RunID = runID
		out.Issues = Issues(r)
	}
	out.Elapsed = time.Since(start)
	if err != nil {
		return out, err
	}

	if p.DB != nil {
		if err := p.DB.InsertRecords(runID, r.Records); err != nil {
			return out, fmt.Errorf("failed to store records: %w", err)
		}
		if err := p.DB.FinishRun(runID, out.Successful, out.Failed, len(r.Records), out.Issues, mapreduce.KeywordsJSON(keywords, 25)); err != nil {
			return out, fmt.Errorf("failed to finish run: %w", err)
		}
	}
	stats := p.Embedder.Stats()
	logger.Info("Evaluation finished",
		"records", len(r.Records), "sites", len(r.Sites), "issues", out.Issues,
		"embeddings_computed", stats.Computed, "embeddings_cached", stats.MemoryHits+stats.StoreHits,
		"elapsed", out.Elapsed)
	return out, nil
}

// Issues counts actionable findings: records below threshold and non-compliant sites.
func Issues(r *report.Report) int {
	n := 0
	for _, rec := range r.Records {
		if rec.MissingActionable {
			n++
		}
	}
	for _, s := range r.Sites {
		if !s.OverallCompliant {
			n++
		}
	}
	return n
}
