package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dtnitsch/llm-compliance-monitor/internal/common"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/analytics"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/caching"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/detector"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/fetcher"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/langdetect"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/mapreduce"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/parser"
)

// DefaultWorkers is used when the configured worker count is not positive.
const DefaultWorkers = 4

// languageSampleChars bounds the text handed to the language detector.
const languageSampleChars = 2000

// Pool acquires documents concurrently. Only Fetcher and Parser are required.
type Pool struct {
	Fetcher        *fetcher.Fetcher
	Cache          *caching.Cache
	Parser         *parser.Parser
	Lang           *langdetect.Detector
	LanguageFilter string
	Detector       *detector.Detector
	DB             *db.DB
	RunID          string
	Workers        int
	Logger         *slog.Logger
	// OnResult is called once per finished job from the collecting goroutine.
	OnResult func(Result)
}

// NewPool builds a Pool from the fetch section of cfg. database may be nil.
func NewPool(cfg *models.Config, database *db.DB, logger *slog.Logger) (*Pool, error) {
	p := &Pool{
		Fetcher: fetcher.NewFetcher(
			fetcher.WithUserAgent(cfg.Fetch.UserAgent),
			fetcher.WithTimeout(cfg.Fetch.Timeout),
		),
		Parser:         parser.New(cfg.Fetch.Extract, cfg.Fetch.MinParagraphChars, cfg.Fetch.MaxChars),
		Lang:           langdetect.New(),
		LanguageFilter: cfg.Fetch.LanguageFilter,
		Detector:       detector.New(cfg.LegalHosts),
		DB:             database,
		Workers:        cfg.Fetch.WorkerCount,
		Logger:         logger,
	}
	if cfg.Fetch.MaxAge > 0 && cfg.Fetch.CacheDir != "" {
		cache, err := caching.NewCache(cfg.Fetch.CacheDir, cfg.Fetch.MaxAge)
		if err != nil {
			return nil, err
		}
		p.Cache = cache
	}
	return p, nil
}

// Run acquires every source and returns results in input order, plus the
// reduced word counts of all successful documents.
func (p *Pool) Run(ctx context.Context, sources []models.Source) ([]Result, map[string]int) {
	logger := p.logger()
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	logger.Info("Starting concurrent fetch phase", "source_count", len(sources), "workers", workers, "cache", p.Cache != nil)
	var wg sync.WaitGroup
	jobs := make(chan Job, len(sources))
	results := make(chan Result, len(sources))

	a := &analytics.Analytics{}
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go p.worker(ctx, w, logger, a, &wg, jobs, results)
	}

	for i, s := range sources {
		jobs <- Job{Index: i, Source: s}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]Result, len(sources))
	for result := range results {
		ordered[result.Index] = result
		if p.OnResult != nil {
			p.OnResult(result)
		}
	}
	logger.Info("All fetch workers finished")

	logger.Debug("Starting MapReduce phase")
	intermediate := make([]map[string]int, 0, len(ordered))
	for _, r := range ordered {
		if r.WordCounts != nil {
			intermediate = append(intermediate, r.WordCounts)
		}
	}
	return ordered, mapreduce.Reduce(intermediate)
}

func (p *Pool) worker(ctx context.Context, id int, logger *slog.Logger, a *analytics.Analytics, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		logger.Debug("Worker started job", "worker_id", id, "url", job.Source.URL)
		results <- p.process(ctx, id, logger, a, job)
	}
}

func (p *Pool) process(ctx context.Context, id int, logger *slog.Logger, a *analytics.Analytics, job Job) Result {
	src := job.Source
	name := src.Name
	if name == "" {
		name = src.URL
	}
	result := Result{
		Index:    job.Index,
		Source:   src,
		Document: models.Document{Name: name, Source: src.URL, Kind: p.kind(src, "")},
	}
	defer p.persist(logger, &result)

	if p.DB != nil {
		urlID, err := p.DB.InsertURL(src.URL)
		if err != nil {
			logger.Warn("Failed to insert URL to DB", "url", src.URL, "error", err)
		}
		result.URLID = urlID
	}

	if err := ctx.Err(); err != nil {
		result.Error = err
		result.ErrorType = ErrorTypeFetch
		return result
	}

	body, contentType, ok := p.cached(src.URL)
	if ok {
		logger.Debug("Raw body found in cache, using it", "worker_id", id, "url", src.URL)
		result.Cached = true
		result.StatusCode = 200
	} else {
		resp, err := p.Fetcher.Fetch(ctx, src.URL)
		if resp != nil {
			result.StatusCode = resp.StatusCode
		}
		if err != nil {
			result.Error = err
			result.ErrorType = ErrorTypeFetch
			if !fetcher.IsRemote(src.URL) {
				result.ErrorType = ErrorTypeRead
			}
			logger.Warn("Error fetching source", "worker_id", id, "url", src.URL, "error_type", result.ErrorType, "error", err)
			return result
		}
		body, contentType = resp.Body, resp.ContentType
		if p.Cache != nil && !resp.Local {
			if err := p.Cache.Set(src.URL, body); err != nil {
				logger.Warn("Failed to store raw body in cache", "url", src.URL, "error", err)
			}
		}
	}
	result.SizeBytes = int64(len(body))
	result.ContentHash = common.ContentHash(body)

	parsed, err := p.Parser.Parse(src.URL, body, contentType)
	if err != nil {
		logger.Warn("Error parsing body", "worker_id", id, "url", src.URL, "error", err)
		result.Error = fmt.Errorf("parse %s: %w", src.URL, err)
		result.ErrorType = ErrorTypeParse
		return result
	}

	doc := &result.Document
	doc.Title = parsed.Title
	doc.Paragraphs = parsed.Fragments
	if p.Lang != nil && !doc.Empty() {
		doc.Language, _ = p.Lang.Detect(models.Prefix(doc.ToPlainText(), languageSampleChars))
		if p.LanguageFilter != "" {
			before := len(doc.Paragraphs)
			doc.Paragraphs = p.Lang.Filter(doc.Paragraphs, p.LanguageFilter)
			if dropped := before - len(doc.Paragraphs); dropped > 0 {
				logger.Debug("Dropped fragments in other languages", "url", src.URL, "dropped", dropped, "language", p.LanguageFilter)
			}
		}
	}
	doc.Kind = p.kind(src, models.Prefix(doc.ToPlainText(), languageSampleChars))
	result.WordCounts = mapreduce.Map(doc, a)

	logger.Info("Worker finished processing", "worker_id", id, "url", src.URL, "paragraphs", len(doc.Paragraphs), "kind", doc.Kind)
	return result
}

func (p *Pool) cached(url string) ([]byte, string, bool) {
	if p.Cache == nil || !fetcher.IsRemote(url) {
		return nil, "", false
	}
	body, ok := p.Cache.Get(url)
	return body, "", ok
}

func (p *Pool) kind(src models.Source, text string) models.DocumentKind {
	if p.Detector == nil {
		if k := models.ParseDocumentKind(src.Kind); k != "" {
			return k
		}
		return models.KindApp
	}
	return p.Detector.Detect(src.URL, src.Kind, text).Kind
}

// persist records the access, classification and run document. DB errors are logged only.
func (p *Pool) persist(logger *slog.Logger, r *Result) {
	if p.DB == nil || r.URLID <= 0 {
		return
	}
	if errors.Is(r.Error, context.Canceled) {
		return
	}
	if err := p.DB.RecordAccess(r.URLID, r.StatusCode, r.ErrorType, !r.Failed()); err != nil {
		logger.Warn("Failed to record access to DB", "url", r.Source.URL, "error", err)
	}
	if !r.Failed() {
		keywords := mapreduce.KeywordsJSON(r.WordCounts, 25)
		if err := p.DB.UpdateURLClassification(r.URLID, string(r.Document.Kind), r.Document.Language, keywords); err != nil {
			logger.Warn("Failed to update URL classification", "url", r.Source.URL, "error", err)
		}
	}
	if p.RunID != "" {
		if err := p.DB.InsertRunDocument(p.RunID, r.RunDocument()); err != nil {
			logger.Warn("Failed to insert run document", "url", r.Source.URL, "run_id", p.RunID, "error", err)
		}
	}
}

func (p *Pool) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
