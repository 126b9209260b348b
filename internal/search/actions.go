package search

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dtnitsch/llm-compliance-monitor/internal/common"
	"github.com/dtnitsch/llm-compliance-monitor/internal/fetch"
	"github.com/dtnitsch/llm-compliance-monitor/internal/pipeline"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/report"
	"github.com/urfave/cli/v2"
)

// SearchAction embeds a question and returns the closest paragraphs of the fetched documents.
func SearchAction(c *cli.Context) error {
	logger := common.Logger(c)

	query := strings.TrimSpace(c.String("query"))
	if query == "" {
		query = strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	}
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: No query provided")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  lcm search "What are the data protection requirements?"`)
		fmt.Fprintln(os.Stderr, `  lcm search --urls "https://www.sec.gov/privacy" --summarize "How is consent tracked?"`)
		return cli.Exit("", common.ExitPartial)
	}

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return common.ConfigError(err)
	}
	formats, err := report.ParseFormats(cfg.Output.Formats)
	if err != nil {
		return common.ConfigError(err)
	}
	sources, err := common.Sources(c, cfg, models.EvalParagraph)
	if err != nil {
		return common.ConfigError(err)
	}

	database, err := db.Open(cfg.Output.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}
	defer database.Close()

	p, err := pipeline.New(cfg, models.EvalParagraph, "", database, logger)
	if err != nil {
		return common.ConfigError(err)
	}
	defer p.Close()

	progress := common.NewProgress(os.Stderr, len(sources), "Fetching documents...", c.Bool("quiet"), logger)
	p.Pool.OnResult = func(fetch.Result) { progress.Add() }

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, _ := p.Acquire(ctx, sources)
	hits, err := p.Evaluator.Search(ctx, fetch.Documents(results), query, c.Int("top-k"))
	if err != nil {
		logger.Error("search failed", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}
	logger.Info("Search finished", "query", query, "hits", len(hits))

	w := report.NewWriter(cfg.Output.Dir, os.Stdout, logger)
	w.BaseName = "search_results"
	r := &report.Report{
		Title:  "Compliance Q&A: " + query,
		Mode:   report.ModeSearch,
		Hits:   hits,
		Failed: fetch.FailedNames(results),
	}
	paths, err := w.Write(r, formats)
	if err != nil {
		logger.Error("failed to write results", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}
	for _, path := range paths {
		fmt.Printf("Saved: %s\n", path)
	}

	successful, failed := fetch.Counts(results)
	return common.ExitStatus(successful, failed)
}
