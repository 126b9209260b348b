package check

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dtnitsch/llm-compliance-monitor/internal/common"
	"github.com/dtnitsch/llm-compliance-monitor/internal/fetch"
	"github.com/dtnitsch/llm-compliance-monitor/internal/pipeline"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/mapreduce"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/report"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// CheckAction runs one evaluation in the selected mode and writes the reports.
func CheckAction(c *cli.Context) error {
	logger := common.Logger(c)
	common.StartGops(c, logger)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return common.ConfigError(err)
	}
	mode, err := models.ParseEvalMode(c.String("mode"))
	if err != nil {
		return common.ConfigError(err)
	}
	formats, err := report.ParseFormats(cfg.Output.Formats)
	if err != nil {
		return common.ConfigError(err)
	}
	sources, err := common.Sources(c, cfg, mode)
	if err != nil {
		return common.ConfigError(err)
	}

	database, err := db.Open(cfg.Output.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.Output.DBPath)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}
	defer database.Close()

	p, err := pipeline.New(cfg, mode, c.String("rule-set"), database, logger)
	if err != nil {
		return common.ConfigError(err)
	}
	defer p.Close()

	progress := common.NewProgress(os.Stderr, len(sources), "Fetching documents...", c.Bool("quiet"), logger)
	p.Pool.OnResult = func(fetch.Result) { progress.Add() }

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	logger.Info("Starting compliance check", "run_id", runID, "mode", mode, "rule_set", p.RuleSet, "sources", len(sources), "rules", len(p.Rules))

	out, err := p.Run(ctx, runID, sources)
	if err != nil {
		logger.Error("compliance check failed", "run_id", runID, "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}

	w := report.NewWriter(cfg.Output.Dir, os.Stdout, logger)
	paths, err := w.Write(out.Report, formats)
	if err != nil {
		logger.Error("failed to write reports", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}
	manifestPath, err := p.WriteManifest(out, paths)
	if err != nil {
		logger.Warn("Failed to write manifest", "error", err)
	} else {
		paths = append(paths, manifestPath)
	}

	printRunSummary(out, len(sources), paths)
	return common.ExitStatus(out.Successful, out.Failed)
}

func printRunSummary(out *pipeline.Outcome, total int, paths []string) {
	var size int64
	for _, r := range out.Results {
		size += r.SizeBytes
	}
	fmt.Printf("\nRun %s: %d/%d documents fetched (%s), %d issue(s) found in %s\n",
		out.RunID, out.Successful, total, humanize.Bytes(uint64(size)), out.Issues, out.Elapsed.Round(time.Millisecond))
	if kw := mapreduce.TopKeywords(out.Keywords, 10); len(kw) > 0 {
		fmt.Printf("Top keywords: %v\n", kw)
	}
	if len(paths) > 0 {
		fmt.Println("Reports:")
		for _, p := range paths {
			fmt.Printf("  %s\n", p)
		}
	}
}
