package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dtnitsch/llm-compliance-monitor/internal/common"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/mapreduce"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// FetchAction acquires the sources without evaluating them and prints what was
// extracted, as JSON or YAML.
func FetchAction(c *cli.Context) error {
	logger := common.Logger(c)
	startTime := time.Now()

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return common.ConfigError(err)
	}
	mode, err := models.ParseEvalMode(c.String("mode"))
	if err != nil {
		return common.ConfigError(err)
	}
	sources, err := common.Sources(c, cfg, mode)
	if err != nil {
		return common.ConfigError(err)
	}

	database, err := db.Open(cfg.Output.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}
	defer database.Close()

	pool, err := NewPool(cfg, database, logger)
	if err != nil {
		return common.ConfigError(err)
	}
	progress := common.NewProgress(os.Stderr, len(sources), "Fetching documents...", c.Bool("quiet"), logger)
	pool.OnResult = func(Result) { progress.Add() }

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, wordCounts := pool.Run(ctx, sources)

	finalOutput := BuildOutput(results, wordCounts, time.Since(startTime))
	var data []byte
	if strings.ToLower(c.String("format")) == "yaml" {
		data, err = yaml.Marshal(finalOutput)
	} else {
		data, err = json.MarshalIndent(finalOutput, "", "  ")
	}
	if err != nil {
		logger.Error("failed to marshal final output", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}
	fmt.Println(string(data))

	return common.ExitStatus(finalOutput.Stats.Successful, finalOutput.Stats.Failed)
}

// BuildOutput converts pool results into the printed structure.
func BuildOutput(results []Result, wordCounts map[string]int, elapsed time.Duration) *FinalOutput {
	out := &FinalOutput{Results: make([]ResultOutput, 0, len(results))}
	for i := range results {
		r := &results[i]
		ro := ResultOutput{
			Name:       r.Document.Name,
			URL:        r.Source.URL,
			Kind:       string(r.Document.Kind),
			Language:   r.Document.Language,
			Paragraphs: len(r.Document.Paragraphs),
			Cached:     r.Cached,
			Status:     r.Status(),
		}
		if r.SizeBytes > 0 {
			ro.Size = humanize.Bytes(uint64(r.SizeBytes))
		}
		if r.Failed() {
			ro.Error = r.Error.Error()
			ro.ErrorType = r.ErrorType
		}
		out.Results = append(out.Results, ro)
	}

	successful, failed := Counts(results)
	out.Stats = Stats{
		TotalSources:     len(results),
		Successful:       successful,
		Failed:           failed,
		TotalTimeSeconds: elapsed.Seconds(),
		TopKeywords:      mapreduce.TopKeywords(wordCounts, 25),
	}
	out.Status = "success"
	if failed > 0 {
		out.Status = "partial_failure"
	}
	return out
}
