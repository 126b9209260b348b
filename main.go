package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dtnitsch/llm-compliance-monitor/internal/check"
	"github.com/dtnitsch/llm-compliance-monitor/internal/common"
	"github.com/dtnitsch/llm-compliance-monitor/internal/db"
	"github.com/dtnitsch/llm-compliance-monitor/internal/fetch"
	"github.com/dtnitsch/llm-compliance-monitor/internal/monitor"
	"github.com/dtnitsch/llm-compliance-monitor/internal/rules"
	"github.com/dtnitsch/llm-compliance-monitor/internal/search"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/help"
	"github.com/urfave/cli/v2"
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file (default lcm.yaml if present)", EnvVars: []string{"LCM_CONFIG"}},
	&cli.StringFlag{Name: "db", Usage: "SQLite run history path", EnvVars: []string{"LCM_DB"}},
	&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors and hide progress"},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output"},
	&cli.StringFlag{Name: "log-format", Value: "json", Usage: "log format: json or text", EnvVars: []string{"LCM_LOG_FORMAT"}},
	&cli.BoolFlag{Name: "gops", Usage: "start the gops diagnostics agent"},
}

var fetchFlags = []cli.Flag{
	&cli.StringFlag{Name: "urls", Usage: "comma-separated sources, optionally name=url; overrides config sources"},
	&cli.IntFlag{Name: "workers", Usage: "concurrent fetch workers"},
	&cli.DurationFlag{Name: "timeout", Usage: "per-request timeout"},
	&cli.DurationFlag{Name: "max-age", Usage: "reuse cached pages younger than this"},
	&cli.BoolFlag{Name: "force-fetch", Usage: "bypass the page cache"},
	&cli.StringFlag{Name: "extract", Usage: "text extraction: paragraphs, strings, text or readability"},
	&cli.StringFlag{Name: "language", Usage: "keep only paragraphs in this language (ISO 639-1)"},
}

var evalFlags = []cli.Flag{
	&cli.StringFlag{Name: "rule-set", Usage: "rule set (legal, us-data, eu-contract, or extracted to scrape rule_sources); overrides config rules"},
	&cli.StringFlag{Name: "embedder", Usage: "embedding provider: ollama, openai or hashing", EnvVars: []string{"LCM_EMBEDDER"}},
	&cli.StringFlag{Name: "embedder-model", Usage: "embedding model name"},
	&cli.StringFlag{Name: "embedder-url", Usage: "embedding service base URL"},
	&cli.StringFlag{Name: "openai-api-key", Usage: "API key for the openai provider", EnvVars: []string{"OPENAI_API_KEY"}},
	&cli.BoolFlag{Name: "summarize", Usage: "summarize matched paragraphs"},
	&cli.StringFlag{Name: "summarizer", Usage: "summarizer provider: ollama or truncate"},
	&cli.Float64Flag{Name: "threshold", Usage: "default similarity threshold for rules without one"},
}

var probeFlags = []cli.Flag{
	&cli.StringFlag{Name: "geoip-db", Usage: "GeoLite2 country database for the region check", EnvVars: []string{"LCM_GEOIP_DB"}},
	&cli.StringFlag{Name: "expected-region", Usage: "ISO country code sites must resolve to"},
}

var outputFlags = []cli.Flag{
	&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "report directory"},
	&cli.StringSliceFlag{Name: "formats", Aliases: []string{"f"}, Usage: "report formats: csv, xlsx, html, json, yaml, console or all"},
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func main() {
	app := &cli.App{
		Name:  "lcm",
		Usage: "check web documents and sites against compliance rules by semantic similarity",
		Flags: globalFlags,
		Commands: []*cli.Command{
			{
				Name:  "quickstart",
				Usage: "print a YAML cheat sheet of modes, commands and outputs",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
			{
				Name:  "check",
				Usage: "fetch sources, score them against the rules and write reports",
				Flags: flags(
					[]cli.Flag{&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "paragraph", Usage: "paragraph, attribute or site"}},
					fetchFlags, evalFlags, probeFlags, outputFlags,
				),
				Action: check.CheckAction,
			},
			{
				Name:  "monitor",
				Usage: "re-run the site check on an interval and report status changes",
				Flags: flags(
					[]cli.Flag{
						&cli.DurationFlag{Name: "interval", Usage: "time between scans"},
						&cli.IntFlag{Name: "max-iterations", Usage: "stop after this many scans (0 runs until interrupted)"},
					},
					fetchFlags, evalFlags, probeFlags,
				),
				Action: monitor.MonitorAction,
			},
			{
				Name:      "search",
				Usage:     "find the paragraphs closest to a compliance question",
				ArgsUsage: "<question>",
				Flags: flags(
					[]cli.Flag{
						&cli.StringFlag{Name: "query", Usage: "question to search for (or pass it as arguments)"},
						&cli.IntFlag{Name: "top-k", Aliases: []string{"k"}, Value: 3, Usage: "number of paragraphs returned"},
					},
					fetchFlags, evalFlags, outputFlags,
				),
				Action: search.SearchAction,
			},
			{
				Name:  "fetch",
				Usage: "fetch and parse sources without scoring them",
				Flags: flags(
					[]cli.Flag{
						&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "paragraph", Usage: "mode whose default sources are used"},
						&cli.StringFlag{Name: "format", Value: "json", Usage: "output format: json or yaml"},
					},
					fetchFlags,
				),
				Action: fetch.FetchAction,
			},
			{
				Name:  "rules",
				Usage: "inspect rule sets or extract rules from regulator pages",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "show the rules a check would use",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "paragraph", Usage: "mode whose default rule set is shown"},
							&cli.StringFlag{Name: "rule-set", Usage: "rule set to show"},
							&cli.BoolFlag{Name: "sets", Usage: "list the rule set names"},
							&cli.StringFlag{Name: "format", Value: "table", Usage: "table or yaml"},
						},
						Action: rules.ListAction,
					},
					{
						Name:  "extract",
						Usage: "pull candidate rules out of regulator pages",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "urls", Usage: "comma-separated regulator pages, optionally name=url"},
							&cli.IntFlag{Name: "max-rules", Usage: "cap on extracted rules"},
							&cli.DurationFlag{Name: "timeout", Usage: "per-request timeout"},
							&cli.StringFlag{Name: "format", Value: "yaml", Usage: "yaml or table"},
						},
						Action: rules.ExtractAction,
					},
				},
			},
			{
				Name:  "runs",
				Usage: "browse the run history",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list recent runs",
						Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs shown (0 for all)"}},
						Action: db.RunsAction,
					},
					{
						Name:      "show",
						Usage:     "show one run (default: the latest)",
						ArgsUsage: "[run-id]",
						Flags:     []cli.Flag{&cli.BoolFlag{Name: "issues-only", Usage: "only show records below their threshold"}},
						Action:    db.RunAction,
					},
					{
						Name:   "prune",
						Usage:  "delete old runs",
						Flags:  []cli.Flag{&cli.DurationFlag{Name: "older-than", Value: 30 * 24 * time.Hour, Usage: "age of runs to delete"}},
						Action: db.PruneAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(common.ExitFailed)
	}
}
