package common

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/rules"
	"github.com/google/gops/agent"
	"github.com/urfave/cli/v2"
)

// Exit codes shared by every command.
const (
	ExitPartial = 1
	ExitFailed  = 2
)

// Logger builds the command logger from the global logging flags.
func Logger(c *cli.Context) *slog.Logger {
	return NewLogger(os.Stderr, c.Bool("quiet"), c.Bool("verbose"), c.String("log-format"))
}

// StartGops starts the diagnostics agent when --gops is set.
func StartGops(c *cli.Context, logger *slog.Logger) {
	if !c.Bool("gops") {
		return
	}
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		logger.Warn("Failed to start gops agent", "error", err)
		return
	}
	logger.Info("gops agent listening")
}

// LoadConfig reads --config (or lcm.yaml) and applies the flags that were set.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("workers") {
		cfg.Fetch.WorkerCount = c.Int("workers")
	}
	if c.IsSet("timeout") {
		cfg.Fetch.Timeout = c.Duration("timeout")
	}
	if c.IsSet("max-age") {
		cfg.Fetch.MaxAge = c.Duration("max-age")
	}
	if c.Bool("force-fetch") {
		cfg.Fetch.MaxAge = 0
	}
	if c.IsSet("extract") {
		cfg.Fetch.Extract = models.ExtractMode(c.String("extract"))
	}
	if c.IsSet("language") {
		cfg.Fetch.LanguageFilter = c.String("language")
	}

	if c.IsSet("embedder") {
		cfg.Embedder.Provider = c.String("embedder")
	}
	if c.IsSet("embedder-model") {
		cfg.Embedder.Model = c.String("embedder-model")
	}
	if c.IsSet("embedder-url") {
		cfg.Embedder.BaseURL = c.String("embedder-url")
	}
	if c.IsSet("openai-api-key") {
		cfg.Embedder.APIKey = c.String("openai-api-key")
	}

	if c.IsSet("summarize") {
		cfg.Summarizer.Enabled = c.Bool("summarize")
	}
	if c.IsSet("summarizer") {
		cfg.Summarizer.Provider = c.String("summarizer")
	}

	if c.IsSet("geoip-db") {
		cfg.Probe.GeoIPDB = c.String("geoip-db")
	}
	if c.IsSet("expected-region") {
		cfg.Probe.ExpectedRegion = c.String("expected-region")
	}

	if c.IsSet("threshold") {
		cfg.Thresholds.Default = c.Float64("threshold")
	}
	if c.IsSet("interval") {
		cfg.Monitor.Interval = c.Duration("interval")
	}
	if c.IsSet("max-iterations") {
		cfg.Monitor.MaxIterations = c.Int("max-iterations")
	}

	if c.IsSet("output-dir") {
		cfg.Output.Dir = c.String("output-dir")
	}
	if c.IsSet("formats") {
		cfg.Output.Formats = c.StringSlice("formats")
	}
	if c.IsSet("db") {
		cfg.Output.DBPath = c.String("db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sources returns --urls when given, else the configured sources, else the
// defaults for mode. Every source is cleaned; any invalid one is an error.
func Sources(c *cli.Context, cfg *models.Config, mode models.EvalMode) ([]models.Source, error) {
	var sources []models.Source
	switch {
	case c.IsSet("urls"):
		sources = SourcesFromList([]string{c.String("urls")})
	case len(cfg.Sources) > 0:
		sources = cfg.Sources
	default:
		sources = rules.DefaultSources(mode)
	}

	cleaned, invalid := SanitizeSources(sources)
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%d source(s) are malformed (even after cleanup): %s", len(invalid), strings.Join(invalid, ", "))
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}
	return cleaned, nil
}

// ConfigError wraps a configuration problem into the exit code for invalid configuration.
func ConfigError(err error) error {
	return cli.Exit(fmt.Sprintf("Error: %v", err), ExitFailed)
}

// ExitStatus maps fetch counts to the process exit code: 0 when everything
// was fetched, 1 on partial failure, 2 when nothing was.
func ExitStatus(successful, failed int) error {
	switch {
	case failed == 0:
		return nil
	case successful == 0:
		return cli.Exit(fmt.Sprintf("Error: all %d document(s) failed to fetch", failed), ExitFailed)
	default:
		return cli.Exit(fmt.Sprintf("Warning: %d document(s) failed to fetch", failed), ExitPartial)
	}
}
