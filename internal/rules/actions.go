package rules

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dtnitsch/llm-compliance-monitor/internal/common"
	"github.com/dtnitsch/llm-compliance-monitor/internal/pipeline"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/fetcher"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/report"
	rulespkg "github.com/dtnitsch/llm-compliance-monitor/pkg/rules"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML shape printed by extract; it pastes into the config file.
type ruleFile struct {
	Rules []models.Rule `yaml:"rules"`
}

// ListAction prints the rules a check would use.
func ListAction(c *cli.Context) error {
	if c.Bool("sets") {
		fmt.Println(strings.Join(append(rulespkg.SetNames(), rulespkg.SetExtracted), "\n"))
		return nil
	}

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return common.ConfigError(err)
	}
	mode, err := models.ParseEvalMode(c.String("mode"))
	if err != nil {
		return common.ConfigError(err)
	}
	rs, setName, err := pipeline.ResolveRules(cfg, mode, c.String("rule-set"))
	if err != nil {
		return common.ConfigError(err)
	}

	if setName == rulespkg.SetExtracted {
		fmt.Printf("Rule set %q is scraped from %d rule source(s) on every run; preview it with `lcm rules extract`.\n",
			setName, len(pipeline.RuleSources(cfg)))
		return nil
	}
	if strings.ToLower(c.String("format")) == "yaml" {
		return printYAML(rs)
	}
	return report.WriteTable(os.Stdout, fmt.Sprintf("Rule set: %s (%d rules)", setName, len(rs)),
		[]string{"#", "Source", "Metric", "Threshold", "Rule"}, Rows(rs, cfg.Thresholds.Default))
}

// ExtractAction fetches regulator pages and prints the candidate rules found in them.
func ExtractAction(c *cli.Context) error {
	logger := common.Logger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return common.ConfigError(err)
	}

	sources := pipeline.RuleSources(cfg)
	if c.IsSet("urls") {
		sources = common.SourcesFromList([]string{c.String("urls")})
	}
	sources, invalid := common.SanitizeSources(sources)
	if len(invalid) > 0 {
		return common.ConfigError(fmt.Errorf("malformed rule sources: %s", strings.Join(invalid, ", ")))
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex := &rulespkg.Extractor{
		Getter: fetcher.NewFetcher(
			fetcher.WithUserAgent(cfg.Fetch.UserAgent),
			fetcher.WithTimeout(cfg.Fetch.Timeout),
		),
		Keywords: cfg.RuleKeywords,
		MaxRules: cfg.MaxExtractRules,
		Logger:   logger,
	}
	if c.IsSet("max-rules") {
		ex.MaxRules = c.Int("max-rules")
	}
	extracted, failed := ex.Extract(ctx, sources)
	for _, f := range failed {
		fmt.Fprintf(os.Stderr, "Warning: %s (%s): %v\n", f.Source, f.URL, f.Err)
	}

	if strings.ToLower(c.String("format")) == "table" {
		err = report.WriteTable(os.Stdout, fmt.Sprintf("Extracted rules (%d)", len(extracted)),
			[]string{"#", "Source", "Metric", "Threshold", "Rule"}, Rows(extracted, cfg.Thresholds.Default))
	} else {
		err = printYAML(extracted)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}

	return common.ExitStatus(len(sources)-len(failed), len(failed))
}

// Rows renders rules for the console table. Rules without their own threshold show def.
func Rows(rs []models.Rule, def float64) [][]string {
	rows := make([][]string, 0, len(rs))
	for i, r := range rs {
		threshold := fmt.Sprintf("%.2f", r.ThresholdOr(def))
		if r.Threshold == nil {
			threshold += " (default)"
		}
		metric := r.Metric
		if metric == "" {
			metric = "-"
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), r.Source, metric, threshold, r.Text})
	}
	return rows
}

func printYAML(rs []models.Rule) error {
	if rs == nil {
		rs = []models.Rule{}
	}
	data, err := yaml.Marshal(ruleFile{Rules: rs})
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
