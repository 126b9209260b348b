package monitor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/llm-compliance-monitor/internal/common"
	"github.com/dtnitsch/llm-compliance-monitor/internal/pipeline"
	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/db"
	monitorpkg "github.com/dtnitsch/llm-compliance-monitor/pkg/monitor"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// MonitorAction re-runs the site evaluation on an interval until interrupted.
func MonitorAction(c *cli.Context) error {
	logger := common.Logger(c)
	common.StartGops(c, logger)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return common.ConfigError(err)
	}
	sources, err := common.Sources(c, cfg, models.EvalSite)
	if err != nil {
		return common.ConfigError(err)
	}

	database, err := db.Open(cfg.Output.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitFailed)
	}
	defer database.Close()

	p, err := pipeline.New(cfg, models.EvalSite, c.String("rule-set"), database, logger)
	if err != nil {
		return common.ConfigError(err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent := &monitorpkg.Agent{
		Scan:          ScanFunc(p, sources),
		Interval:      cfg.Monitor.Interval,
		MaxIterations: cfg.Monitor.MaxIterations,
		Out:           os.Stdout,
		Logger:        logger,
	}
	return agent.Run(ctx)
}

// ScanFunc runs the pipeline once per iteration as its own recorded run.
func ScanFunc(p *pipeline.Pipeline, sources []models.Source) monitorpkg.ScanFunc {
	return func(ctx context.Context, iteration int) (*monitorpkg.Scan, error) {
		out, err := p.Run(ctx, uuid.NewString(), sources)
		if err != nil {
			return nil, err
		}
		scan := &monitorpkg.Scan{Sites: out.Report.Sites, Failed: map[string]string{}}
		for _, r := range out.Results {
			if r.Failed() {
				scan.Failed[r.Source.URL] = r.Error.Error()
			}
		}
		return scan, nil
	}
}
