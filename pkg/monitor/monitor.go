// Package monitor re-runs the site evaluation on a fixed interval and reports
// each site's status, logging whenever a site changes state.
package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/dtnitsch/llm-compliance-monitor/pkg/report"
)

// Status labels printed per site.
const (
	StatusOK           = "OK"
	StatusNonCompliant = "Non-Compliant"
	StatusFailed       = "Failed"
)

// Scan is the outcome of one pass over the monitored sites.
type Scan struct {
	Sites []models.SiteResult
	// Failed maps sources that could not be acquired to their error text.
	Failed map[string]string
}

// ScanFunc runs one pass. Errors fail the iteration, not the agent.
type ScanFunc func(ctx context.Context, iteration int) (*Scan, error)

// DefaultInterval is used when an Agent has no positive Interval.
const DefaultInterval = 10 * time.Minute

// Agent is the polling loop.
type Agent struct {
	Scan     ScanFunc
	Interval time.Duration
	// MaxIterations stops the agent after that many passes; 0 runs until cancelled.
	MaxIterations int
	Out           io.Writer
	Logger        *slog.Logger

	last map[string]string
}

// Transition is a status change of one site between two passes.
type Transition struct {
	URL  string
	From string
	To   string
}

// Run loops until ctx is cancelled or MaxIterations passes have completed.
// Cancellation is a normal stop and returns nil.
func (a *Agent) Run(ctx context.Context) error {
	logger := a.logger()
	if a.Interval <= 0 {
		a.Interval = DefaultInterval
	}
	logger.Info("Starting compliance monitoring agent", "interval", a.Interval, "max_iterations", a.MaxIterations)

	for iteration := 1; ; iteration++ {
		if ctx.Err() != nil {
			logger.Info("Monitoring agent stopped", "iterations", iteration-1)
			return nil
		}

		scan, err := a.runOnce(ctx, iteration)
		if err != nil {
			logger.Error("Scan failed", "iteration", iteration, "error", err)
		} else {
			a.print(scan)
			for _, t := range a.Observe(scan) {
				logger.Warn("Site status changed", "url", t.URL, "from", t.From, "to", t.To, "iteration", iteration)
			}
		}

		if a.MaxIterations > 0 && iteration >= a.MaxIterations {
			logger.Info("Monitoring agent finished", "iterations", iteration)
			return nil
		}

		fmt.Fprintln(a.out(), "\nSleeping before next scan...")
		timer := time.NewTimer(a.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Monitoring agent stopped", "iterations", iteration)
			return nil
		case <-timer.C:
		}
	}
}

// runOnce isolates a pass so that a panic inside it only fails that iteration.
func (a *Agent) runOnce(ctx context.Context, iteration int) (scan *Scan, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
	}()
	scan, err = a.Scan(ctx, iteration)
	if err == nil && scan == nil {
		scan = &Scan{}
	}
	return scan, err
}

// Observe records the status of every site in scan and returns the changes
// since the previous scan. Sites seen for the first time are not changes.
func (a *Agent) Observe(scan *Scan) []Transition {
	if a.last == nil {
		a.last = map[string]string{}
	}
	current := Statuses(scan)

	urls := make([]string, 0, len(current))
	for u := range current {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	var out []Transition
	for _, u := range urls {
		prev, seen := a.last[u]
		if seen && prev != current[u] {
			out = append(out, Transition{URL: u, From: prev, To: current[u]})
		}
		a.last[u] = current[u]
	}
	return out
}

// Statuses maps each URL in scan to its status label.
func Statuses(scan *Scan) map[string]string {
	out := map[string]string{}
	for _, s := range scan.Sites {
		out[s.URL] = statusOf(s)
	}
	for u := range scan.Failed {
		out[u] = StatusFailed
	}
	return out
}

func statusOf(s models.SiteResult) string {
	if s.OverallCompliant {
		return StatusOK
	}
	return StatusNonCompliant
}

func (a *Agent) print(scan *Scan) {
	w := a.out()
	for _, s := range scan.Sites {
		status := statusOf(s)
		label := string(s.Status())
		fmt.Fprintf(w, "[%s] %s | %s\n", report.Styled(label, status), s.URL, s.Suggestion)
	}
	failed := make([]string, 0, len(scan.Failed))
	for u := range scan.Failed {
		failed = append(failed, u)
	}
	sort.Strings(failed)
	for _, u := range failed {
		fmt.Fprintf(w, "[%s] %s | %s\n", report.Styled(StatusFailed, StatusFailed), u, scan.Failed[u])
	}
}

func (a *Agent) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return io.Discard
}

func (a *Agent) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
