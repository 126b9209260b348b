package common

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// Progress counts finished documents on a terminal bar. A nil *Progress is a no-op.
type Progress struct {
	bar    *progressbar.ProgressBar
	logger *slog.Logger
}

// NewProgress returns a bar over total items written to w, or nil when quiet.
func NewProgress(w io.Writer, total int, description string, quiet bool, logger *slog.Logger) *Progress {
	if quiet || total == 0 {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				logger.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &Progress{bar: bar, logger: logger}
}

// Add advances the bar by one.
func (p *Progress) Add() {
	if p == nil {
		return
	}
	if err := p.bar.Add(1); err != nil {
		p.logger.Warn("Failed to update progress bar", "error", err)
	}
}
