package merge

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options identifies one pipeline run. Every stage receives these values
// explicitly; the pipeline keeps no process-wide state.
type Options struct {
	Ticker   string
	Interval string
	Dir      string
}

// Report is the structured result of one pipeline run.
type Report struct {
	Ticker         string
	Interval       string
	Sanitized      int
	SourceFiles    int
	SkippedFiles   int
	DroppedRecords int
	TotalCandles   int
	Metadata       Metadata
	OutputPath     string
	OutputBytes    int64
}

// Run executes the five pipeline stages for one ticker+interval: sanitize,
// discover, reconstruct, measure, package. The returned error marks the item
// as failed; per-file and per-record problems surface only in the report
// counters. Cancellation is checked between stages.
func Run(ctx context.Context, log *logrus.Logger, opts Options) (*Report, error) {
	ticker := strings.ToUpper(opts.Ticker)
	interval := opts.Interval
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirMissing, dir)
	}

	rep := &Report{Ticker: ticker, Interval: interval}

	rep.Sanitized = Sanitize(log, ticker, interval, dir)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frags, err := Discover(log, ticker, interval, dir)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candles, stats := Reconstruct(log, frags)
	rep.SourceFiles = stats.SourceFiles
	rep.SkippedFiles = stats.SkippedFiles
	rep.DroppedRecords = stats.DroppedRecords
	rep.TotalCandles = len(candles)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	md, err := Measure(candles)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", ticker, interval, err)
	}
	rep.Metadata = md

	path, size, err := Package(log, ticker, interval, md, candles, len(frags), dir)
	if err != nil {
		return nil, err
	}
	rep.Metadata.SourceFileCount = len(frags)
	rep.OutputPath = path
	rep.OutputBytes = size

	log.WithFields(logrus.Fields{
		"ticker":   ticker,
		"interval": interval,
		"candles":  rep.TotalCandles,
		"files":    rep.SourceFiles,
		"range":    md.DataStart + " -> " + md.DataEnd,
	}).Info("merge complete")

	return rep, nil
}
