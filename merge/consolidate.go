package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/stockpipe/market"
)

// ConsolidatedArtifact is the alternate consolidation output, named with a
// human-readable duration label instead of the MERGED marker.
type ConsolidatedArtifact struct {
	Ticker       string          `json:"ticker"`
	Interval     string          `json:"interval"`
	Duration     string          `json:"duration"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	TotalCandles int             `json:"total_candles"`
	SourceFiles  int             `json:"source_files"`
	Candles      []market.Candle `json:"candles"`
}

// ConsolidatedFilename follows TICKER_INTERVAL_<N>days_(START_END).json.
func ConsolidatedFilename(ticker, interval, duration, start, end string) string {
	return fmt.Sprintf("%s_%s_%s_(%s_%s).json", ticker, interval, duration, start, end)
}

// durationLabel counts calendar days inclusive of both endpoints.
func durationLabel(start, end string) (string, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return "", fmt.Errorf("parse start date %q: %w", start, err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return "", fmt.Errorf("parse end date %q: %w", end, err)
	}
	days := int(e.Sub(s).Hours()/24) + 1
	return fmt.Sprintf("%ddays", days), nil
}

// Consolidate merges the strictly-named daily fragments for one
// ticker+interval into a duration-labeled artifact. Unlike Discover it only
// accepts TICKER_INTERVAL_YYYY-MM-DD.json names, so stray files cannot leak
// into the date range. Stale duration-labeled outputs are sanitized first;
// their name depends on the date range, so overwrite-in-place alone would
// let old ranges pile up.
func Consolidate(ctx context.Context, log *logrus.Logger, opts Options) (*Report, error) {
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

	frags, err := discoverStrict(ticker, interval, dir)
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
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s %s: %w", ticker, interval, ErrNoCandles)
	}

	startDate := frags[0].Date
	endDate := frags[len(frags)-1].Date
	duration, err := durationLabel(startDate, endDate)
	if err != nil {
		return nil, err
	}

	art := ConsolidatedArtifact{
		Ticker:       ticker,
		Interval:     interval,
		Duration:     duration,
		StartDate:    startDate,
		EndDate:      endDate,
		TotalCandles: len(candles),
		SourceFiles:  len(frags),
		Candles:      candles,
	}

	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}

	path := filepath.Join(dir, ConsolidatedFilename(ticker, interval, duration, startDate, endDate))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	rep.OutputPath = path
	rep.OutputBytes = int64(len(data))

	log.WithFields(logrus.Fields{
		"file":    filepath.Base(path),
		"candles": len(candles),
		"range":   startDate + " -> " + endDate,
	}).Info("wrote consolidated artifact")

	return rep, nil
}

// discoverStrict enumerates only exactly-named daily fragments, ascending by
// date.
func discoverStrict(ticker, interval, dir string) ([]Fragment, error) {
	strict := regexp.MustCompile(fmt.Sprintf(`^%s_%s_(\d{4}-\d{2}-\d{2})\.json$`,
		regexp.QuoteMeta(ticker), regexp.QuoteMeta(interval)))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDirMissing, dir)
	}

	var frags []Fragment
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := strict.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		frags = append(frags, Fragment{
			Path: filepath.Join(dir, e.Name()),
			Date: m[1],
		})
	}

	if len(frags) == 0 {
		return nil, fmt.Errorf("%w: pattern %s_%s_YYYY-MM-DD.json in %s", ErrNoRawFiles, ticker, interval, dir)
	}

	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].Date < frags[j].Date
	})

	return frags, nil
}
