package merge

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Strict raw-fragment name: TICKER_INTERVAL_YYYY-MM-DD.json.
var comboPattern = regexp.MustCompile(`^([A-Z]+)_(\d+[mh])_\d{4}-\d{2}-\d{2}\.json$`)

// batchExcludeMarkers extends the derived-output markers with legacy
// consolidated names the batch scan must also skip.
var batchExcludeMarkers = []string{"_full_"}

// Combo is one ticker+interval pair observed among the raw files.
type Combo struct {
	Ticker   string
	Interval string
}

// ItemResult records one pipeline run inside a batch.
type ItemResult struct {
	Combo
	Report  *Report
	Err     error
	Elapsed time.Duration
}

// BatchReport tallies a whole batch run.
type BatchReport struct {
	RunID     string
	Results   []ItemResult
	Succeeded int
	Failed    int
}

// FailedNames lists the ticker_interval names of failed items.
func (br *BatchReport) FailedNames() []string {
	var names []string
	for _, r := range br.Results {
		if r.Err != nil {
			names = append(names, r.Ticker+"_"+r.Interval)
		}
	}
	return names
}

// ScanCombos enumerates every ticker+interval combination present among the
// strictly-named raw fragments in dir, applying the same derived-output
// exclusions as discovery.
func ScanCombos(dir string) ([]Combo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDirMissing, dir)
	}

	set := make(map[Combo]bool)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isDerived(name) || hasBatchExclude(name) {
			continue
		}
		m := comboPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		set[Combo{Ticker: m[1], Interval: m[2]}] = true
	}

	combos := make([]Combo, 0, len(set))
	for c := range set {
		combos = append(combos, c)
	}
	sort.Slice(combos, func(i, j int) bool {
		if combos[i].Ticker != combos[j].Ticker {
			return combos[i].Ticker < combos[j].Ticker
		}
		return combos[i].Interval < combos[j].Interval
	})

	return combos, nil
}

func hasBatchExclude(name string) bool {
	for _, marker := range batchExcludeMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// BatchOptions configures a batch run.
type BatchOptions struct {
	Dir         string
	ItemTimeout time.Duration
}

// RunBatch executes the five-stage pipeline once per discovered combination,
// sequentially and in-process. A failing or timed-out item is recorded and
// the batch moves on; only an empty scan or cancellation aborts. Every run
// is stamped with a ULID so its log lines can be correlated.
func RunBatch(ctx context.Context, log *logrus.Logger, opts BatchOptions) (*BatchReport, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	combos, err := ScanCombos(dir)
	if err != nil {
		return nil, err
	}
	if len(combos) == 0 {
		return nil, fmt.Errorf("%w: no ticker+interval combinations in %s", ErrNoRawFiles, dir)
	}

	br := &BatchReport{RunID: ulid.Make().String()}
	blog := log.WithField("run_id", br.RunID)
	blog.WithField("combinations", len(combos)).Info("starting batch merge")

	for _, combo := range combos {
		if err := ctx.Err(); err != nil {
			return br, err
		}

		itemCtx := ctx
		var cancel context.CancelFunc
		if opts.ItemTimeout > 0 {
			itemCtx, cancel = context.WithTimeout(ctx, opts.ItemTimeout)
		}

		start := time.Now()
		rep, err := Run(itemCtx, log, Options{
			Ticker:   combo.Ticker,
			Interval: combo.Interval,
			Dir:      dir,
		})
		if cancel != nil {
			cancel()
		}

		res := ItemResult{Combo: combo, Report: rep, Err: err, Elapsed: time.Since(start)}
		br.Results = append(br.Results, res)

		if err != nil {
			br.Failed++
			blog.WithError(err).WithFields(logrus.Fields{
				"ticker":   combo.Ticker,
				"interval": combo.Interval,
			}).Error("item failed")
			continue
		}
		br.Succeeded++
	}

	blog.WithFields(logrus.Fields{
		"succeeded": br.Succeeded,
		"failed":    br.Failed,
	}).Info("batch merge finished")

	return br, nil
}
