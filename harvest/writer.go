package harvest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// fragmentRecord is the raw per-day record shape. The merge pipeline
// reconstructs the full timestamp from the filename date plus this clock
// time.
type fragmentRecord struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// WriteDailyFragments groups bars by calendar day and writes one
// TICKER_INTERVAL_YYYY-MM-DD.json file per day, overwriting prior fragments
// for the same days. Returns the number of files written.
func WriteDailyFragments(log *logrus.Logger, ticker, interval, dir string, bars []Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	byDay := make(map[string][]Bar)
	for _, b := range bars {
		day := b.Time.Format("2006-01-02")
		byDay[day] = append(byDay[day], b)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	written := 0
	for _, day := range days {
		dayBars := byDay[day]
		sort.SliceStable(dayBars, func(i, j int) bool {
			return dayBars[i].Time.Before(dayBars[j].Time)
		})

		records := make([]fragmentRecord, 0, len(dayBars))
		for _, b := range dayBars {
			records = append(records, fragmentRecord{
				Time:   b.Time.Format("15:04"),
				Open:   round2(b.Open),
				High:   round2(b.High),
				Low:    round2(b.Low),
				Close:  round2(b.Close),
				Volume: b.Volume,
			})
		}

		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return written, fmt.Errorf("marshal fragment %s: %w", day, err)
		}

		name := fmt.Sprintf("%s_%s_%s.json", ticker, interval, day)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}

		log.WithFields(logrus.Fields{
			"file":    name,
			"candles": len(records),
		}).Info("wrote fragment")
		written++
	}

	return written, nil
}

// CleanFragments deletes existing raw fragments for one ticker+interval
// ahead of a fresh harvest. Derived outputs are left for the merge
// pipeline's sanitizer. Returns the number of files removed.
func CleanFragments(log *logrus.Logger, ticker, interval, dir string) int {
	pattern := fmt.Sprintf("%s_%s_*.json", ticker, interval)
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0
	}

	deleted := 0
	for _, path := range matches {
		base := filepath.Base(path)
		if isDerivedOutput(base) {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.WithError(err).WithField("file", base).Warn("clean: delete failed")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		log.WithFields(logrus.Fields{
			"ticker":   ticker,
			"interval": interval,
			"files":    deleted,
		}).Info("cleaned old fragments")
	}
	return deleted
}

func isDerivedOutput(name string) bool {
	for _, marker := range []string{"MERGED", "COMBINED", "days"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// Dedup drops bars that repeat an already-seen instant, keeping the first
// occurrence, and returns the survivors sorted by time. Chunked downloads
// overlap at window boundaries, so duplicates are expected.
func Dedup(bars []Bar) []Bar {
	seen := make(map[int64]bool, len(bars))
	out := bars[:0]
	for _, b := range bars {
		key := b.Time.Unix()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}
