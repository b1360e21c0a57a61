package merge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/stockpipe/market"
)

// Alias tables for the heterogeneous shapes the harvesters produce. Adding a
// new source format means adding a key here, not touching control flow.
// Order is priority order; the first present, non-falsy value wins.
var (
	containerKeys = []string{"candles", "data", "klines"}
	timeAliases   = []string{"time", "t", "timestamp", "Time"}
	volumeAliases = []string{"volume", "vol", "Volume", "v"}
	openAliases   = []string{"open", "o"}
	highAliases   = []string{"high", "h"}
	lowAliases    = []string{"low", "l"}
	closeAliases  = []string{"close", "c"}
)

// Stats counts what the reconstructor saw and what it had to leave behind.
type Stats struct {
	SourceFiles    int
	SkippedFiles   int
	DroppedRecords int
}

// Reconstruct turns the ordered fragment list into one flat sequence of
// canonical candles. Unreadable or empty files are skipped with a warning;
// records without a resolvable time field are dropped and counted. The
// result is stably sorted by resolved timestamp so chronological output
// order is an enforced invariant rather than a byproduct of discovery order.
func Reconstruct(log *logrus.Logger, frags []Fragment) ([]market.Candle, Stats) {
	var candles []market.Candle
	st := Stats{SourceFiles: len(frags)}

	for _, fr := range frags {
		base := filepath.Base(fr.Path)

		records, err := loadRecords(fr.Path)
		if err != nil {
			log.WithError(err).WithField("file", base).Warn("skipping fragment")
			st.SkippedFiles++
			continue
		}

		n := 0
		for _, rec := range records {
			c, ok := reconstructRecord(rec, fr.Date)
			if !ok {
				st.DroppedRecords++
				continue
			}
			candles = append(candles, c)
			n++
		}

		log.WithFields(logrus.Fields{
			"file":    base,
			"date":    fr.Date,
			"candles": n,
		}).Debug("reconstructed fragment")
	}

	if st.DroppedRecords > 0 {
		log.WithField("dropped", st.DroppedRecords).Warn("records without a time field were dropped")
	}

	sortByTimestamp(candles)
	return candles, st
}

// loadRecords parses a fragment file and locates its candle array: either a
// top-level JSON array, or the first non-empty array under a recognized
// container key.
func loadRecords(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		if len(v) > 0 {
			return v, nil
		}
	case map[string]any:
		for _, key := range containerKeys {
			if arr, ok := v[key].([]any); ok && len(arr) > 0 {
				return arr, nil
			}
		}
	}

	return nil, errors.New("no candle array in file")
}

// reconstructRecord normalizes one raw record into a canonical candle using
// the fragment's embedded date. Returns false when no time field resolves.
func reconstructRecord(rec any, date string) (market.Candle, bool) {
	m, ok := rec.(map[string]any)
	if !ok {
		return market.Candle{}, false
	}

	tv, ok := firstPresent(m, timeAliases)
	if !ok {
		return market.Candle{}, false
	}

	c := market.Candle{
		Timestamp: normalizeTimestamp(tv, date),
		Open:      resolvePrice(m, openAliases),
		High:      resolvePrice(m, highAliases),
		Low:       resolvePrice(m, lowAliases),
		Close:     resolvePrice(m, closeAliases),
	}
	if v, ok := firstPresent(m, volumeAliases); ok {
		c.Volume = asInt(v)
	}

	return c, true
}

// normalizeTimestamp builds a full ISO-8601 timestamp from a raw time value.
// A string already containing the date/time separator is a full timestamp
// and passes through verbatim. Anything else is treated as a clock time:
// hour:minute gets ":00" seconds appended, then the fragment date, "T", and
// the UTC marker are composed around it.
func normalizeTimestamp(v any, date string) string {
	s, isString := v.(string)
	if isString && strings.Contains(s, "T") {
		return s
	}
	if !isString {
		s = stringify(v)
	}
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	return date + "T" + s + "Z"
}

// firstPresent walks the alias list and returns the first value that is
// present and non-falsy. Present-but-zero values read as missing; this
// mirrors the fragment producers and is a documented limitation for
// zero-priced or zero-volume bars.
func firstPresent(m map[string]any, aliases []string) (any, bool) {
	for _, key := range aliases {
		v, ok := m[key]
		if !ok || v == nil || falsy(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func falsy(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	}
	return false
}

func resolvePrice(m map[string]any, aliases []string) float64 {
	v, ok := firstPresent(m, aliases)
	if !ok {
		return 0
	}
	return asFloat(v)
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func asInt(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return int64(f)
	}
	return 0
}

func stringify(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprintf("%v", v)
}

// sortByTimestamp stably orders candles by resolved instant. Timestamps that
// fail to parse inherit the key of their nearest parsed predecessor, which
// keeps them next to the records they arrived with.
func sortByTimestamp(candles []market.Candle) {
	if len(candles) < 2 {
		return
	}

	keys := make([]time.Time, len(candles))
	var last time.Time
	for i, c := range candles {
		if ts, err := c.Time(); err == nil {
			last = ts
		}
		keys[i] = last
	}

	idx := make([]int, len(candles))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].Before(keys[idx[b]])
	})

	sorted := make([]market.Candle, len(candles))
	for i, j := range idx {
		sorted[i] = candles[j]
	}
	copy(candles, sorted)
}
