package merge

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// derivedMarkers flag a filename as pipeline output rather than raw input.
// A file carrying any of these is never discovered and is fair game for
// sanitation.
var derivedMarkers = []string{"MERGED", "COMBINED", "days"}

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Fragment is one raw per-day JSON file feeding a merge, with the calendar
// date extracted from its filename.
type Fragment struct {
	Path string
	Date string // YYYY-MM-DD
}

func isDerived(name string) bool {
	for _, marker := range derivedMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// Discover enumerates raw fragment files for one ticker+interval and orders
// them ascending by the date embedded in each filename. Filenames without a
// date token are warned about and excluded. Files sharing the same embedded
// date keep their enumeration order and are flagged, since they will feed
// duplicate content into the merge.
func Discover(log *logrus.Logger, ticker, interval, dir string) ([]Fragment, error) {
	pattern := fmt.Sprintf("%s_%s_*.json", ticker, interval)
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	var frags []Fragment
	for _, path := range matches {
		base := filepath.Base(path)
		if isDerived(base) {
			continue
		}
		date := datePattern.FindString(base)
		if date == "" {
			log.WithField("file", base).Warn("no date token in filename, excluded from merge")
			continue
		}
		frags = append(frags, Fragment{Path: path, Date: date})
	}

	if len(frags) == 0 {
		return nil, fmt.Errorf("%w: pattern %s in %s", ErrNoRawFiles, pattern, dir)
	}

	// Zero-padded ISO dates sort correctly as strings. Stable so that
	// same-date files keep enumeration order.
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].Date < frags[j].Date
	})

	seen := make(map[string]string, len(frags))
	for _, f := range frags {
		base := filepath.Base(f.Path)
		if first, ok := seen[f.Date]; ok {
			log.WithFields(logrus.Fields{
				"date":  f.Date,
				"file":  base,
				"first": first,
			}).Warn("duplicate fragment date, merged output will repeat this session")
			continue
		}
		seen[f.Date] = base
	}

	log.WithFields(logrus.Fields{
		"ticker":   ticker,
		"interval": interval,
		"files":    len(frags),
	}).Info("discovered raw fragments")

	return frags, nil
}
