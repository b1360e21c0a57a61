package merge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Sanitize removes stale derived-output files for one ticker+interval so a
// re-run does not accumulate duplicates. Only files carrying a derived-output
// marker are touched; raw per-day fragments are never deleted. Individual
// delete failures are logged and do not stop the remaining matches. Returns
// the number of files removed.
func Sanitize(log *logrus.Logger, ticker, interval, dir string) int {
	prefix := ticker + "_" + interval + "_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).WithField("dir", dir).Warn("sanitize: cannot read directory")
		return 0
	}

	deleted := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if !isDerived(name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			log.WithError(err).WithField("file", name).Error("sanitize: delete failed")
			continue
		}
		log.WithField("file", name).Info("removed stale output")
		deleted++
	}

	return deleted
}
