package merge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func fileExists(t *testing.T, dir, name string) bool {
	t.Helper()

	_, err := os.Stat(filepath.Join(dir, name))
	if err == nil {
		return true
	}
	require.True(t, os.IsNotExist(err))
	return false
}

// validDay is a minimal well-formed fragment body with three records.
const validDay = `[
	{"time": "09:30", "open": 100, "high": 102, "low": 99, "close": 101, "volume": 1000},
	{"time": "09:31", "open": 101, "high": 103, "low": 100, "close": 102, "volume": 1100},
	{"time": "09:32", "open": 102, "high": 104, "low": 101, "close": 103, "volume": 1200}
]`
