package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

const fragment = `[
	{"time": "09:30", "open": 100, "high": 102, "low": 99, "close": 101, "volume": 1000}
]`

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ADRO_1m_2025-12-19.json"), []byte(fragment), 0644))

	err := run(t, "--log-level", "error", "merge", "ADRO", "1m", dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "ADRO_1m_MERGED.json"))
	assert.NoError(t, statErr)
}

func TestMergeCommandNoRawFiles(t *testing.T) {
	dir := t.TempDir()

	err := run(t, "--log-level", "error", "merge", "ADRO", "1m", dir)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "ADRO_1m_MERGED.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMergeCommandMissingDir(t *testing.T) {
	err := run(t, "--log-level", "error", "merge", "ADRO", "1m", "/no/such/dir")
	assert.Error(t, err)
}

func TestBatchCommandWithYes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ADRO_1m_2025-12-19.json"), []byte(fragment), 0644))

	err := run(t, "--log-level", "error", "batch", "--yes", dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "ADRO_1m_MERGED.json"))
	assert.NoError(t, statErr)
}

func TestSanitizeCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ADRO_1m_MERGED.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ADRO_1m_2025-12-19.json"), []byte(fragment), 0644))

	err := run(t, "--log-level", "error", "sanitize", "ADRO", "1m", dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "ADRO_1m_MERGED.json"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dir, "ADRO_1m_2025-12-19.json"))
	assert.NoError(t, statErr)
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ADRO_1m_2025-12-19.json"), []byte(fragment), 0644))

	assert.NoError(t, run(t, "--log-level", "error", "scan", dir))
}

func TestBadLogLevel(t *testing.T) {
	assert.Error(t, run(t, "--log-level", "loud", "scan", t.TempDir()))
}

func TestDirResolutionOrder(t *testing.T) {
	rc := &RootConfig{DataDir: "/flag"}

	assert.Equal(t, "/pos", rc.Dir([]string{"/pos"}, 0))
	assert.Equal(t, "/flag", rc.Dir(nil, 0))

	rc.DataDir = ""
	assert.Equal(t, ".", rc.Dir(nil, 0))
}
