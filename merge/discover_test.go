package merge

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverSortsByEmbeddedDate(t *testing.T) {
	t.Parallel()

	log, _ := newTestLogger()
	dir := t.TempDir()

	// Written out of chronological order on purpose; glob enumeration is
	// lexical, so the sort must come from the date token.
	writeFile(t, dir, "ADRO_1m_2025-12-21.json", validDay)
	writeFile(t, dir, "ADRO_1m_2025-12-19.json", validDay)
	writeFile(t, dir, "ADRO_1m_2025-12-20.json", validDay)

	frags, err := Discover(log, "ADRO", "1m", dir)
	require.NoError(t, err)
	require.Len(t, frags, 3)

	assert.Equal(t, "2025-12-19", frags[0].Date)
	assert.Equal(t, "2025-12-20", frags[1].Date)
	assert.Equal(t, "2025-12-21", frags[2].Date)
}

func TestDiscoverExcludesDerivedOutputs(t *testing.T) {
	t.Parallel()

	log, _ := newTestLogger()
	dir := t.TempDir()

	writeFile(t, dir, "ADRO_1m_2025-12-19.json", validDay)
	writeFile(t, dir, "ADRO_1m_MERGED.json", `{}`)
	writeFile(t, dir, "ADRO_1m_COMBINED.json", `{}`)
	writeFile(t, dir, "ADRO_1m_30days_(2025-12-19_2026-01-15).json", `{}`)

	frags, err := Discover(log, "ADRO", "1m", dir)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Equal(t, "2025-12-19", frags[0].Date)
}

func TestDiscoverIgnoresOtherTickersAndIntervals(t *testing.T) {
	t.Parallel()

	log, _ := newTestLogger()
	dir := t.TempDir()

	writeFile(t, dir, "ADRO_1m_2025-12-19.json", validDay)
	writeFile(t, dir, "ADRO_5m_2025-12-19.json", validDay)
	writeFile(t, dir, "BBRI_1m_2025-12-19.json", validDay)

	frags, err := Discover(log, "ADRO", "1m", dir)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Equal(t, "ADRO_1m_2025-12-19.json", filepath.Base(frags[0].Path))
}

func TestDiscoverWarnsOnUndatedFilename(t *testing.T) {
	t.Parallel()

	log, hook := newTestLogger()
	dir := t.TempDir()

	writeFile(t, dir, "ADRO_1m_2025-12-19.json", validDay)
	writeFile(t, dir, "ADRO_1m_backup.json", validDay)

	frags, err := Discover(log, "ADRO", "1m", dir)
	require.NoError(t, err)
	require.Len(t, frags, 1)

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["file"] == "ADRO_1m_backup.json" {
			warned = true
		}
	}
	assert.True(t, warned, "expected a warning for the undated filename")
}

func TestDiscoverFlagsDuplicateDates(t *testing.T) {
	t.Parallel()

	log, hook := newTestLogger()
	dir := t.TempDir()

	writeFile(t, dir, "ADRO_1m_2025-12-19.json", validDay)
	writeFile(t, dir, "ADRO_1m_retry_2025-12-19.json", validDay)

	frags, err := Discover(log, "ADRO", "1m", dir)
	require.NoError(t, err)
	require.Len(t, frags, 2)

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["date"] == "2025-12-19" {
			warned = true
		}
	}
	assert.True(t, warned, "expected a duplicate-date warning")
}

func TestDiscoverNoRawFiles(t *testing.T) {
	t.Parallel()

	log, _ := newTestLogger()
	dir := t.TempDir()

	writeFile(t, dir, "ADRO_1m_MERGED.json", `{}`)

	_, err := Discover(log, "ADRO", "1m", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRawFiles))
}
