package merge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/stockpipe/market"
)

// Artifact is the terminal merged output for one ticker+interval.
type Artifact struct {
	Ticker   string          `json:"ticker"`
	Interval string          `json:"interval"`
	Metadata Metadata        `json:"metadata"`
	Candles  []market.Candle `json:"candles"`
}

// MergedFilename is the deterministic output name for a ticker+interval.
func MergedFilename(ticker, interval string) string {
	return fmt.Sprintf("%s_%s_MERGED.json", ticker, interval)
}

// Package assembles the merged artifact, extends the metadata with the raw
// source-file count, and writes it to its deterministic path, overwriting
// any prior artifact. A write failure is fatal for the item. Returns the
// output path and its size in bytes.
func Package(log *logrus.Logger, ticker, interval string, md Metadata, candles []market.Candle, sourceFiles int, dir string) (string, int64, error) {
	md.SourceFileCount = sourceFiles

	art := Artifact{
		Ticker:   ticker,
		Interval: interval,
		Metadata: md,
		Candles:  candles,
	}

	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("marshal artifact: %w", err)
	}

	path := filepath.Join(dir, MergedFilename(ticker, interval))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}

	size := int64(len(data))
	log.WithFields(logrus.Fields{
		"file":  filepath.Base(path),
		"bytes": size,
	}).Info("wrote merged artifact")

	return path, size, nil
}
