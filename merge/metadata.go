package merge

import (
	"fmt"
	"time"

	"github.com/rustyeddy/stockpipe/market"
)

// Metadata summarizes one merged candle sequence. It is always computed
// fresh from the final sequence, never carried over from a prior run.
type Metadata struct {
	DataStart       string `json:"data_start"`
	DataEnd         string `json:"data_end"`
	TotalCandles    int    `json:"total_candles"`
	DurationDays    int    `json:"duration_days"`
	GeneratedAt     string `json:"generated_at"`
	SourceFileCount int    `json:"source_file_count"`
}

// Measure derives metadata from the final candle sequence, trusting its
// order: the first and last timestamps become the data range. An empty
// sequence is fatal for the item.
func Measure(candles []market.Candle) (Metadata, error) {
	if len(candles) == 0 {
		return Metadata{}, ErrNoCandles
	}

	md := Metadata{
		DataStart:    candles[0].Timestamp,
		DataEnd:      candles[len(candles)-1].Timestamp,
		TotalCandles: len(candles),
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	start, err := candles[0].Time()
	if err != nil {
		return Metadata{}, fmt.Errorf("parse data_start %q: %w", md.DataStart, err)
	}
	end, err := candles[len(candles)-1].Time()
	if err != nil {
		return Metadata{}, fmt.Errorf("parse data_end %q: %w", md.DataEnd, err)
	}
	md.DurationDays = int(end.Sub(start).Hours() / 24)

	return md, nil
}
