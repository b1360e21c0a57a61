// Package harvest downloads intraday bars for IDX tickers from Yahoo
// Finance and Alpha Vantage and writes them as the per-day JSON fragment
// files the merge pipeline consumes.
package harvest

import "time"

// Bar is one downloaded intraday bar, still carrying its full instant.
// Fragment files flatten this to a clock time plus a filename-embedded date.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
