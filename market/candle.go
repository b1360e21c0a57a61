package market

import "time"

// Candle is one OHLCV price bar as persisted in merged artifacts. Timestamp
// is an ISO-8601 string with an explicit zone marker, second precision.
type Candle struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// Time parses the candle timestamp as an RFC 3339 instant.
func (c Candle) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, c.Timestamp)
}
