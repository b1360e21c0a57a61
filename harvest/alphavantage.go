package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"
)

// AlphaVantageURL is the shared query endpoint.
const AlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantageClient fetches intraday series from Alpha Vantage. The free
// tier allows 5 requests per minute, so the default limiter is conservative
// and rate-limit replies are retried after a cooldown.
type AlphaVantageClient struct {
	APIKey     string
	BaseURL    string
	HTTP       *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	RetryDelay time.Duration
}

// NewAlphaVantageClient returns a client honoring the free-tier limits.
func NewAlphaVantageClient(apiKey string) *AlphaVantageClient {
	return &AlphaVantageClient{
		APIKey:     apiKey,
		BaseURL:    AlphaVantageURL,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
		Limiter:    rate.NewLimiter(rate.Every(15*time.Second), 1),
		MaxRetries: 3,
		RetryDelay: time.Minute,
	}
}

// avIntervals maps our interval tokens onto Alpha Vantage's.
var avIntervals = map[string]string{
	"1m":  "1min",
	"5m":  "5min",
	"15m": "15min",
	"30m": "30min",
	"60m": "60min",
	"1h":  "60min",
}

type avBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// GetIntraday fetches the most recent intraday series for a symbol.
// Timestamps are exchange-local clock times, which is all the fragment
// files need.
func (c *AlphaVantageClient) GetIntraday(ctx context.Context, symbol, interval string) ([]Bar, error) {
	avInterval, ok := avIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval %q", interval)
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("missing Alpha Vantage API key")
	}

	retries := 0
	for {
		bars, retryable, err := c.fetch(ctx, symbol, avInterval)
		if err == nil {
			return bars, nil
		}
		if !retryable || retries >= c.MaxRetries {
			return nil, err
		}
		retries++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
}

func (c *AlphaVantageClient) fetch(ctx context.Context, symbol, avInterval string) (bars []Bar, retryable bool, err error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("symbol", symbol)
	params.Set("interval", avInterval)
	params.Set("outputsize", "full")
	params.Set("apikey", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, resp.StatusCode == http.StatusTooManyRequests,
			fmt.Errorf("API status %d: %s", resp.StatusCode, string(body))
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	// Rate-limit and error replies come back 200 with a message field.
	if note, ok := payload["Note"]; ok {
		return nil, true, fmt.Errorf("rate limited: %s", string(note))
	}
	if msg, ok := payload["Error Message"]; ok {
		return nil, false, fmt.Errorf("API error: %s", string(msg))
	}

	seriesKey := fmt.Sprintf("Time Series (%s)", avInterval)
	raw, ok := payload[seriesKey]
	if !ok {
		return nil, false, fmt.Errorf("no %q in response for %s", seriesKey, symbol)
	}

	var series map[string]avBar
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, false, fmt.Errorf("decode series: %w", err)
	}

	bars = make([]Bar, 0, len(series))
	for ts, rec := range series {
		t, err := time.ParseInLocation("2006-01-02 15:04:05", ts, time.UTC)
		if err != nil {
			continue
		}
		bars = append(bars, Bar{
			Time:   t,
			Open:   parseF(rec.Open),
			High:   parseF(rec.High),
			Low:    parseF(rec.Low),
			Close:  parseF(rec.Close),
			Volume: parseI(rec.Volume),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, false, nil
}
