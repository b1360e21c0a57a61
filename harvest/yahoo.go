package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// YahooChartURL is the base of the v8 chart endpoint.
const YahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// chunkDays is the intraday window the chart endpoint serves per request.
const chunkDays = 7

// YahooClient fetches intraday bars from the Yahoo Finance chart API.
type YahooClient struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
}

// NewYahooClient returns a client with sane defaults and a polite request
// rate.
func NewYahooClient() *YahooClient {
	return &YahooClient{
		BaseURL: YahooChartURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// chartResponse mirrors the slice of the v8 payload we consume. Price and
// volume arrays carry nulls for halted minutes, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetBars fetches one window of intraday bars for a symbol.
func (c *YahooClient) GetBars(ctx context.Context, symbol, interval string, start, end time.Time) ([]Bar, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	params.Set("period2", fmt.Sprintf("%d", end.Unix()))
	params.Set("interval", interval)
	params.Set("includePrePost", "false")

	apiURL := fmt.Sprintf("%s/%s?%s", c.BaseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chart API status %d: %s", resp.StatusCode, string(body))
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart result for %s", symbol)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		// Halted or empty minutes come back as nulls; skip the bar.
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}

		b := Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  *quote.Open[i],
			High:  *quote.High[i],
			Low:   *quote.Low[i],
			Close: *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			b.Volume = *quote.Volume[i]
		}
		bars = append(bars, b)
	}

	return bars, nil
}

// GetBarsChunked downloads an intraday range in 7-day windows walking back
// from now, then dedups the overlap keeping the first occurrence. days must
// be a multiple of 7.
func (c *YahooClient) GetBarsChunked(ctx context.Context, log *logrus.Logger, symbol, interval string, days int) ([]Bar, error) {
	if days <= 0 || days%chunkDays != 0 {
		return nil, fmt.Errorf("days must be a positive multiple of %d, got %d", chunkDays, days)
	}

	numChunks := days / chunkDays
	var all []Bar

	for i := 0; i < numChunks; i++ {
		end := time.Now().AddDate(0, 0, -i*chunkDays)
		start := end.AddDate(0, 0, -chunkDays)

		clog := log.WithFields(logrus.Fields{
			"symbol": symbol,
			"chunk":  fmt.Sprintf("%d/%d", i+1, numChunks),
			"from":   start.Format("2006-01-02"),
			"to":     end.Format("2006-01-02"),
		})

		bars, err := c.GetBars(ctx, symbol, interval, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			clog.WithError(err).Warn("chunk failed, continuing")
			continue
		}

		clog.WithField("candles", len(bars)).Debug("chunk downloaded")
		all = append(all, bars...)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no data retrieved for %s", symbol)
	}

	before := len(all)
	all = Dedup(all)
	if removed := before - len(all); removed > 0 {
		log.WithFields(logrus.Fields{
			"symbol":  symbol,
			"removed": removed,
		}).Debug("removed duplicate bars from chunk overlap")
	}

	return all, nil
}
