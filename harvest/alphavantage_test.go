package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const avPayload = `{
	"Meta Data": {"2. Symbol": "BBCA.JK"},
	"Time Series (1min)": {
		"2025-12-19 09:31:00": {
			"1. open": "2450.00", "2. high": "2460.00", "3. low": "2445.00",
			"4. close": "2455.00", "5. volume": "128500"
		},
		"2025-12-19 09:30:00": {
			"1. open": "2445.00", "2. high": "2455.00", "3. low": "2440.00",
			"4. close": "2450.00", "5. volume": "120000"
		}
	}
}`

func testAVClient(baseURL string) *AlphaVantageClient {
	return &AlphaVantageClient{
		APIKey:     "demo",
		BaseURL:    baseURL,
		HTTP:       &http.Client{Timeout: 5 * time.Second},
		Limiter:    rate.NewLimiter(rate.Inf, 1),
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}
}

func TestAlphaVantageGetIntraday(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "TIME_SERIES_INTRADAY", q.Get("function"))
		assert.Equal(t, "BBCA.JK", q.Get("symbol"))
		assert.Equal(t, "1min", q.Get("interval"), "interval token mapped to provider format")
		assert.Equal(t, "demo", q.Get("apikey"))

		_, _ = w.Write([]byte(avPayload))
	}))
	defer server.Close()

	client := testAVClient(server.URL)

	bars, err := client.GetIntraday(context.Background(), "BBCA.JK", "1m")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	// Series arrives as an unordered map; output must be chronological.
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 2445.0, bars[0].Open)
	assert.Equal(t, int64(120000), bars[0].Volume)
}

func TestAlphaVantageRetriesOnRateLimitNote(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
			return
		}
		_, _ = w.Write([]byte(avPayload))
	}))
	defer server.Close()

	client := testAVClient(server.URL)

	bars, err := client.GetIntraday(context.Background(), "BBCA.JK", "1m")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, bars, 2)
}

func TestAlphaVantageGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note": "rate limited"}`))
	}))
	defer server.Close()

	client := testAVClient(server.URL)

	_, err := client.GetIntraday(context.Background(), "BBCA.JK", "1m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAlphaVantageErrorMessageNotRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	}))
	defer server.Close()

	client := testAVClient(server.URL)

	_, err := client.GetIntraday(context.Background(), "BBCA.JK", "1m")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestAlphaVantageUnsupportedInterval(t *testing.T) {
	t.Parallel()

	client := NewAlphaVantageClient("demo")

	_, err := client.GetIntraday(context.Background(), "BBCA.JK", "2h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported interval")
}

func TestAlphaVantageMissingKey(t *testing.T) {
	t.Parallel()

	client := NewAlphaVantageClient("")

	_, err := client.GetIntraday(context.Background(), "BBCA.JK", "1m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
