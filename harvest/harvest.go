package harvest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/stockpipe/market"
)

func parseF(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseI(s string) int64 {
	f, _ := strconv.ParseFloat(s, 64)
	return int64(f)
}

// Provider names accepted by Options.
const (
	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
)

// Options configures one harvest run over a set of tickers.
type Options struct {
	Tickers  []string
	Interval string
	Days     int // yahoo chunked download span, multiple of 7
	Dir      string
	Provider string
	Clean    bool          // delete old fragments per ticker before writing
	Delay    time.Duration // pause between tickers
}

// Report tallies a harvest run.
type Report struct {
	Succeeded  int
	Failed     int
	FilesSaved int
}

// Harvester drives one or both provider clients and the fragment writer.
type Harvester struct {
	Yahoo *YahooClient
	Alpha *AlphaVantageClient
	Log   *logrus.Logger
}

// Run downloads bars for every ticker and writes daily fragment files. A
// ticker that fails is recorded and the run continues; only cancellation
// aborts early.
func (h *Harvester) Run(ctx context.Context, opts Options) (*Report, error) {
	if len(opts.Tickers) == 0 {
		opts.Tickers = market.DefaultIDXTickers
	}
	if opts.Interval == "" {
		opts.Interval = "1m"
	}
	if !market.ValidInterval(opts.Interval) {
		return nil, fmt.Errorf("invalid interval %q", opts.Interval)
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	rep := &Report{}

	for i, ticker := range opts.Tickers {
		if i > 0 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return rep, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		symbol := market.YahooSymbol(ticker)
		clean := market.CleanTicker(symbol)
		tlog := h.Log.WithFields(logrus.Fields{
			"ticker":   clean,
			"symbol":   symbol,
			"interval": opts.Interval,
		})

		bars, err := h.fetch(ctx, symbol, opts)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			tlog.WithError(err).Error("harvest failed")
			rep.Failed++
			continue
		}
		if len(bars) == 0 {
			tlog.Warn("no data, skipping ticker")
			rep.Failed++
			continue
		}

		if opts.Clean {
			CleanFragments(h.Log, clean, opts.Interval, dir)
		}

		n, err := WriteDailyFragments(h.Log, clean, opts.Interval, dir, bars)
		if err != nil {
			tlog.WithError(err).Error("writing fragments failed")
			rep.Failed++
			continue
		}

		tlog.WithFields(logrus.Fields{
			"candles": len(bars),
			"files":   n,
		}).Info("harvested ticker")
		rep.FilesSaved += n
		rep.Succeeded++
	}

	return rep, nil
}

func (h *Harvester) fetch(ctx context.Context, symbol string, opts Options) ([]Bar, error) {
	switch opts.Provider {
	case "", ProviderYahoo:
		if h.Yahoo == nil {
			return nil, fmt.Errorf("yahoo client not configured")
		}
		days := opts.Days
		if days == 0 {
			days = 28
		}
		return h.Yahoo.GetBarsChunked(ctx, h.Log, symbol, opts.Interval, days)
	case ProviderAlphaVantage:
		if h.Alpha == nil {
			return nil, fmt.Errorf("alphavantage client not configured")
		}
		return h.Alpha.GetIntraday(ctx, symbol, opts.Interval)
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
}
