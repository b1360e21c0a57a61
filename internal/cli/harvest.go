package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/stockpipe/harvest"
)

func newHarvestCmd(rc *RootConfig) *cobra.Command {
	var (
		tickers  []string
		interval string
		days     int
		provider string
		apiKey   string
		clean    bool
		delay    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "harvest [DATA_DIR]",
		Short: "Download intraday bars and write daily fragment files",
		Long: `Downloads intraday bars for IDX tickers from Yahoo Finance (7-day
chunked windows) or Alpha Vantage and writes one TICKER_INTERVAL_DATE.json
fragment per trading day, ready for the merge pipeline.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := harvest.Options{
				Tickers:  tickers,
				Interval: interval,
				Days:     days,
				Dir:      rc.Dir(args, 0),
				Provider: provider,
				Clean:    clean,
				Delay:    delay,
			}

			// Flags win; the config file fills in what was not given.
			if rc.Config != nil {
				hc := rc.Config.Harvest
				if !cmd.Flags().Changed("provider") && hc.Provider != "" {
					opts.Provider = hc.Provider
				}
				if !cmd.Flags().Changed("days") && hc.Days > 0 {
					opts.Days = hc.Days
				}
				if !cmd.Flags().Changed("tickers") && len(rc.Config.Tickers) > 0 {
					opts.Tickers = rc.Config.Tickers
				}
				if apiKey == "" {
					apiKey = hc.APIKey
				}
				if !cmd.Flags().Changed("delay") {
					if d, err := hc.ParseTickerDelay(); err == nil && d > 0 {
						opts.Delay = d
					}
				}
			}
			if apiKey == "" {
				apiKey = strings.TrimSpace(os.Getenv("ALPHAVANTAGE_API_KEY"))
			}
			if opts.Provider == harvest.ProviderAlphaVantage && apiKey == "" {
				return fmt.Errorf("missing API key: set --api-key or env ALPHAVANTAGE_API_KEY")
			}

			h := &harvest.Harvester{
				Yahoo: harvest.NewYahooClient(),
				Alpha: harvest.NewAlphaVantageClient(apiKey),
				Log:   rc.Log,
			}
			if rc.Config != nil && rc.Config.Harvest.RequestsPerSecond > 0 {
				h.Yahoo.Limiter = rate.NewLimiter(rate.Limit(rc.Config.Harvest.RequestsPerSecond), 4)
			}

			rep, err := h.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Printf("Harvest complete: %d tickers succeeded, %d failed, %d files written\n",
				rep.Succeeded, rep.Failed, rep.FilesSaved)
			if rep.Succeeded == 0 {
				return fmt.Errorf("no ticker produced data")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "Tickers to harvest (default: built-in IDX list)")
	cmd.Flags().StringVar(&interval, "interval", "1m", "Bar interval (1m, 5m, 15m, 30m, 60m)")
	cmd.Flags().IntVar(&days, "days", 28, "Days to download, multiple of 7 (yahoo)")
	cmd.Flags().StringVar(&provider, "provider", "yahoo", "Data provider: yahoo|alphavantage")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Alpha Vantage API key (or env ALPHAVANTAGE_API_KEY)")
	cmd.Flags().BoolVar(&clean, "clean", false, "Delete old fragments per ticker before writing")
	cmd.Flags().DurationVar(&delay, "delay", 2*time.Second, "Delay between tickers")

	return cmd
}
