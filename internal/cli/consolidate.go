package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockpipe/merge"
)

func newConsolidateCmd(rc *RootConfig) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "consolidate [TICKER INTERVAL] [DATA_DIR]",
		Short: "Merge daily fragments into duration-labeled files",
		Long: `Merges strictly-named daily fragments into consolidated files named
TICKER_INTERVAL_<N>days_(START_END).json. With --all, consolidates every
combination found in the directory.`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				dir := rc.Dir(args, 0)
				combos, err := merge.ScanCombos(dir)
				if err != nil {
					return err
				}
				if len(combos) == 0 {
					return fmt.Errorf("no ticker+interval combinations in %s", dir)
				}

				failed := 0
				for _, c := range combos {
					rep, err := merge.Consolidate(cmd.Context(), rc.Log, merge.Options{
						Ticker:   c.Ticker,
						Interval: c.Interval,
						Dir:      dir,
					})
					if err != nil {
						rc.Log.WithError(err).Errorf("consolidate %s_%s", c.Ticker, c.Interval)
						failed++
						continue
					}
					fmt.Printf("Created: %s (%d candles)\n",
						filepath.Base(rep.OutputPath), rep.TotalCandles)
				}
				fmt.Printf("Consolidated %d/%d combinations\n", len(combos)-failed, len(combos))
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("consolidate requires TICKER INTERVAL (or --all)")
			}
			rep, err := merge.Consolidate(cmd.Context(), rc.Log, merge.Options{
				Ticker:   args[0],
				Interval: args[1],
				Dir:      rc.Dir(args, 2),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created: %s (%d candles from %d files)\n",
				filepath.Base(rep.OutputPath), rep.TotalCandles, rep.SourceFiles)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Consolidate every combination in the directory")

	return cmd
}
