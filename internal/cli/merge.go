package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockpipe/merge"
)

func newMergeCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "merge TICKER INTERVAL [DATA_DIR]",
		Short: "Merge one ticker+interval's daily fragments into a MERGED artifact",
		Long: `Runs the five-stage pipeline for one ticker and interval: removes stale
derived outputs, discovers raw fragments by filename date, reconstructs full
timestamps from the filename date plus each record's clock time, measures
metadata, and writes TICKER_INTERVAL_MERGED.json.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := merge.Run(cmd.Context(), rc.Log, merge.Options{
				Ticker:   args[0],
				Interval: args[1],
				Dir:      rc.Dir(args, 2),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Merged %d candles from %d files -> %s (%.2f MB)\n",
				rep.TotalCandles, rep.SourceFiles, rep.OutputPath,
				float64(rep.OutputBytes)/(1024*1024))
			fmt.Printf("Range: %s -> %s (%d days)\n",
				rep.Metadata.DataStart, rep.Metadata.DataEnd, rep.Metadata.DurationDays)
			if rep.DroppedRecords > 0 || rep.SkippedFiles > 0 {
				fmt.Printf("Warnings: %d files skipped, %d records dropped\n",
					rep.SkippedFiles, rep.DroppedRecords)
			}
			return nil
		},
	}
}
