package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockpipe/merge"
)

func newSanitizeCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize TICKER INTERVAL [DATA_DIR]",
		Short: "Delete stale derived outputs for one ticker+interval",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted := merge.Sanitize(rc.Log, args[0], args[1], rc.Dir(args, 2))
			if deleted == 0 {
				fmt.Println("No stale outputs to remove.")
			} else {
				fmt.Printf("Removed %d stale output file(s).\n", deleted)
			}
			return nil
		},
	}
}
