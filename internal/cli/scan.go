package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockpipe/merge"
)

func newScanCmd(rc *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [DATA_DIR]",
		Short: "List ticker+interval combinations available in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rc.Dir(args, 0)

			combos, err := merge.ScanCombos(dir)
			if err != nil {
				return err
			}
			if len(combos) == 0 {
				fmt.Printf("No raw fragments in %s\n", dir)
				return nil
			}

			printCombos(combos)
			return nil
		},
	}
}
