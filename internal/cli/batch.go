package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockpipe/merge"
)

func newBatchCmd(rc *RootConfig) *cobra.Command {
	var (
		timeout time.Duration
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "batch [DATA_DIR]",
		Short: "Merge every ticker+interval combination found in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rc.Dir(args, 0)

			combos, err := merge.ScanCombos(dir)
			if err != nil {
				return err
			}
			if len(combos) == 0 {
				return fmt.Errorf("no ticker+interval combinations in %s", dir)
			}

			printCombos(combos)

			if !yes && !confirm(cmd, fmt.Sprintf("Merge all %d combinations? [y/N]: ", len(combos))) {
				fmt.Println("Aborted.")
				return nil
			}

			br, err := merge.RunBatch(cmd.Context(), rc.Log, merge.BatchOptions{
				Dir:         dir,
				ItemTimeout: timeout,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\nBatch %s: %d succeeded, %d failed\n", br.RunID, br.Succeeded, br.Failed)
			if names := br.FailedNames(); len(names) > 0 {
				fmt.Printf("Failed items: %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Per-item timeout")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func printCombos(combos []merge.Combo) {
	byTicker := make(map[string][]string)
	var order []string
	for _, c := range combos {
		if _, ok := byTicker[c.Ticker]; !ok {
			order = append(order, c.Ticker)
		}
		byTicker[c.Ticker] = append(byTicker[c.Ticker], c.Interval)
	}

	fmt.Printf("Found %d combinations across %d tickers:\n", len(combos), len(order))
	for _, ticker := range order {
		fmt.Printf("  %-10s [ %s ]\n", ticker, strings.Join(byTicker[ticker], ", "))
	}
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
