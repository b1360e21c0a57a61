package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/stockpipe/config"
)

// RootConfig carries the persistent flags and the resources built from them
// into every subcommand.
type RootConfig struct {
	ConfigPath string
	DataDir    string
	LogLevel   string
	NoColor    bool

	Log    *logrus.Logger
	Config *config.Config
}

// Dir resolves the working data directory: an explicit positional argument
// wins, then the --data-dir flag, then the config file.
func (rc *RootConfig) Dir(args []string, pos int) string {
	if len(args) > pos {
		return args[pos]
	}
	if rc.DataDir != "" {
		return rc.DataDir
	}
	if rc.Config != nil && rc.Config.DataDir != "" {
		return rc.Config.DataDir
	}
	return "."
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "stockpipe",
		Short:         "IDX intraday candle tooling: harvest, merge, consolidate",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DataDir, "data-dir", "", "Data directory (default \".\")")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&rc.NoColor, "no-color", false, "Disable colored output")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(rc.LogLevel)
		if err != nil {
			return fmt.Errorf("bad --log-level: %w", err)
		}

		log := logrus.New()
		log.SetOutput(os.Stderr)
		log.SetLevel(level)
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: rc.NoColor,
			FullTimestamp: true,
		})
		rc.Log = log

		if rc.ConfigPath != "" {
			cfg, err := config.LoadFromFile(rc.ConfigPath)
			if err != nil {
				return err
			}
			rc.Config = cfg
		}
		return nil
	}

	// Subcommands
	cmd.AddCommand(
		newMergeCmd(rc),
		newBatchCmd(rc),
		newConsolidateCmd(rc),
		newSanitizeCmd(rc),
		newScanCmd(rc),
		newHarvestCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("stockpipe (dev)")
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
