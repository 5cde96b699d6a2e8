// Package cmd wires the sharder CLI. The chunking engine lives in the split
// package; everything here is flag parsing and presentation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pb-ai/sharder/envconfig"
	"github.com/pb-ai/sharder/logutil"
	"github.com/pb-ai/sharder/version"
)

func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:     "sharder",
		Short:   "Split safetensors checkpoints into downloadable chunks",
		Version: version.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true

			// Keep the default stream quiet so it doesn't fight the
			// progress bar; SHARDER_DEBUG turns on full engine logging.
			level := slog.LevelWarn
			if envconfig.Debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(logutil.NewLogger(os.Stderr, level))
		},
	}

	rootCmd.AddCommand(
		NewSplitCmd(),
		NewVerifyCmd(),
	)

	return rootCmd
}
