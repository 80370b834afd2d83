package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	outputPath string
)

var rootCmd = &cobra.Command{
	Use:   "lbtrend",
	Short: "lbtrend harvests Kerala local body election trends into a flat table.",
	Long: `lbtrend crawls every district, local body and ward published by the
trend site and writes one row per ward (summary) or one row per candidate
(detailed). Without a subcommand it runs the summary harvest.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHarvest(cmd, "")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "lbtrend.json5", "config file, <name>.local.json5 is merged on top")
	rootCmd.PersistentFlags().StringVar(&outputPath, "out", "", "output path, overrides the config")
}

// ExecuteContext runs the command line and prints the error it failed with,
// exiting is left to the caller.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
