package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(detailedCmd)
}

var detailedCmd = &cobra.Command{
	Use:   "detailed",
	Short: "One row per candidate, lists the candidates of every ward.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHarvest(cmd, modeDetailed)
	},
}
