package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/fitness"
)

var fitnessUser string

var fitnessCmd = &cobra.Command{
	Use:   "fitness <export.zip>",
	Short: "Read daily activity metrics from a takeout export",
	Long: `Read daily activity metrics from a takeout export.

Each per-date CSV under the daily metrics folder becomes rows of interval
measurements; duration columns are converted to real durations.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := fitness.ReadDailyMetrics(args[0], fitness.Options{
			User:   userOrConfig(fitnessUser),
			Logger: logger,
		})
		if err != nil {
			return err
		}
		return writeNDJSON(os.Stdout, t)
	},
}

func init() {
	fitnessCmd.Flags().StringVar(&fitnessUser, "user", "", "user id to stamp on rows")
	rootCmd.AddCommand(fitnessCmd)
}
