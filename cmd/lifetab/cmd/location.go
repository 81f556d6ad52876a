package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/location"
)

var (
	locationUser      string
	locationActivity  string
	locationThreshold float64
	locationKeepRaw   bool
)

var locationCmd = &cobra.Command{
	Use:   "location <export.zip>",
	Short: "Read location history from a takeout export",
	Long: `Read location history from a takeout export.

Encoded coordinates are converted to degrees, the activity annotation is
resolved per --activity, and rows are written as NDJSON.

Examples:
  lifetab location takeout.zip
  lifetab location takeout.zip --activity threshold --threshold 40
`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := location.DefaultOptions()
		opts.User = userOrConfig(locationUser)
		opts.InferredActivity = location.ActivityMode(locationActivity)
		opts.ActivityThreshold = locationThreshold
		opts.KeepRawColumns = locationKeepRaw
		opts.Logger = logger

		t, err := location.ReadHistory(args[0], opts)
		if err != nil {
			return err
		}
		return writeNDJSON(os.Stdout, t)
	},
}

func init() {
	locationCmd.Flags().StringVar(&locationUser, "user", "", "user id to stamp on rows")
	locationCmd.Flags().StringVar(&locationActivity, "activity", string(location.ActivityHighest),
		"activity resolution mode: highest, all or threshold")
	locationCmd.Flags().Float64Var(&locationThreshold, "threshold", 0,
		"confidence cutoff for --activity threshold")
	locationCmd.Flags().BoolVar(&locationKeepRaw, "keep-raw-columns", false,
		"keep raw export columns instead of dropping them")
	rootCmd.AddCommand(locationCmd)
}

// userOrConfig resolves the per-command user flag against the configured
// default.
func userOrConfig(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Reader.User
}
