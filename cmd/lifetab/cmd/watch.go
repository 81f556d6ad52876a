package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/watch"
)

var (
	watchUser           string
	watchNoPseudonymize bool
)

var watchCmd = &cobra.Command{
	Use:   "watch-history <export.zip>",
	Short: "Read video watch history from a takeout export",
	Long: `Read video watch history from a takeout export.

Each watch event becomes one row timestamped with the moment playback
started. Video and channel titles are replaced by categorical codes unless
--no-pseudonymize is given.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := watch.DefaultOptions()
		opts.User = userOrConfig(watchUser)
		opts.Pseudonymize = !watchNoPseudonymize && cfg.Reader.Pseudonymize
		opts.Logger = logger

		t, err := watch.ReadHistory(args[0], opts)
		if err != nil {
			return err
		}
		return writeNDJSON(os.Stdout, t)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchUser, "user", "", "user id to stamp on rows")
	watchCmd.Flags().BoolVar(&watchNoPseudonymize, "no-pseudonymize", false,
		"keep original video and channel titles")
	rootCmd.AddCommand(watchCmd)
}
