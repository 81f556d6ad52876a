package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/mhealth"
)

var mhealthUser string

var mhealthCmd = &cobra.Command{
	Use:   "mhealth <schema> <file.json>",
	Short: "Read Open mHealth measurement records from a JSON file",
	Long: `Read Open mHealth measurement records from a JSON file holding a
record array.

Supported schemas:
  total-sleep-time
  heart-rate
`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := mhealth.Options{
			User:   userOrConfig(mhealthUser),
			Logger: logger,
		}

		switch args[0] {
		case "total-sleep-time":
			t, err := mhealth.ReadTotalSleepTimeFile(args[1], opts)
			if err != nil {
				return err
			}
			return writeNDJSON(os.Stdout, t)
		case "heart-rate":
			t, err := mhealth.ReadHeartRateFile(args[1], opts)
			if err != nil {
				return err
			}
			return writeNDJSON(os.Stdout, t)
		default:
			return fmt.Errorf("unknown mhealth schema %q", args[0])
		}
	},
}

func init() {
	mhealthCmd.Flags().StringVar(&mhealthUser, "user", "", "user id to stamp on rows")
	rootCmd.AddCommand(mhealthCmd)
}
