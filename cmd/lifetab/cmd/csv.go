package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/csvdata"
)

var (
	csvTimezone string
	csvGroup    string
)

var csvCmd = &cobra.Command{
	Use:   "csv <file.csv>",
	Short: "Read a generic sensor log from CSV",
	Long: `Read a generic sensor log from CSV.

A unixtime "time" column becomes the row timestamp (in --tz) and a "user"
column the row user. --group adds a cohort label column.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := resolveTimezone(csvTimezone)
		if err != nil {
			return err
		}
		t, err := csvdata.ReadFile(args[0], csvdata.Options{
			Location: loc,
			Group:    csvGroup,
		})
		if err != nil {
			return err
		}
		return writeNDJSON(os.Stdout, t)
	},
}

func init() {
	csvCmd.Flags().StringVar(&csvTimezone, "tz", "", "IANA timezone for timestamps (default from config)")
	csvCmd.Flags().StringVar(&csvGroup, "group", "", "cohort label to add as a group column")
	rootCmd.AddCommand(csvCmd)
}

// resolveTimezone loads the flag timezone, falling back to the configured
// default.
func resolveTimezone(flag string) (*time.Location, error) {
	name := flag
	if name == "" {
		name = cfg.Reader.Timezone
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}
