package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/sqldata"
)

var (
	sqliteTable    string
	sqliteUser     string
	sqliteLimit    int
	sqliteOffset   int
	sqliteStart    string
	sqliteEnd      string
	sqliteTimezone string
	sqliteGroup    string
)

var sqliteCmd = &cobra.Command{
	Use:   "sqlite <database>",
	Short: "Read a sensor table from a SQLite database",
	Long: `Read a sensor table from a SQLite database.

The table's unixtime "time" column becomes the row timestamp (in --tz) and
its "user" column the row user. Rows can be filtered by user and time range.

Examples:
  lifetab sqlite data.sqlite --table AwareScreen
  lifetab sqlite data.sqlite --table AwareScreen --user jd9INuQ --limit 100
`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sqliteTable == "" {
			return fmt.Errorf("--table is required")
		}
		loc, err := resolveTimezone(sqliteTimezone)
		if err != nil {
			return err
		}
		start, err := parseTimeFlag(sqliteStart)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		end, err := parseTimeFlag(sqliteEnd)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}

		db, err := sqldata.Open(args[0])
		if err != nil {
			return err
		}
		defer db.Close()

		t, err := db.Read(cmd.Context(), sqldata.Options{
			Table:    sqliteTable,
			User:     sqliteUser,
			Limit:    sqliteLimit,
			Offset:   sqliteOffset,
			Start:    start,
			End:      end,
			Location: loc,
			Group:    sqliteGroup,
		})
		if err != nil {
			return err
		}
		return writeNDJSON(os.Stdout, t)
	},
}

var tablesCmd = &cobra.Command{
	Use:          "tables <database>",
	Short:        "List tables in a SQLite sensor database",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqldata.Open(args[0])
		if err != nil {
			return err
		}
		defer db.Close()

		names, err := db.Tables(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(os.Stdout, name)
		}
		return nil
	},
}

func init() {
	sqliteCmd.Flags().StringVar(&sqliteTable, "table", "", "table to read (required)")
	sqliteCmd.Flags().StringVar(&sqliteUser, "user", "", "filter rows to one user")
	sqliteCmd.Flags().IntVar(&sqliteLimit, "limit", 0, "maximum rows to return")
	sqliteCmd.Flags().IntVar(&sqliteOffset, "offset", 0, "rows to skip (with --limit)")
	sqliteCmd.Flags().StringVar(&sqliteStart, "start", "", "start of time range (RFC 3339 or YYYY-MM-DD)")
	sqliteCmd.Flags().StringVar(&sqliteEnd, "end", "", "end of time range (RFC 3339 or YYYY-MM-DD)")
	sqliteCmd.Flags().StringVar(&sqliteTimezone, "tz", "", "IANA timezone for timestamps (default from config)")
	sqliteCmd.Flags().StringVar(&sqliteGroup, "group", "", "cohort label to add as a group column")
	rootCmd.AddCommand(sqliteCmd)
	rootCmd.AddCommand(tablesCmd)
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
