package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/csvdata"
	"github.com/lifetab/lifetab/internal/feature"
)

var (
	featureNames    []string
	featureValueCol string
	featureTimezone string
	featureGroup    string
)

var featuresCmd = &cobra.Command{
	Use:   "features <file.csv>",
	Short: "Compute features over a sensor log",
	Long: fmt.Sprintf(`Compute features over a CSV sensor log.

Selected features (all when --feature is not given) are computed per
(user, device) grouping key and concatenated column-wise.

Registered features: %s
`, strings.Join(feature.Names(), ", ")),
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := resolveTimezone(featureTimezone)
		if err != nil {
			return err
		}
		t, err := csvdata.ReadFile(args[0], csvdata.Options{
			Location: loc,
			Group:    featureGroup,
		})
		if err != nil {
			return err
		}

		var selected map[string]feature.Params
		if len(featureNames) > 0 {
			selected = make(map[string]feature.Params, len(featureNames))
			for _, name := range featureNames {
				if _, ok := feature.Lookup(name); !ok {
					return fmt.Errorf("unknown feature %q (registered: %s)",
						name, strings.Join(feature.Names(), ", "))
				}
				params := feature.Params{}
				if featureValueCol != "" {
					params["value_col"] = featureValueCol
				}
				selected[name] = params
			}
		}

		result, err := feature.Extract(t, selected)
		if err != nil {
			return err
		}
		return writeNDJSON(os.Stdout, result)
	},
}

func init() {
	featuresCmd.Flags().StringSliceVar(&featureNames, "feature", nil,
		"feature to compute (repeatable; default all)")
	featuresCmd.Flags().StringVar(&featureValueCol, "value-col", "",
		"measurement column name (default steps)")
	featuresCmd.Flags().StringVar(&featureTimezone, "tz", "", "IANA timezone for timestamps")
	featuresCmd.Flags().StringVar(&featureGroup, "group", "", "cohort label to add as a group column")
	rootCmd.AddCommand(featuresCmd)
}
