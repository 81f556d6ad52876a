package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/email"
	"github.com/lifetab/lifetab/internal/sentiment"
)

var (
	emailUser           string
	emailNoPseudonymize bool
	emailSentiment      bool
)

var emailCmd = &cobra.Command{
	Use:   "email <mailbox>",
	Short: "Read message activity from a mailbox",
	Long: `Read message activity from a mailbox: either a takeout .zip export
or a standalone .mbox file.

Addresses and message ids are pseudonymized unless --no-pseudonymize is
given. --sentiment scores each message body through the configured
classification server.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := email.DefaultOptions()
		opts.User = userOrConfig(emailUser)
		opts.Pseudonymize = !emailNoPseudonymize && cfg.Reader.Pseudonymize
		opts.Logger = logger

		if emailSentiment {
			classifier, err := sentiment.NewHTTPClassifier(cfg.Sentiment.Server, cfg.Sentiment.Model)
			if err != nil {
				return err
			}
			opts.Classifier = classifier
			opts.SentimentBatchSize = cfg.Sentiment.BatchSize
		}

		t, err := email.ReadActivity(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return writeNDJSON(os.Stdout, t)
	},
}

func init() {
	emailCmd.Flags().StringVar(&emailUser, "user", "", "user id to stamp on rows")
	emailCmd.Flags().BoolVar(&emailNoPseudonymize, "no-pseudonymize", false,
		"keep original addresses and message ids")
	emailCmd.Flags().BoolVar(&emailSentiment, "sentiment", false,
		"score message bodies through the sentiment server")
	rootCmd.AddCommand(emailCmd)
}
