package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lifetab/lifetab/internal/chat"
	"github.com/lifetab/lifetab/internal/sentiment"
)

var (
	chatUser           string
	chatNoPseudonymize bool
	chatSentiment      bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <export.zip>",
	Short: "Read group chat messages from a takeout export",
	Long: `Read group chat messages from a takeout export.

Messages from every group conversation are concatenated into one table with
a per-group index. Creator names and emails are pseudonymized unless
--no-pseudonymize is given.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := chat.DefaultOptions()
		opts.User = userOrConfig(chatUser)
		opts.Pseudonymize = !chatNoPseudonymize && cfg.Reader.Pseudonymize
		opts.Logger = logger

		if chatSentiment {
			classifier, err := sentiment.NewHTTPClassifier(cfg.Sentiment.Server, cfg.Sentiment.Model)
			if err != nil {
				return err
			}
			opts.Classifier = classifier
			opts.SentimentBatchSize = cfg.Sentiment.BatchSize
		}

		t, err := chat.ReadMessages(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return writeNDJSON(os.Stdout, t)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", "", "user id to stamp on rows")
	chatCmd.Flags().BoolVar(&chatNoPseudonymize, "no-pseudonymize", false,
		"keep original creator names and emails")
	chatCmd.Flags().BoolVar(&chatSentiment, "sentiment", false,
		"score message text through the sentiment server")
	rootCmd.AddCommand(chatCmd)
}
