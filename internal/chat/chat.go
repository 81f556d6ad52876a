// Package chat reads group-conversation messages from an export package: one
// identity member naming the account owner, and one message-list member per
// group conversation. Messages are flattened into a Record Table tagged with
// a per-group index.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lifetab/lifetab/internal/jsonutil"
	"github.com/lifetab/lifetab/internal/pseudo"
	"github.com/lifetab/lifetab/internal/sentiment"
	"github.com/lifetab/lifetab/internal/table"
	"github.com/lifetab/lifetab/internal/takeout"
)

const (
	usersPrefix    = "Takeout/Google Chat/Users/"
	userInfoSuffix = "user_info.json"
	groupsPrefix   = "Takeout/Google Chat/Groups/"
	messagesSuffix = "messages.json"

	// Message creation times are exported in long human-readable form, e.g.
	// "Tuesday, January 30, 2024 at 1:27:33 PM UTC".
	createdDateLayout = "Monday, January 2, 2006 at 3:04:05 PM MST"
)

// Options configures a chat read.
type Options struct {
	// User is stamped on every row; empty means a freshly generated id.
	User string
	// Pseudonymize replaces creator emails and display names with codes,
	// each namespace reserving 0 for the account owner.
	Pseudonymize bool
	// Classifier enables sentiment scoring of message text when non-nil.
	Classifier         sentiment.Classifier
	SentimentBatchSize int
	Logger             *slog.Logger
}

// DefaultOptions returns the default chat read configuration.
func DefaultOptions() Options {
	return Options{
		Pseudonymize:       true,
		SentimentBatchSize: sentiment.DefaultBatchSize,
	}
}

type identity struct {
	Email string
	Name  string
}

// ReadMessages reads all group conversations from the export package at
// path. A package with no group message members yields an empty table.
func ReadMessages(ctx context.Context, path string, opts Options) (*table.Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ar, err := takeout.Open(path)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	owner, err := readOwnerIdentity(ar, logger)
	if err != nil {
		return nil, err
	}

	groupMembers := ar.Glob(groupsPrefix, messagesSuffix)
	if len(groupMembers) == 0 {
		return table.New(), nil
	}

	t := table.New()
	t.AddColumn("chat_group")
	t.AddColumn("creator.name")
	t.AddColumn("creator.email")
	t.AddColumn("character_count")
	t.AddColumn("word_count")

	var texts []string
	for groupIndex, member := range groupMembers {
		data, err := ar.ReadMember(member)
		if err != nil {
			return nil, err
		}
		var payload struct {
			Messages []map[string]any `json:"messages"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parse %q: %w", member, err)
		}

		for _, msg := range payload.Messages {
			vals := jsonutil.Flatten(msg)
			vals["chat_group"] = groupIndex

			var ts time.Time
			if created, ok := vals["created_date"].(string); ok {
				parsed, err := time.Parse(createdDateLayout, created)
				if err != nil {
					logger.Warn("could not parse chat timestamp", "value", created)
				} else {
					ts = parsed
				}
			}
			delete(vals, "created_date")

			text, _ := vals["text"].(string)
			delete(vals, "text")
			texts = append(texts, text)
			vals["character_count"] = float64(utf8.RuneCountInString(text))
			vals["word_count"] = float64(len(strings.Fields(text)))

			t.Append(table.Row{Timestamp: ts, Values: vals})
		}
	}

	if opts.Pseudonymize {
		pseudonymizeCreators(t, owner)
	}

	if opts.Classifier != nil {
		scores, err := sentiment.ClassifyBatched(ctx, opts.Classifier, texts, opts.SentimentBatchSize)
		if err != nil {
			return nil, fmt.Errorf("sentiment analysis: %w", err)
		}
		for i, s := range scores {
			t.Set(i, "sentiment", s.Label)
			t.Set(i, "sentiment_score", s.Score)
		}
	}

	t.NormalizeColumnNames()

	user := opts.User
	if user == "" {
		user = uuid.NewString()
	}
	t.SetUser(user)
	return t, nil
}

// readOwnerIdentity finds the account owner's identity member. More than one
// identity in a single export is unexpected; the first is used with a
// warning.
func readOwnerIdentity(ar *takeout.Archive, logger *slog.Logger) (identity, error) {
	members := ar.Glob(usersPrefix, userInfoSuffix)
	if len(members) == 0 {
		return identity{}, nil
	}
	if len(members) > 1 {
		logger.Warn("multiple user identities found, using the first", "count", len(members))
	}

	data, err := ar.ReadMember(members[0])
	if err != nil {
		return identity{}, err
	}
	var info struct {
		User struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return identity{}, fmt.Errorf("parse %q: %w", members[0], err)
	}
	return identity{Email: info.User.Email, Name: info.User.Name}, nil
}

// pseudonymizeCreators remaps creator emails and names to integer codes,
// each in its own namespace with the owner at 0.
func pseudonymizeCreators(t *table.Table, owner identity) {
	emailBook := pseudo.NewCodebook()
	nameBook := pseudo.NewCodebook()
	if owner.Email != "" {
		emailBook.SetSelf(owner.Email)
	}
	if owner.Name != "" {
		nameBook.SetSelf(owner.Name)
	}

	for i, r := range t.Rows() {
		email, _ := r.String("creator.email")
		if code, ok := emailBook.Code(email); ok {
			t.Set(i, "creator.email", code)
		} else {
			t.Set(i, "creator.email", nil)
		}
		name, _ := r.String("creator.name")
		if code, ok := nameBook.Code(name); ok {
			t.Set(i, "creator.name", code)
		} else {
			t.Set(i, "creator.name", nil)
		}
	}
}
