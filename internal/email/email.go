// Package email extracts message header activity from a mailbox: either the
// mail member of an export package or a standalone mbox file. Output is a
// Record Table with one row per message, indexed by the message date.
//
// Identity-bearing fields (addresses, message ids) are pseudonymized by
// default; the account owner is inferred from address frequencies and mapped
// to code 0 when the inference is unambiguous.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"

	"github.com/lifetab/lifetab/internal/mbox"
	"github.com/lifetab/lifetab/internal/pseudo"
	"github.com/lifetab/lifetab/internal/sentiment"
	"github.com/lifetab/lifetab/internal/table"
	"github.com/lifetab/lifetab/internal/takeout"
)

const mailMember = "Takeout/Mail/All mail Including Spam and Trash.mbox"

// ErrUnsupportedFormat reports a mailbox path with an extension the reader
// does not know how to open.
var ErrUnsupportedFormat = errors.New("unsupported mailbox format")

// Options configures an email read.
type Options struct {
	// User is stamped on every row; empty means a freshly generated id.
	User string
	// Pseudonymize replaces addresses and message ids with integer codes.
	Pseudonymize bool
	// Classifier enables sentiment scoring of message bodies when non-nil.
	Classifier sentiment.Classifier
	// SentimentBatchSize bounds texts per classifier call.
	SentimentBatchSize int
	Logger             *slog.Logger
}

// DefaultOptions returns the default email read configuration:
// pseudonymization on, sentiment off.
func DefaultOptions() Options {
	return Options{
		Pseudonymize:       true,
		SentimentBatchSize: sentiment.DefaultBatchSize,
	}
}

// message is the per-row extraction result, pre-pseudonymization.
type message struct {
	date      time.Time
	received  time.Time
	from      string
	to        []string
	cc        []string
	bcc       []string
	messageID string
	inReplyTo string
	content   string
}

// ReadActivity reads message activity from the mailbox at path. A .zip export
// package without a mail member yields an empty table; an extension other
// than .zip or .mbox is a fatal error.
func ReadActivity(ctx context.Context, path string, opts Options) (*table.Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r, closeAll, err := openMailbox(path)
	if errors.Is(err, takeout.ErrMemberNotFound) {
		return table.New(), nil
	}
	if err != nil {
		return nil, err
	}
	defer closeAll()

	var msgs []message
	mr := mbox.NewReader(r)
	for {
		raw, err := mr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read mailbox: %w", err)
		}
		msgs = append(msgs, extractMessage(raw.Raw, logger))
	}

	t := newMessageTable(opts.Classifier != nil)
	for _, m := range msgs {
		vals := map[string]any{
			"character_count": float64(utf8.RuneCountInString(m.content)),
			"word_count":      float64(len(strings.Fields(m.content))),
		}
		if !m.received.IsZero() {
			vals["received"] = m.received
		}
		setNonEmpty(vals, "from", m.from)
		vals["to"] = m.to
		vals["cc"] = m.cc
		vals["bcc"] = m.bcc
		setNonEmpty(vals, "message_id", m.messageID)
		setNonEmpty(vals, "in_reply_to", m.inReplyTo)
		t.Append(table.Row{Timestamp: m.date, Values: vals})
	}

	if opts.Pseudonymize {
		pseudonymize(t, msgs, logger)
	}

	if opts.Classifier != nil {
		contents := make([]string, len(msgs))
		for i, m := range msgs {
			contents[i] = m.content
		}
		scores, err := sentiment.ClassifyBatched(ctx, opts.Classifier, contents, opts.SentimentBatchSize)
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

func newMessageTable(withSentiment bool) *table.Table {
	t := table.New()
	for _, col := range []string{
		"received", "from", "to", "cc", "bcc",
		"message_id", "in_reply_to", "character_count", "word_count",
	} {
		t.AddColumn(col)
	}
	if withSentiment {
		t.AddColumn("sentiment")
		t.AddColumn("sentiment_score")
	}
	return t
}

func setNonEmpty(vals map[string]any, col, v string) {
	if v != "" {
		vals[col] = v
	}
}

// openMailbox opens the message stream behind path: the mail member of a
// .zip export package or a standalone .mbox file. The returned closer
// releases every handle on every path.
func openMailbox(path string) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		ar, err := takeout.Open(path)
		if err != nil {
			return nil, nil, err
		}
		rc, err := ar.OpenMember(mailMember)
		if err != nil {
			ar.Close()
			return nil, nil, err
		}
		return rc, func() {
			rc.Close()
			ar.Close()
		}, nil
	case ".mbox":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q (expected .zip or .mbox)", ErrUnsupportedFormat, path)
	}
}

// extractMessage pulls the row fields out of one raw message. Malformed
// fields are warned about and left null; the row is always produced.
func extractMessage(raw []byte, logger *slog.Logger) message {
	var m message

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		logger.Warn("could not parse message", "error", err)
		return m
	}

	// Header lookups go through the envelope, which canonicalizes names: the
	// many capitalizations seen in the wild all resolve to the same header.
	if dateStr := env.GetHeader("Date"); dateStr != "" {
		if ts, err := parseDate(dateStr); err == nil {
			m.date = ts
		} else {
			logger.Warn("could not parse message timestamp", "value", dateStr)
		}
	}

	// The receipt trace header holds routing clauses separated by ";" with
	// the date in the last one.
	if received := env.GetHeader("Received"); received != "" {
		clause := received
		if idx := strings.LastIndex(received, ";"); idx >= 0 {
			clause = received[idx+1:]
		}
		clause = strings.TrimSpace(clause)
		if clause != "" {
			if ts, err := parseDate(clause); err == nil {
				m.received = ts
			} else {
				logger.Warn("could not parse received time", "value", clause)
			}
		}
	}

	m.messageID = env.GetHeader("Message-ID")
	for _, header := range []string{"In-Reply-To", "Reply-To", "Mail-Reply-To", "Mail-Followup-To"} {
		if v := env.GetHeader(header); v != "" {
			m.inReplyTo = v
			break
		}
	}

	m.from = singleAddress(env, "From")
	m.to = addressList(env, "To")
	if len(m.to) == 0 {
		m.to = addressList(env, "Sender")
	}
	m.cc = addressList(env, "Cc")
	m.bcc = addressList(env, "Bcc")
	m.content = bodyText(env)
	return m
}

// singleAddress returns the lone normalized address of a header, tolerating
// display names and malformed values (the raw bracketed token is kept when
// structured parsing fails).
func singleAddress(env *enmime.Envelope, header string) string {
	raw := env.GetHeader(header)
	if raw == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return strings.ToLower(addr.Address)
	}
	if list, err := env.AddressList(header); err == nil && len(list) > 0 {
		return strings.ToLower(list[0].Address)
	}
	// Malformed: keep whatever sits between angle brackets, or the value.
	if open := strings.Index(raw, "<"); open >= 0 {
		if close := strings.Index(raw[open:], ">"); close > 0 {
			return strings.ToLower(raw[open+1 : open+close])
		}
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// addressList parses a multi-address header into normalized address strings.
func addressList(env *enmime.Envelope, header string) []string {
	raw := env.GetHeader(header)
	if raw == "" {
		return nil
	}
	var out []string
	if list, err := env.AddressList(header); err == nil {
		for _, addr := range list {
			if addr.Address != "" {
				out = append(out, strings.ToLower(addr.Address))
			}
		}
		return out
	}
	// Fallback for headers the structured parser rejects: split on commas
	// and keep bracketed tokens.
	for _, part := range strings.Split(raw, ",") {
		if a := singleAddressString(part); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func singleAddressString(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return strings.ToLower(addr.Address)
	}
	if open := strings.Index(raw, "<"); open >= 0 {
		if close := strings.Index(raw[open:], ">"); close > 0 {
			return strings.ToLower(raw[open+1 : open+close])
		}
	}
	return strings.ToLower(raw)
}

// inferOwner guesses the account owner: the address most frequent across
// sender and recipient fields. A tie between the top two candidates aborts
// the inference.
func inferOwner(msgs []message, logger *slog.Logger) string {
	counts := map[string]int{}
	var order []string
	bump := func(addr string) {
		if addr == "" {
			return
		}
		if _, seen := counts[addr]; !seen {
			order = append(order, addr)
		}
		counts[addr]++
	}
	for _, m := range msgs {
		bump(m.from)
		for _, a := range m.to {
			bump(a)
		}
	}
	if len(order) == 0 {
		return ""
	}

	best, second := "", ""
	for _, addr := range order {
		switch {
		case best == "" || counts[addr] > counts[best]:
			second = best
			best = addr
		case second == "" || counts[addr] > counts[second]:
			second = addr
		}
	}
	if second != "" && counts[second] == counts[best] {
		logger.Warn("could not infer account owner: tied address frequencies")
		return ""
	}
	return best
}

// pseudonymize remaps addresses and message ids to integer codes in place.
// Addresses share one codebook across from/to/cc/bcc; message ids and
// in-reply-to references share another.
func pseudonymize(t *table.Table, msgs []message, logger *slog.Logger) {
	addrBook := pseudo.NewCodebook()
	if owner := inferOwner(msgs, logger); owner != "" {
		addrBook.SetSelf(owner)
	}
	idBook := pseudo.NewCodebook()

	codeList := func(addrs []string) []int {
		out := make([]int, 0, len(addrs))
		for _, a := range addrs {
			if code, ok := addrBook.Code(a); ok {
				out = append(out, code)
			}
		}
		return out
	}

	for i, m := range msgs {
		if code, ok := addrBook.Code(m.from); ok {
			t.Set(i, "from", code)
		} else {
			t.Set(i, "from", nil)
		}
		t.Set(i, "to", codeList(m.to))
		t.Set(i, "cc", codeList(m.cc))
		t.Set(i, "bcc", codeList(m.bcc))

		if code, ok := idBook.Code(m.messageID); ok {
			t.Set(i, "message_id", code)
		} else {
			t.Set(i, "message_id", nil)
		}
		if code, ok := idBook.Code(m.inReplyTo); ok {
			t.Set(i, "in_reply_to", code)
		} else {
			t.Set(i, "in_reply_to", nil)
		}
	}
}
