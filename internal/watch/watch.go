// Package watch reads video watch history from an export package. The
// history ships as an HTML document of content cells; each cell with a video
// link and a channel link becomes one row timestamped with the moment
// playback started.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/lifetab/lifetab/internal/pseudo"
	"github.com/lifetab/lifetab/internal/table"
	"github.com/lifetab/lifetab/internal/takeout"
)

const (
	memberName = "Takeout/YouTube and YouTube Music/history/watch-history.html"

	// Timestamps look like "Feb 13, 2024, 8:35:03 AM EET".
	timestampLayout = "Jan 2, 2006, 3:04:05 PM MST"
)

// Options configures a watch-history read.
type Options struct {
	// User is stamped on every row; empty means a freshly generated id.
	User string
	// Pseudonymize replaces video and channel titles with integer codes.
	Pseudonymize bool
	Logger       *slog.Logger
}

// DefaultOptions returns the default watch-history read configuration.
func DefaultOptions() Options {
	return Options{Pseudonymize: true}
}

// entry is one parsed content cell.
type entry struct {
	videoTitle   string
	channelTitle string
	timestamp    time.Time
}

// ReadHistory reads the watch history from the export package at path. A
// package without a history member yields an empty table.
func ReadHistory(path string, opts Options) (*table.Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ar, err := takeout.Open(path)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	rc, err := ar.OpenMember(memberName)
	if errors.Is(err, takeout.ErrMemberNotFound) {
		return table.New(), nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc, err := html.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", memberName, err)
	}

	var entries []entry
	for _, cell := range contentCells(doc) {
		e, ok := parseCell(cell, logger)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}

	t := table.New()
	t.AddColumn("video_title")
	t.AddColumn("channel_title")

	if opts.Pseudonymize {
		videoBook := pseudo.NewCodebook()
		channelBook := pseudo.NewCodebook()
		for _, e := range entries {
			vals := map[string]any{}
			if code, ok := videoBook.Code(e.videoTitle); ok {
				vals["video_title"] = code
			}
			if code, ok := channelBook.Code(e.channelTitle); ok {
				vals["channel_title"] = code
			}
			t.Append(table.Row{Timestamp: e.timestamp, Values: vals})
		}
	} else {
		for _, e := range entries {
			t.Append(table.Row{Timestamp: e.timestamp, Values: map[string]any{
				"video_title":   e.videoTitle,
				"channel_title": e.channelTitle,
			}})
		}
	}

	user := opts.User
	if user == "" {
		user = uuid.NewString()
	}
	t.SetUser(user)
	return t, nil
}

// contentCells walks the document collecting every div carrying the
// content-cell class, in document order.
func contentCells(doc *html.Node) []*html.Node {
	var cells []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "content-cell") {
			cells = append(cells, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return cells
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// parseCell extracts a watch record from one content cell. Cells with fewer
// than two links carry ads, search entries or layout filler and are skipped.
// The watch time is the text that follows the cell's second line break.
func parseCell(cell *html.Node, logger *slog.Logger) (entry, bool) {
	var links []*html.Node
	var breaks []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				links = append(links, n)
			case "br":
				breaks = append(breaks, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(cell)

	if len(links) < 2 || len(breaks) < 2 {
		return entry{}, false
	}

	e := entry{
		videoTitle:   nodeText(links[0]),
		channelTitle: nodeText(links[1]),
	}

	raw := strings.TrimSpace(siblingText(breaks[1]))
	ts, err := time.Parse(timestampLayout, normalizeSpace(raw))
	if err != nil {
		logger.Warn("could not parse watch timestamp", "value", raw)
		return entry{}, false
	}
	e.timestamp = ts
	return e, true
}

// nodeText concatenates the text content beneath a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// siblingText returns the text of the node immediately following n.
func siblingText(n *html.Node) string {
	if s := n.NextSibling; s != nil && s.Type == html.TextNode {
		return s.Data
	}
	return ""
}

// normalizeSpace collapses whitespace runs. The export uses narrow no-break
// spaces inside timestamps, which strings.Fields treats as whitespace.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
