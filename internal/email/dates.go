package email

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts lists header date formats observed in real mailboxes, tried in
// order by parseDate.
var dateLayouts = []string{
	time.RFC1123Z,                           // "Mon, 02 Jan 2006 15:04:05 -0700"
	time.RFC1123,                            // "Mon, 02 Jan 2006 15:04:05 MST"
	"Mon, 2 Jan 2006 15:04:05 -0700",        // Single-digit day
	"Mon, 2 Jan 2006 15:04:05 MST",          // Single-digit day, named TZ
	"2 Jan 2006 15:04:05 -0700",             // No weekday
	"2 Jan 2006 15:04:05 MST",               // No weekday, named TZ
	"02 Jan 2006 15:04:05 -0700",            // No weekday, zero-padded
	"02 Jan 2006 15:04:05 MST",              // No weekday, zero-padded, named TZ
	time.RFC822Z,                            // "02 Jan 06 15:04 -0700"
	time.RFC822,                             // "02 Jan 06 15:04 MST"
	time.RFC850,                             // "Monday, 02-Jan-06 15:04:05 MST"
	time.ANSIC,                              // "Mon Jan _2 15:04:05 2006"
	time.UnixDate,                           // "Mon Jan _2 15:04:05 MST 2006"
	"Mon, 02 Jan 2006 15:04:05 -0700 (MST)", // Parenthesized TZ name
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",  // Single-digit day, paren TZ
	time.RFC3339,                            // ISO 8601
	"2006-01-02T15:04:05Z",                  // ISO 8601 UTC
	"2006-01-02 15:04:05 -0700",             // SQL-like
	"2006-01-02 15:04:05",                   // SQL-like without TZ
}

// parseDate parses a message date header, trying the known layouts. Returns
// the time in UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	// Strip a trailing timezone name in parentheses like "(UTC)".
	baseStr := s
	if idx := strings.LastIndex(s, "("); idx > 0 {
		baseStr = strings.TrimSpace(s[:idx])
	}

	for _, candidate := range []string{baseStr, s, fixUnsignedZone(baseStr)} {
		if candidate == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// fixUnsignedZone rewrites a trailing bare 4-digit zone ("... 12:19:43 0000")
// as an explicit positive offset; some exporters omit the sign.
func fixUnsignedZone(s string) string {
	i := strings.LastIndex(s, " ")
	if i < 0 {
		return ""
	}
	tail := s[i+1:]
	if len(tail) != 4 {
		return ""
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s[:i] + " +" + tail
}
