package email

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mon, 01 Jan 2024 10:00:00 +0000", "2024-01-01T10:00:00Z"},
		{"Mon, 1 Jan 2024 12:00:00 +0200", "2024-01-01T10:00:00Z"},
		{"1 Jan 2024 10:00:00 +0000", "2024-01-01T10:00:00Z"},
		{"Mon, 01 Jan 2024 10:00:00 +0000 (UTC)", "2024-01-01T10:00:00Z"},
		{"Wed, 13 Aug 2008 12:19:43 0000", "2008-08-13T12:19:43Z"},
		{"2024-01-01T10:00:00Z", "2024-01-01T10:00:00Z"},
		{"2024-01-01 10:00:00", "2024-01-01T10:00:00Z"},
		{"Mon,  01 Jan 2024  10:00:00 +0000", "2024-01-01T10:00:00Z"},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if err != nil {
			t.Errorf("parseDate(%q) failed: %v", tt.in, err)
			continue
		}
		want, _ := time.Parse(time.RFC3339, tt.want)
		if !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, want)
		}
	}
}

func TestParseDateErrors(t *testing.T) {
	for _, in := range []string{"", "not a date", "32 Foo 2024"} {
		if _, err := parseDate(in); err == nil {
			t.Errorf("parseDate(%q) = nil error, want error", in)
		}
	}
}

func TestFixUnsignedZone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Wed, 13 Aug 2008 12:19:43 0000", "Wed, 13 Aug 2008 12:19:43 +0000"},
		{"Wed, 13 Aug 2008 12:19:43 +0000", ""},
		{"no-space", ""},
		{"ends with word", ""},
	}
	for _, tt := range tests {
		if got := fixUnsignedZone(tt.in); got != tt.want {
			t.Errorf("fixUnsignedZone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
