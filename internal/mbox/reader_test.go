package mbox

import (
	"io"
	"strings"
	"testing"
)

const twoMessages = `From alice@example.com Mon Jan  2 15:04:05 2006
From: alice@example.com
Subject: one

body one
>From the middle of a line
From bob@example.com Tue Jan  3 10:00:00 2006
From: bob@example.com
Subject: two

body two
`

func readAll(t *testing.T, data string) []*Message {
	t.Helper()
	r := NewReader(strings.NewReader(data))
	var msgs []*Message
	for {
		m, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func TestReaderSplitsOnSeparators(t *testing.T) {
	msgs := readAll(t, twoMessages)
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}
	if msgs[0].FromLine != "From alice@example.com Mon Jan  2 15:04:05 2006" {
		t.Errorf("FromLine = %q", msgs[0].FromLine)
	}
	if !strings.Contains(string(msgs[0].Raw), "body one") {
		t.Errorf("message 1 raw missing body: %q", msgs[0].Raw)
	}
	if !strings.Contains(string(msgs[1].Raw), "Subject: two") {
		t.Errorf("message 2 raw missing headers: %q", msgs[1].Raw)
	}
}

func TestReaderUnescapesFromLines(t *testing.T) {
	msgs := readAll(t, twoMessages)
	if !strings.Contains(string(msgs[0].Raw), "\nFrom the middle of a line\n") {
		t.Errorf("mboxrd escape not removed: %q", msgs[0].Raw)
	}
}

func TestSeparatorRequiresDate(t *testing.T) {
	// A body line starting with "From " but without a date tail must not
	// split the message.
	data := "From alice@example.com Mon Jan  2 15:04:05 2006\n" +
		"Subject: x\n\nFrom here on nothing happens\n"
	msgs := readAll(t, data)
	if len(msgs) != 1 {
		t.Fatalf("message count = %d, want 1", len(msgs))
	}
	if !strings.Contains(string(msgs[0].Raw), "From here on nothing happens") {
		t.Errorf("body line lost: %q", msgs[0].Raw)
	}
}

func TestSeparatorToleratesUnsignedZone(t *testing.T) {
	data := "From alice@example.com Wed, 13 Aug 2008 12:19:43 0000\n" +
		"Subject: x\n\nbody\n"
	msgs := readAll(t, data)
	if len(msgs) != 1 {
		t.Fatalf("message count = %d, want 1", len(msgs))
	}
}

func TestEmptyStream(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() on empty stream = %v, want io.EOF", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(strings.NewReader(twoMessages), 1<<20); err != nil {
		t.Errorf("Validate(mbox) = %v, want nil", err)
	}
	if err := Validate(strings.NewReader("just some text\n"), 1<<20); err == nil {
		t.Error("Validate(non-mbox) = nil, want error")
	}
}
