// Package mbox implements a streaming reader for mbox mailbox files.
//
// Messages are delimited by Unix "From " separator lines. Body lines that
// originally began with "From " are commonly escaped as ">From " (mboxrd);
// the reader removes a single leading '>' from any line matching ^>+From .
package mbox

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Message is a single message from an mbox stream.
type Message struct {
	// FromLine is the separator line without its trailing newline.
	FromLine string

	// Raw is the RFC 5322 message (headers + body) between separators.
	Raw []byte
}

// Reader reads messages one at a time from an mbox stream.
type Reader struct {
	br *bufio.Reader

	nextFromLine string
	hasNextFrom  bool
	eof          bool
}

// NewReader creates an mbox reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next message, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (*Message, error) {
	if r.eof {
		return nil, io.EOF
	}

	if !r.hasNextFrom {
		for {
			line, err := r.readLine()
			if err != nil && err != io.EOF {
				return nil, err
			}
			if isSeparatorLine(line) {
				r.nextFromLine = string(bytes.TrimRight(line, "\r\n"))
				r.hasNextFrom = true
				break
			}
			if err == io.EOF {
				r.eof = true
				return nil, io.EOF
			}
		}
	}

	fromLine := r.nextFromLine
	r.hasNextFrom = false

	var raw bytes.Buffer
	for {
		line, err := r.readLine()
		if len(line) > 0 {
			if isSeparatorLine(line) {
				r.nextFromLine = string(bytes.TrimRight(line, "\r\n"))
				r.hasNextFrom = true
				break
			}
			raw.Write(unescapeFrom(line))
		}
		if err != nil {
			if err == io.EOF {
				r.eof = true
				break
			}
			return nil, err
		}
	}

	return &Message{FromLine: fromLine, Raw: raw.Bytes()}, nil
}

func (r *Reader) readLine() ([]byte, error) {
	var out []byte
	for {
		b, err := r.br.ReadBytes('\n')
		out = append(out, b...)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == io.EOF {
			return out, io.EOF
		}
		return out, err
	}
}

var fromPrefix = []byte("From ")

// isSeparatorLine reports whether line looks like an mbox "From " separator:
// the "From " prefix, an envelope sender token and a parseable date tail.
func isSeparatorLine(line []byte) bool {
	if !bytes.HasPrefix(line, fromPrefix) {
		return false
	}
	trimmed := string(bytes.TrimRight(line[len(fromPrefix):], "\r\n"))
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return false
	}
	// Everything after the envelope sender should be a date.
	return looksLikeSeparatorDate(strings.Join(fields[1:], " "))
}

var separatorDateLayouts = []string{
	"Mon Jan 2 15:04:05 2006",
	"Mon Jan 2 15:04:05 MST 2006",
	"Mon Jan 2 15:04:05 -0700 2006",
	"Mon Jan 2 15:04:05 2006 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Jan 2 15:04:05 2006",
}

func looksLikeSeparatorDate(s string) bool {
	for _, layout := range separatorDateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	// Tolerate a trailing numeric zone without sign ("... 12:19:43 0000"),
	// seen in some exporters.
	if i := strings.LastIndex(s, " "); i > 0 {
		if _, err := time.Parse("Mon, 2 Jan 2006 15:04:05", s[:i]); err == nil {
			return true
		}
	}
	return false
}

// unescapeFrom removes one leading '>' from lines matching ^>+From .
func unescapeFrom(line []byte) []byte {
	if len(line) == 0 || line[0] != '>' {
		return line
	}
	i := 0
	for i < len(line) && line[i] == '>' {
		i++
	}
	if i < len(line) && bytes.HasPrefix(line[i:], fromPrefix) {
		return line[1:]
	}
	return line
}

// Validate reads up to maxBytes from r and reports an error if no separator
// line is found. This is a heuristic format check.
func Validate(r io.Reader, maxBytes int64) error {
	if maxBytes <= 0 {
		return fmt.Errorf("maxBytes must be > 0")
	}
	br := bufio.NewReader(io.LimitReader(r, maxBytes))
	for {
		line, err := br.ReadBytes('\n')
		if isSeparatorLine(line) {
			return nil
		}
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("no \"From \" separators found (not an mbox file?)")
			}
			return err
		}
	}
}
