// Package csvdata reads generic sensor logs from CSV into a Record Table.
// A unixtime `time` column becomes the row timestamp and a `user` column the
// row user; everything else passes through as floats where numeric.
package csvdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lifetab/lifetab/internal/table"
)

// Options configures a CSV read.
type Options struct {
	// Location is the timezone row timestamps are expressed in; nil means
	// UTC.
	Location *time.Location
	// Group, when non-empty, adds a cohort label column named group with
	// this value on every row.
	Group string
	// Comment, when non-zero, makes lines starting with this rune skipped.
	Comment rune
}

// ReadFile reads the CSV file at path.
func ReadFile(path string, opts Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return t, nil
}

// ReadString reads CSV from an in-memory string. Comments are enabled and a
// redundant datetime column is dropped, which suits example and test data.
func ReadString(data string, opts Options) (*table.Table, error) {
	opts.Comment = '#'
	t, err := Read(strings.NewReader(data), opts)
	if err != nil {
		return nil, err
	}
	t.DropColumn("datetime")
	return t, nil
}

// Read reads CSV records from r.
func Read(r io.Reader, opts Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if opts.Comment != 0 {
		cr.Comment = opts.Comment
	}

	header, err := cr.Read()
	if err == io.EOF {
		return table.New(), nil
	}
	if err != nil {
		return nil, err
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	t := table.New()
	for _, col := range header {
		if col == "time" {
			continue
		}
		t.AddColumn(col)
	}
	if opts.Group != "" {
		t.AddColumn("group")
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := table.Row{Values: make(map[string]any, len(header))}
		for i, col := range header {
			if i >= len(record) {
				break
			}
			cell := record[i]
			switch col {
			case "time":
				if ts, ok := parseUnixTime(cell); ok {
					row.Timestamp = ts.In(loc)
				}
			case "user":
				row.User = cell
			default:
				if cell == "" {
					continue
				}
				if f, err := strconv.ParseFloat(cell, 64); err == nil {
					row.Values[col] = f
				} else {
					row.Values[col] = cell
				}
			}
		}
		if opts.Group != "" {
			row.Values["group"] = opts.Group
		}
		t.Append(row)
	}

	t.NormalizeColumnNames()
	return t, nil
}

func parseUnixTime(cell string) (time.Time, bool) {
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return time.Time{}, false
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec), true
}
