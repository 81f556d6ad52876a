// Package fitness reads per-date activity metric CSVs from an export package.
//
// Each member under the daily-metrics folder is one date's worth of interval
// rows (time-of-day start/end plus measurements). The pre-aggregated rollup
// file is skipped; the per-date files carry the fine-grained data.
package fitness

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lifetab/lifetab/internal/table"
	"github.com/lifetab/lifetab/internal/takeout"
)

const (
	metricsPrefix = "Takeout/Fit/Daily activity metrics/"
	rollupSuffix  = "Daily activity metrics.csv"

	startTimeColumn = "Start time"
	endTimeColumn   = "End time"

	// Duration columns are marked with a millisecond suffix in the export,
	// though the stored values are microsecond counts.
	durationSuffix = "duration (ms)"
	unitSuffix     = " (ms)"
)

// Options configures an activity read.
type Options struct {
	// User is stamped on every row; empty means a freshly generated id.
	User   string
	Logger *slog.Logger
}

// ReadDailyMetrics reads every per-date CSV in the export package at path and
// returns the concatenated, normalized table. No matching members yields an
// empty table.
func ReadDailyMetrics(pkgPath string, opts Options) (*table.Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ar, err := takeout.Open(pkgPath)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	t := table.New()
	matched := false
	for _, member := range ar.Glob(metricsPrefix, ".csv") {
		if strings.HasSuffix(member, rollupSuffix) {
			continue
		}
		matched = true
		date := strings.TrimSuffix(path.Base(member), ".csv")

		rc, err := ar.OpenMember(member)
		if err != nil {
			return nil, err
		}
		part, err := readMetricsCSV(rc, date, logger)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", member, err)
		}
		t.Concat(part)
	}
	if !matched {
		return table.New(), nil
	}

	t.NormalizeColumnNames()

	user := opts.User
	if user == "" {
		user = uuid.NewString()
	}
	t.SetUser(user)
	return t, nil
}

// readMetricsCSV reads one per-date file. Values parse as floats where
// numeric; empty cells stay null.
func readMetricsCSV(r io.Reader, date string, logger *slog.Logger) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return table.New(), nil
	}
	if err != nil {
		return nil, err
	}

	t := table.New()
	t.AddColumn("start_time")
	t.AddColumn("end_time")
	for _, col := range header {
		if col == startTimeColumn || col == endTimeColumn {
			continue
		}
		if strings.HasSuffix(col, durationSuffix) {
			t.AddColumn(strings.TrimSuffix(col, unitSuffix))
		} else {
			t.AddColumn(col)
		}
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		vals := make(map[string]any, len(header))
		var start, end time.Time
		for i, col := range header {
			if i >= len(record) {
				break
			}
			cell := record[i]
			switch col {
			case startTimeColumn:
				start = parseTimeOfDay(date, cell, logger)
			case endTimeColumn:
				end = parseTimeOfDay(date, cell, logger)
			default:
				if cell == "" {
					continue
				}
				if strings.HasSuffix(col, durationSuffix) {
					if f, err := strconv.ParseFloat(cell, 64); err == nil {
						vals[strings.TrimSuffix(col, unitSuffix)] = time.Duration(f * float64(time.Microsecond))
					}
					continue
				}
				if f, err := strconv.ParseFloat(cell, 64); err == nil {
					vals[col] = f
				} else {
					vals[col] = cell
				}
			}
		}

		// An end of exactly midnight means midnight of the following day: an
		// interval cannot end the instant it starts unless it spans the whole
		// day boundary.
		if !end.IsZero() && end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 && end.Nanosecond() == 0 {
			end = end.AddDate(0, 0, 1)
		}

		if !start.IsZero() {
			vals["start_time"] = start
		}
		if !end.IsZero() {
			vals["end_time"] = end
		}
		t.Append(table.Row{Timestamp: start, Values: vals})
	}
	return t, nil
}

var timeOfDayLayouts = []string{
	"2006-01-02 15:04:05.999-07:00",
	"2006-01-02 15:04:05.999-0700",
	"2006-01-02 15:04:05.999Z07:00",
	"2006-01-02 15:04:05.999",
}

// parseTimeOfDay combines the per-file date with a per-row time-of-day string.
// Unparsable values are warned about and left null.
func parseTimeOfDay(date, tod string, logger *slog.Logger) time.Time {
	if tod == "" {
		return time.Time{}
	}
	combined := date + " " + tod
	for _, layout := range timeOfDayLayouts {
		if ts, err := time.Parse(layout, combined); err == nil {
			return ts
		}
	}
	logger.Warn("could not parse activity time", "date", date, "time", tod)
	return time.Time{}
}
