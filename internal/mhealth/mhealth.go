// Package mhealth reads measurement records in the Open mHealth JSON schema.
// Records are flattened into dotted columns; the effective time frame is
// rewritten into one of two interval shapes: a start/end timestamp pair with
// a derived duration, or a calendar date plus a part-of-day label.
package mhealth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lifetab/lifetab/internal/jsonutil"
	"github.com/lifetab/lifetab/internal/table"
)

const intervalPrefix = "effective_time_frame.time_interval"

// Options configures an mHealth read.
type Options struct {
	// User is stamped on every row; empty means a freshly generated id.
	User   string
	Logger *slog.Logger
}

// ReadTotalSleepTime builds a table from total-sleep-time records. The
// measurement's value/unit pair collapses into a single duration column named
// total_sleep_time; rows are indexed by the interval start.
func ReadTotalSleepTime(records []map[string]any, opts Options) (*table.Table, error) {
	logger := loggerOrDefault(opts.Logger)

	t := table.New()
	t.AddColumn("total_sleep_time")
	for _, rec := range records {
		vals := jsonutil.Flatten(rec)
		formatTimeInterval(vals, intervalPrefix, logger)

		if d, ok := durationFromValueUnit(vals, "total_sleep_time"); ok {
			vals["total_sleep_time"] = d
		}
		delete(vals, "total_sleep_time.value")
		delete(vals, "total_sleep_time.unit")

		t.Append(table.Row{Timestamp: rowTimestamp(vals), Values: vals})
	}
	return finish(t, opts.User), nil
}

// ReadTotalSleepTimeFile reads total-sleep-time records from a JSON file
// holding a record array.
func ReadTotalSleepTimeFile(path string, opts Options) (*table.Table, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	return ReadTotalSleepTime(records, opts)
}

// ReadHeartRate builds a table from heart-rate records. The measurement value
// becomes a numeric heart_rate column; the unit is dropped.
func ReadHeartRate(records []map[string]any, opts Options) (*table.Table, error) {
	logger := loggerOrDefault(opts.Logger)

	t := table.New()
	t.AddColumn("heart_rate")
	for _, rec := range records {
		vals := jsonutil.Flatten(rec)
		formatTimeInterval(vals, intervalPrefix, logger)

		if v, ok := vals["heart_rate.value"].(float64); ok {
			vals["heart_rate"] = v
		}
		delete(vals, "heart_rate.value")
		delete(vals, "heart_rate.unit")

		t.Append(table.Row{Timestamp: rowTimestamp(vals), Values: vals})
	}
	return finish(t, opts.User), nil
}

// ReadHeartRateFile reads heart-rate records from a JSON file holding a
// record array.
func ReadHeartRateFile(path string, opts Options) (*table.Table, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	return ReadHeartRate(records, opts)
}

func readRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return records, nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func finish(t *table.Table, user string) *table.Table {
	t.NormalizeColumnNames()
	if user == "" {
		user = uuid.NewString()
	}
	t.SetUser(user)
	return t
}

// formatTimeInterval rewrites the interval columns under prefix in place.
// An interval carries either a date and a part of day, or two of start time,
// end time and an explicit duration; the missing third is derived where
// possible. Raw interval columns are removed.
func formatTimeInterval(vals map[string]any, prefix string, logger *slog.Logger) {
	start := parseIntervalTime(vals, prefix+".start_date_time", logger)
	end := parseIntervalTime(vals, prefix+".end_date_time", logger)

	duration, haveDuration := durationFromValueUnit(vals, prefix+".duration")
	delete(vals, prefix+".duration.value")
	delete(vals, prefix+".duration.unit")

	if !start.IsZero() && !end.IsZero() {
		duration = end.Sub(start)
		haveDuration = true
	} else if haveDuration {
		if !start.IsZero() {
			end = start.Add(duration)
		} else if !end.IsZero() {
			start = end.Add(-duration)
		}
	}

	if !start.IsZero() {
		vals["start"] = start
	}
	if !end.IsZero() {
		vals["end"] = end
	}
	if haveDuration {
		vals["duration"] = duration
	}

	if raw, ok := vals[prefix+".date"].(string); ok {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			vals["date"] = d
		} else {
			logger.Warn("could not parse interval date", "value", raw)
		}
		delete(vals, prefix+".date")
	}
	if part, ok := vals[prefix+".part_of_day"].(string); ok {
		vals["part_of_day"] = part
		delete(vals, prefix+".part_of_day")
	}
}

func parseIntervalTime(vals map[string]any, col string, logger *slog.Logger) time.Time {
	raw, ok := vals[col].(string)
	if !ok {
		return time.Time{}
	}
	delete(vals, col)
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn("could not parse interval time", "column", col, "value", raw)
		return time.Time{}
	}
	return ts
}

// durationFromValueUnit converts a flattened value/unit column pair rooted at
// base into a duration.
func durationFromValueUnit(vals map[string]any, base string) (time.Duration, bool) {
	value, ok := vals[base+".value"].(float64)
	if !ok {
		return 0, false
	}
	unit, _ := vals[base+".unit"].(string)
	scale, ok := durationUnit(unit)
	if !ok {
		return 0, false
	}
	return time.Duration(value * float64(scale)), true
}

func durationUnit(unit string) (time.Duration, bool) {
	switch strings.ToLower(unit) {
	case "ns":
		return time.Nanosecond, true
	case "us":
		return time.Microsecond, true
	case "ms":
		return time.Millisecond, true
	case "s", "sec":
		return time.Second, true
	case "m", "min":
		return time.Minute, true
	case "h":
		return time.Hour, true
	case "d":
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// rowTimestamp picks the time index for a formatted record: the interval
// start where present, otherwise the calendar date.
func rowTimestamp(vals map[string]any) time.Time {
	if ts, ok := vals["start"].(time.Time); ok {
		return ts
	}
	if ts, ok := vals["date"].(time.Time); ok {
		return ts
	}
	return time.Time{}
}
