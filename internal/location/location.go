// Package location reads location-history samples from an export package and
// normalizes them into a Record Table: one row per sample, indexed by the
// sample timestamp, with decimal-degree coordinates and resolved activity
// annotations.
package location

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lifetab/lifetab/internal/jsonutil"
	"github.com/lifetab/lifetab/internal/table"
	"github.com/lifetab/lifetab/internal/takeout"
)

const memberName = "Takeout/Location History/Records.json"

// Coordinates are stored as fixed-point integers in 1e-7 degree units.
const coordinateScale = 1e7

// ActivityMode selects how the nested activity annotation is resolved.
type ActivityMode string

const (
	// ActivityHighest keeps the single highest-confidence candidate.
	ActivityHighest ActivityMode = "highest"
	// ActivityAll explodes every candidate into its own row and keeps rows
	// without an annotation as nulls.
	ActivityAll ActivityMode = "all"
	// ActivityThreshold explodes candidates, drops those below the
	// confidence cutoff and drops rows with no annotation entirely. Row
	// counts therefore differ from the other two modes.
	ActivityThreshold ActivityMode = "threshold"
)

// Options configures a location read.
type Options struct {
	// User is stamped on every row; empty means a freshly generated id.
	User string
	// InferredActivity selects the annotation resolution mode.
	InferredActivity ActivityMode
	// ActivityThreshold is the confidence cutoff for ActivityThreshold mode.
	ActivityThreshold float64
	// KeepRawColumns keeps the mostly-null raw export columns (wifi scans,
	// device metadata) instead of dropping them.
	KeepRawColumns bool
	Logger         *slog.Logger
}

// DefaultOptions returns the default location read configuration.
func DefaultOptions() Options {
	return Options{InferredActivity: ActivityHighest}
}

// Columns dropped unless KeepRawColumns is set; they are lists or mostly null
// in real exports.
var rawColumns = []string{
	"deviceDesignation",
	"activeWifiScan.accessPoints",
	"locationMetadata",
	"osLevel",
}

// ReadHistory reads the location history from the export package at path.
// A package without a location member yields an empty table.
func ReadHistory(path string, opts Options) (*table.Table, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mode := opts.InferredActivity
	if mode == "" {
		mode = ActivityHighest
	}
	switch mode {
	case ActivityHighest, ActivityAll, ActivityThreshold:
	default:
		return nil, fmt.Errorf("unknown inferred activity mode %q", mode)
	}

	ar, err := takeout.Open(path)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	data, err := ar.ReadMember(memberName)
	if errors.Is(err, takeout.ErrMemberNotFound) {
		return table.New(), nil
	}
	if err != nil {
		return nil, err
	}

	var records struct {
		Locations []map[string]any `json:"locations"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse location records: %w", err)
	}

	t := table.New()
	t.AddColumn("latitude")
	t.AddColumn("longitude")

	for _, raw := range records.Locations {
		flat := jsonutil.Flatten(raw)

		var ts time.Time
		if s, ok := flat["timestamp"].(string); ok {
			parsed, err := time.Parse(time.RFC3339, s)
			if err != nil {
				logger.Warn("could not parse location timestamp", "value", s)
			} else {
				ts = parsed
			}
		}
		delete(flat, "timestamp")

		if lat, ok := flat["latitudeE7"].(float64); ok {
			flat["latitude"] = lat / coordinateScale
		}
		if lon, ok := flat["longitudeE7"].(float64); ok {
			flat["longitude"] = lon / coordinateScale
		}
		delete(flat, "latitudeE7")
		delete(flat, "longitudeE7")

		if inferred, ok := flat["inferredLocation"].([]any); ok && len(inferred) > 0 {
			first := jsonutil.Flatten(inferred[0])
			if lat, ok := first["latitudeE7"].(float64); ok {
				flat["inferred_latitude"] = lat / coordinateScale
			}
			if lon, ok := first["longitudeE7"].(float64); ok {
				flat["inferred_longitude"] = lon / coordinateScale
			}
		}
		delete(flat, "inferredLocation")

		if v, ok := flat["deviceTag"]; ok {
			flat["device"] = v
			delete(flat, "deviceTag")
		}
		if !opts.KeepRawColumns {
			for _, col := range rawColumns {
				delete(flat, col)
			}
		}

		candidates := activityCandidates(flat)
		delete(flat, "activity")

		for _, vals := range resolveActivity(flat, candidates, mode, opts.ActivityThreshold) {
			t.Append(table.Row{Timestamp: ts, Values: vals})
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

type candidate struct {
	typ        string
	confidence float64
}

// activityCandidates extracts the candidate list from the nested annotation:
// the record's "activity" holds a list whose first element carries the actual
// type/confidence pairs.
func activityCandidates(flat map[string]any) []candidate {
	outer, ok := flat["activity"].([]any)
	if !ok || len(outer) == 0 {
		return nil
	}
	first := jsonutil.Flatten(outer[0])
	inner, ok := first["activity"].([]any)
	if !ok {
		return nil
	}
	var out []candidate
	for _, item := range inner {
		entry := jsonutil.Flatten(item)
		typ, _ := entry["type"].(string)
		conf, _ := entry["confidence"].(float64)
		if typ == "" {
			continue
		}
		out = append(out, candidate{typ: typ, confidence: conf})
	}
	return out
}

// resolveActivity turns one sample's value map into one or more row value
// maps according to the resolution mode.
func resolveActivity(base map[string]any, candidates []candidate, mode ActivityMode, threshold float64) []map[string]any {
	switch mode {
	case ActivityHighest:
		if len(candidates) > 0 {
			base["activity_type"] = candidates[0].typ
			base["activity_inference_confidence"] = candidates[0].confidence
		}
		return []map[string]any{base}

	case ActivityAll:
		if len(candidates) == 0 {
			return []map[string]any{base}
		}
		return explode(base, candidates)

	case ActivityThreshold:
		var kept []candidate
		for _, c := range candidates {
			if c.confidence >= threshold {
				kept = append(kept, c)
			}
		}
		// Samples with no surviving annotation are dropped in this mode.
		if len(kept) == 0 {
			return nil
		}
		return explode(base, kept)
	}
	return []map[string]any{base}
}

func explode(base map[string]any, candidates []candidate) []map[string]any {
	out := make([]map[string]any, 0, len(candidates))
	for _, c := range candidates {
		vals := make(map[string]any, len(base)+2)
		for k, v := range base {
			vals[k] = v
		}
		vals["activity_type"] = c.typ
		vals["activity_inference_confidence"] = c.confidence
		out = append(out, vals)
	}
	return out
}
