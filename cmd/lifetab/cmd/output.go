package cmd

import (
	"encoding/json"
	"io"
	"time"

	"github.com/lifetab/lifetab/internal/table"
)

// writeNDJSON writes each table row to w as one JSON object per line. Row
// timestamps and users become "timestamp" and "user" fields; time values
// render as RFC 3339 and durations in their string form.
func writeNDJSON(w io.Writer, t *table.Table) error {
	enc := json.NewEncoder(w)
	for _, r := range t.Rows() {
		obj := make(map[string]any, len(r.Values)+2)
		if !r.Timestamp.IsZero() {
			obj["timestamp"] = r.Timestamp.Format(time.RFC3339Nano)
		}
		if r.User != "" {
			obj["user"] = r.User
		}
		for _, col := range t.Columns() {
			v, ok := r.Values[col]
			if !ok {
				continue
			}
			obj[col] = jsonValue(v)
		}
		if err := enc.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	default:
		return v
	}
}
