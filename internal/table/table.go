// Package table defines the normalized tabular representation shared by all
// readers: rows keyed by a timezone-aware timestamp, carrying an opaque user
// identifier and a set of nullable, dynamically typed domain columns.
//
// Readers construct a fresh Table per call and hand it to the caller; transforms
// in this package that modify a table do so on the receiver and document it.
package table

import (
	"sort"
	"time"
)

// Row is a single record. A zero Timestamp means the timestamp could not be
// resolved and is treated as null. Values maps column name to a cell value;
// a nil value is an explicit null, a missing key means the column was never
// observed for this row (also null when read).
type Row struct {
	Timestamp time.Time
	User      string
	Values    map[string]any
}

// Clone returns a deep-enough copy of the row: the Values map is copied,
// cell values are shared (cells are treated as immutable).
func (r Row) Clone() Row {
	vals := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		vals[k] = v
	}
	return Row{Timestamp: r.Timestamp, User: r.User, Values: vals}
}

// Value returns the cell for the named column and whether it is non-null.
func (r Row) Value(col string) (any, bool) {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Float returns a numeric cell as float64. Integer cell types are widened.
func (r Row) Float(col string) (float64, bool) {
	v, ok := r.Value(col)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// String returns a string cell.
func (r Row) String(col string) (string, bool) {
	v, ok := r.Value(col)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Time returns a time-valued cell.
func (r Row) Time(col string) (time.Time, bool) {
	v, ok := r.Value(col)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Duration returns a duration-valued cell.
func (r Row) Duration(col string) (time.Duration, bool) {
	v, ok := r.Value(col)
	if !ok {
		return 0, false
	}
	d, ok := v.(time.Duration)
	return d, ok
}

// Table is an ordered collection of rows plus the set of observed columns in
// first-seen order. The zero value is not usable; call New.
type Table struct {
	rows []Row
	cols []string
	seen map[string]int
}

// New returns an empty table.
func New() *Table {
	return &Table{seen: make(map[string]int)}
}

// Append adds a row and registers any columns it introduces.
func (t *Table) Append(r Row) {
	if r.Values == nil {
		r.Values = map[string]any{}
	}
	// Register in deterministic order for map-built rows: first the columns
	// already known, then the new ones sorted by name.
	var fresh []string
	for col := range r.Values {
		if _, ok := t.seen[col]; !ok {
			fresh = append(fresh, col)
		}
	}
	sort.Strings(fresh)
	for _, col := range fresh {
		t.AddColumn(col)
	}
	t.rows = append(t.rows, r)
}

// AddColumn registers a column without touching any rows. Appending a row that
// lacks the column leaves it null there.
func (t *Table) AddColumn(name string) {
	if _, ok := t.seen[name]; ok {
		return
	}
	t.seen[name] = len(t.cols)
	t.cols = append(t.cols, name)
}

// Len reports the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows exposes the backing row slice. Callers iterating for read access must
// not append; transforms that rewrite rows own the table.
func (t *Table) Rows() []Row { return t.rows }

// Row returns the i-th row.
func (t *Table) Row(i int) Row { return t.rows[i] }

// SetRow replaces the i-th row.
func (t *Table) SetRow(i int, r Row) { t.rows[i] = r }

// Columns returns the observed column names in first-seen order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// HasColumn reports whether the named column has been observed.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.seen[name]
	return ok
}

// Set assigns a cell on the i-th row, registering the column if needed.
func (t *Table) Set(i int, col string, v any) {
	t.AddColumn(col)
	if t.rows[i].Values == nil {
		t.rows[i].Values = map[string]any{}
	}
	t.rows[i].Values[col] = v
}

// DropColumn removes a column from the schema and from every row.
func (t *Table) DropColumn(name string) {
	idx, ok := t.seen[name]
	if !ok {
		return
	}
	t.cols = append(t.cols[:idx], t.cols[idx+1:]...)
	delete(t.seen, name)
	for col, i := range t.seen {
		if i > idx {
			t.seen[col] = i - 1
		}
	}
	for i := range t.rows {
		delete(t.rows[i].Values, name)
	}
}

// RenameColumn renames a column in place, preserving its position. Renaming
// onto an existing name merges into it (the renamed values win where set).
func (t *Table) RenameColumn(old, new string) {
	if old == new {
		return
	}
	idx, ok := t.seen[old]
	if !ok {
		return
	}
	if _, exists := t.seen[new]; exists {
		t.DropColumn(new)
		idx = t.seen[old]
	}
	t.cols[idx] = new
	delete(t.seen, old)
	t.seen[new] = idx
	for i := range t.rows {
		if v, ok := t.rows[i].Values[old]; ok {
			t.rows[i].Values[new] = v
			delete(t.rows[i].Values, old)
		}
	}
}

// SortByTimestamp stably sorts rows by their time key. Null (zero) timestamps
// sort first so they are easy to spot.
func (t *Table) SortByTimestamp() {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return t.rows[i].Timestamp.Before(t.rows[j].Timestamp)
	})
}

// SetUser stamps the user identifier on every row.
func (t *Table) SetUser(user string) {
	for i := range t.rows {
		t.rows[i].User = user
	}
}

// Concat appends all rows of other into t, merging schemas.
func (t *Table) Concat(other *Table) {
	if other == nil {
		return
	}
	for _, col := range other.cols {
		t.AddColumn(col)
	}
	t.rows = append(t.rows, other.rows...)
}
