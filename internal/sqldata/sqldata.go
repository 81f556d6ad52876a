// Package sqldata reads sensor logs out of a SQLite database into a Record
// Table. The database is an opaque external source: any table with a unixtime
// `time` column and optional `user` column can be read, filtered by user and
// time range, without a fixed schema.
package sqldata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lifetab/lifetab/internal/table"
)

// ErrUnknownTable reports a requested table name absent from the database.
var ErrUnknownTable = errors.New("unknown table")

const defaultSQLiteParams = "?_busy_timeout=5000"

// DB is a read-only handle on a sensor database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens the SQLite database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+defaultSQLiteParams)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Tables returns the names of all tables in the database, sorted.
func (d *DB) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Options configures a sensor-table read.
type Options struct {
	// Table names the table to read. Required.
	Table string
	// User filters rows to one user; empty means all users.
	User string
	// Limit bounds the row count when positive; Offset skips rows and is
	// only meaningful together with Limit.
	Limit  int
	Offset int
	// Start and End bound the time range (inclusive start, exclusive end).
	Start time.Time
	End   time.Time
	// Location is the timezone row timestamps are expressed in; nil means
	// UTC.
	Location *time.Location
	// Group, when non-empty, adds a cohort label column named group with
	// this value on every row.
	Group string
}

// Read reads rows from one table into a Record Table. The time column, in
// unix seconds, becomes the row timestamp; the user column becomes the row
// user. Remaining columns pass through with their stored types.
func (d *DB) Read(ctx context.Context, opts Options) (*table.Table, error) {
	if opts.Table == "" {
		return nil, errors.New("table name required")
	}
	// Table names cannot be bound as parameters; accept only names the
	// database itself reports.
	if err := d.checkTable(ctx, opts.Table); err != nil {
		return nil, err
	}

	query, args := buildQuery(opts)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", opts.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	t := table.New()
	for _, col := range cols {
		if col == "time" {
			continue
		}
		t.AddColumn(col)
	}
	if opts.Group != "" {
		t.AddColumn("group")
	}

	scan := make([]any, len(cols))
	for i := range scan {
		scan[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		row := table.Row{Values: make(map[string]any, len(cols))}
		for i, col := range cols {
			v := cellValue(*scan[i].(*any))
			switch col {
			case "time":
				if ts, ok := unixTime(v); ok {
					row.Timestamp = ts.In(loc)
				}
			case "user":
				if s, ok := v.(string); ok {
					row.User = s
				}
			default:
				if v != nil {
					row.Values[col] = v
				}
			}
		}
		if opts.Group != "" {
			row.Values["group"] = opts.Group
		}
		t.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %q: %w", opts.Table, err)
	}

	t.NormalizeColumnNames()
	return t, nil
}

func (d *DB) checkTable(ctx context.Context, name string) error {
	var found string
	err := d.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return err
}

// buildQuery assembles the filtered select. The table name has been checked
// against sqlite_master; everything else is bound.
func buildQuery(opts Options) (string, []any) {
	var b strings.Builder
	var args []any

	fmt.Fprintf(&b, `SELECT * FROM "%s"`, opts.Table)

	var conds []string
	if opts.User != "" {
		conds = append(conds, "user = ?")
		args = append(args, opts.User)
	}
	if !opts.Start.IsZero() {
		conds = append(conds, "time >= ?")
		args = append(args, opts.Start.Unix())
	}
	if !opts.End.IsZero() {
		conds = append(conds, "time < ?")
		args = append(args, opts.End.Unix())
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	b.WriteString(" ORDER BY time")
	if opts.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, opts.Offset)
		}
	}
	return b.String(), args
}

// cellValue normalizes driver scan results: byte slices become strings.
func cellValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// unixTime converts a stored time cell (integer or float unix seconds) to a
// timestamp.
func unixTime(v any) (time.Time, bool) {
	switch n := v.(type) {
	case int64:
		return time.Unix(n, 0), true
	case float64:
		sec := int64(n)
		nsec := int64((n - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec), true
	default:
		return time.Time{}, false
	}
}
