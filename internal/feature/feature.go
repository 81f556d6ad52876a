// Package feature computes summary statistics and distributions over
// normalized sensor tables. Features are plain functions held in an explicit
// registry built once at initialization; callers compute one feature by name
// or every registered feature at once.
package feature

import (
	"fmt"
	"sort"

	"github.com/lifetab/lifetab/internal/table"
)

// Params carries per-feature tuning values.
type Params map[string]any

func (p Params) stringOr(key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Func computes one feature table from an input table.
type Func func(*table.Table, Params) (*table.Table, error)

// registry maps feature names to their functions. Built once here; treated
// as immutable afterwards.
var registry = map[string]Func{
	"step_summary":            StepSummary,
	"daily_step_distribution": DailyStepDistribution,
}

// Names returns the registered feature names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registered function for a feature name.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Compute runs one registered feature by name.
func Compute(name string, t *table.Table, params Params) (*table.Table, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown feature %q", name)
	}
	return fn(t, params)
}

// Extract computes the selected features (all registered ones when selected
// is nil) and concatenates the results column-wise, aligned on the grouping
// key and timestamp. A cohort group column on the input is propagated into
// the output as the first observed value per user.
func Extract(t *table.Table, selected map[string]Params) (*table.Table, error) {
	names := Names()
	if selected != nil {
		names = names[:0]
		for name := range selected {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	type slot struct {
		row   table.Row
		group *table.Group
	}
	var order []string
	slots := map[string]*slot{}
	out := table.New()

	for _, name := range names {
		params := selected[name]
		result, err := Compute(name, t, params)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", name, err)
		}
		for _, col := range result.Columns() {
			out.AddColumn(col)
		}
		for _, g := range table.GroupRows(result) {
			for _, r := range g.Rows {
				key := fmt.Sprintf("%s\x00%v\x00%d", g.User, g.Device, r.Timestamp.UnixNano())
				s, ok := slots[key]
				if !ok {
					s = &slot{
						row:   table.Row{Timestamp: r.Timestamp, User: g.User, Values: map[string]any{}},
						group: &table.Group{User: g.User, Device: g.Device},
					}
					slots[key] = s
					order = append(order, key)
				}
				for col, v := range r.Values {
					s.row.Values[col] = v
				}
			}
		}
	}

	groupLabels := firstGroupPerUser(t)
	if len(groupLabels) > 0 {
		out.AddColumn("group")
	}

	for _, key := range order {
		s := slots[key]
		if s.group.Device != nil {
			s.row.Values["device"] = s.group.Device
		}
		if label, ok := groupLabels[s.row.User]; ok {
			s.row.Values["group"] = label
		}
		out.Append(s.row)
	}
	return out, nil
}

// firstGroupPerUser collects the first observed cohort label per user, empty
// when the input has no group column.
func firstGroupPerUser(t *table.Table) map[string]any {
	if !t.HasColumn("group") {
		return nil
	}
	labels := map[string]any{}
	for _, r := range t.Rows() {
		if _, seen := labels[r.User]; seen {
			continue
		}
		if v, ok := r.Values["group"]; ok {
			labels[r.User] = v
		}
	}
	return labels
}
