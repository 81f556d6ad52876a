package feature

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lifetab/lifetab/internal/table"
)

// dayKey identifies one measurement day within one grouping key. Days are
// keyed by month and day of month, matching the summary's calendar view.
type dayKey struct {
	user   string
	device string
	month  time.Month
	day    int
}

func rowDayKey(g table.Group, ts time.Time) dayKey {
	key := dayKey{user: g.User, month: ts.Month(), day: ts.Day()}
	if g.Device != nil {
		key.device = fmt.Sprint(g.Device)
	}
	return key
}

// StepSummary summarizes a step-count stream into one row per grouping key:
// the median, mean, standard deviation, minimum and maximum of per-day step
// sums. Days whose sum is zero are treated as absent, under the assumption
// that a genuine measurement day never totals exactly zero.
//
// Params: value_col (default "steps") names the step column; start and end
// (time.Time) bound the time range; users ([]string) restricts to listed
// users.
func StepSummary(t *table.Table, params Params) (*table.Table, error) {
	valueCol := params.stringOr("value_col", "steps")
	if !t.HasColumn(valueCol) {
		return nil, fmt.Errorf("missing value column %q", valueCol)
	}
	start, _ := params["start"].(time.Time)
	end, _ := params["end"].(time.Time)
	users, _ := params["users"].([]string)

	allowed := map[string]bool{}
	for _, u := range users {
		allowed[u] = true
	}

	daySums := map[dayKey]float64{}
	var dayOrder []dayKey
	devices := map[string]any{}

	for _, g := range table.GroupRows(t) {
		if len(allowed) > 0 && !allowed[g.User] {
			continue
		}
		for _, r := range g.Rows {
			if !start.IsZero() && r.Timestamp.Before(start) {
				continue
			}
			if !end.IsZero() && r.Timestamp.After(end) {
				continue
			}
			v, ok := r.Float(valueCol)
			if !ok {
				continue
			}
			key := rowDayKey(g, r.Timestamp)
			if _, seen := daySums[key]; !seen {
				dayOrder = append(dayOrder, key)
			}
			daySums[key] += v
			devices[key.user+"\x00"+key.device] = g.Device
		}
	}

	type groupSums struct {
		user   string
		device any
		sums   []float64
	}
	byGroup := map[string]*groupSums{}
	var groupOrder []string
	for _, key := range dayOrder {
		sum := daySums[key]
		if sum == 0 {
			continue
		}
		id := key.user + "\x00" + key.device
		gs, ok := byGroup[id]
		if !ok {
			gs = &groupSums{user: key.user, device: devices[id]}
			byGroup[id] = gs
			groupOrder = append(groupOrder, id)
		}
		gs.sums = append(gs.sums, sum)
	}

	out := table.New()
	for _, col := range []string{
		"median_sum_step", "avg_sum_step", "std_sum_step",
		"min_sum_step", "max_sum_step",
	} {
		out.AddColumn(col)
	}
	if t.HasColumn("device") {
		out.AddColumn("device")
	}

	for _, id := range groupOrder {
		gs := byGroup[id]
		vals := map[string]any{
			"median_sum_step": median(gs.sums),
			"avg_sum_step":    mean(gs.sums),
			"min_sum_step":    minOf(gs.sums),
			"max_sum_step":    maxOf(gs.sums),
		}
		if sd, ok := sampleStdDev(gs.sums); ok {
			vals["std_sum_step"] = sd
		}
		if gs.device != nil {
			vals["device"] = gs.device
		}
		out.Append(table.Row{User: gs.user, Values: vals})
	}
	return out, nil
}

// DailyStepDistribution expresses each observation of a step stream as its
// fraction of that day's total. Duplicate observations for the same user and
// timestamp keep the last-seen row before sums are computed; a zero daily
// sum leaves the fraction null.
//
// Params: value_col (default "steps") names the step column.
func DailyStepDistribution(t *table.Table, params Params) (*table.Table, error) {
	valueCol := params.stringOr("value_col", "steps")
	if !t.HasColumn(valueCol) {
		return nil, fmt.Errorf("missing value column %q", valueCol)
	}

	// Keep the last duplicate per (user, timestamp).
	type rowKey struct {
		user string
		ts   int64
	}
	lastIdx := map[rowKey]int{}
	var keyOrder []rowKey
	for i, r := range t.Rows() {
		key := rowKey{user: r.User, ts: r.Timestamp.UnixNano()}
		if _, seen := lastIdx[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		lastIdx[key] = i
	}

	dedup := table.New()
	for _, col := range t.Columns() {
		dedup.AddColumn(col)
	}
	for _, key := range keyOrder {
		dedup.Append(t.Row(lastIdx[key]).Clone())
	}

	daySums := map[dayKey]float64{}
	for _, g := range table.GroupRows(dedup) {
		for _, r := range g.Rows {
			if v, ok := r.Float(valueCol); ok {
				daySums[rowDayKey(g, r.Timestamp)] += v
			}
		}
	}

	dedup.AddColumn("daily_sum")
	dedup.AddColumn("daily_distribution")
	for _, g := range groupedIndexes(dedup) {
		for _, idx := range g.indexes {
			r := dedup.Row(idx)
			sum := daySums[rowDayKey(g.group, r.Timestamp)]
			dedup.Set(idx, "daily_sum", sum)
			if v, ok := r.Float(valueCol); ok && sum != 0 {
				dedup.Set(idx, "daily_distribution", v/sum)
			}
		}
	}
	return dedup, nil
}

// groupedIndexes mirrors table.GroupRows but carries row indexes so cells can
// be written back in place.
type indexGroup struct {
	group   table.Group
	indexes []int
}

func groupedIndexes(t *table.Table) []indexGroup {
	useDevice := t.HasColumn("device")
	byKey := map[string]int{}
	var groups []indexGroup

	for i, r := range t.Rows() {
		var dev any
		devKey := ""
		if useDevice {
			if v, ok := r.Value("device"); ok {
				dev = v
				devKey = fmt.Sprint(v)
			}
		}
		id := r.User + "\x00" + devKey
		idx, ok := byKey[id]
		if !ok {
			idx = len(groups)
			byKey[id] = idx
			groups = append(groups, indexGroup{group: table.Group{User: r.User, Device: dev}})
		}
		groups[idx].indexes = append(groups[idx].indexes, i)
	}
	return groups
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev returns the sample standard deviation; fewer than two
// observations yield no value.
func sampleStdDev(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1)), true
}

func minOf(xs []float64) float64 {
	out := xs[0]
	for _, x := range xs[1:] {
		if x < out {
			out = x
		}
	}
	return out
}

func maxOf(xs []float64) float64 {
	out := xs[0]
	for _, x := range xs[1:] {
		if x > out {
			out = x
		}
	}
	return out
}
