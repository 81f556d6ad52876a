package feature

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lifetab/lifetab/internal/table"
)

func hourly(user string, day, hour int, steps float64) table.Row {
	return table.Row{
		Timestamp: time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC),
		User:      user,
		Values:    map[string]any{"steps": steps},
	}
}

func stepTable() *table.Table {
	t := table.New()
	// user a: day 1 sums to 600, day 2 to 1200, day 3 to 0 (excluded).
	t.Append(hourly("a", 1, 8, 100))
	t.Append(hourly("a", 1, 9, 500))
	t.Append(hourly("a", 2, 8, 1200))
	t.Append(hourly("a", 3, 8, 0))
	// user b: one day of 300.
	t.Append(hourly("b", 1, 10, 300))
	return t
}

func TestStepSummary(t *testing.T) {
	out, err := StepSummary(stepTable(), nil)
	if err != nil {
		t.Fatalf("StepSummary() failed: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (one row per user)", out.Len())
	}

	a := out.Row(0)
	if a.User != "a" {
		t.Fatalf("first summary user = %q, want a", a.User)
	}
	if v, _ := a.Float("median_sum_step"); v != 900 {
		t.Errorf("median_sum_step = %v, want 900", v)
	}
	if v, _ := a.Float("avg_sum_step"); v != 900 {
		t.Errorf("avg_sum_step = %v, want 900", v)
	}
	if v, _ := a.Float("min_sum_step"); v != 600 {
		t.Errorf("min_sum_step = %v, want 600 (zero day excluded)", v)
	}
	if v, _ := a.Float("max_sum_step"); v != 1200 {
		t.Errorf("max_sum_step = %v, want 1200", v)
	}
	wantStd := math.Sqrt(2) * 300
	if v, _ := a.Float("std_sum_step"); math.Abs(v-wantStd) > 1e-9 {
		t.Errorf("std_sum_step = %v, want %v", v, wantStd)
	}

	// A single observed day leaves the sample deviation null.
	b := out.Row(1)
	if _, ok := b.Value("std_sum_step"); ok {
		t.Error("std_sum_step for one-day user is non-null")
	}
}

func TestStepSummaryInvariants(t *testing.T) {
	out, err := StepSummary(stepTable(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range out.Rows() {
		minV, _ := r.Float("min_sum_step")
		medV, _ := r.Float("median_sum_step")
		avgV, _ := r.Float("avg_sum_step")
		maxV, _ := r.Float("max_sum_step")
		if !(minV <= medV && medV <= maxV) {
			t.Errorf("row %d: min %v <= median %v <= max %v violated", i, minV, medV, maxV)
		}
		if !(minV <= avgV && avgV <= maxV) {
			t.Errorf("row %d: min %v <= avg %v <= max %v violated", i, minV, avgV, maxV)
		}
		if minV <= 0 {
			t.Errorf("row %d: min_sum_step = %v, zero days must not contribute", i, minV)
		}
	}
}

func TestStepSummaryMissingColumn(t *testing.T) {
	empty := table.New()
	empty.Append(table.Row{User: "a", Values: map[string]any{"other": 1.0}})
	if _, err := StepSummary(empty, nil); err == nil {
		t.Error("StepSummary() = nil error without value column, want error")
	}
}

func TestDailyStepDistributionSumsToOne(t *testing.T) {
	out, err := DailyStepDistribution(stepTable(), nil)
	if err != nil {
		t.Fatalf("DailyStepDistribution() failed: %v", err)
	}

	type userDay struct {
		user string
		day  int
	}
	sums := map[userDay]float64{}
	for _, r := range out.Rows() {
		frac, ok := r.Float("daily_distribution")
		if !ok {
			continue // zero-sum day stays null
		}
		sums[userDay{r.User, r.Timestamp.Day()}] += frac
	}
	for key, sum := range sums {
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("distribution for %v sums to %v, want 1.0", key, sum)
		}
	}
}

func TestDailyStepDistributionKeepsLastDuplicate(t *testing.T) {
	tab := table.New()
	tab.Append(hourly("a", 1, 8, 100))
	tab.Append(hourly("a", 1, 8, 900)) // same user and timestamp: wins
	tab.Append(hourly("a", 1, 9, 100))

	out, err := DailyStepDistribution(tab, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after dedup", out.Len())
	}
	if v, _ := out.Row(0).Float("steps"); v != 900 {
		t.Errorf("deduped steps = %v, want 900 (last wins)", v)
	}
	if v, _ := out.Row(0).Float("daily_sum"); v != 1000 {
		t.Errorf("daily_sum = %v, want 1000", v)
	}
	if v, _ := out.Row(0).Float("daily_distribution"); v != 0.9 {
		t.Errorf("daily_distribution = %v, want 0.9", v)
	}
}

func TestZeroSumDayLeavesDistributionNull(t *testing.T) {
	tab := table.New()
	tab.Append(hourly("a", 1, 8, 0))
	tab.Append(hourly("a", 1, 9, 0))

	out, err := DailyStepDistribution(tab, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range out.Rows() {
		if _, ok := r.Value("daily_distribution"); ok {
			t.Errorf("row %d daily_distribution non-null for zero-sum day", i)
		}
		if v, _ := r.Float("daily_sum"); v != 0 {
			t.Errorf("row %d daily_sum = %v, want 0", i, v)
		}
	}
}

func TestRegistry(t *testing.T) {
	want := []string{"daily_step_distribution", "step_summary"}
	if diff := cmp.Diff(want, Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := Lookup("step_summary"); !ok {
		t.Error("Lookup(step_summary) not found")
	}
	if _, err := Compute("bogus", table.New(), nil); err == nil {
		t.Error("Compute(bogus) = nil error, want error")
	}
}

func TestExtractPropagatesGroupLabel(t *testing.T) {
	tab := stepTable()
	for i := 0; i < tab.Len(); i++ {
		tab.Set(i, "group", "control")
	}

	out, err := Extract(tab, map[string]Params{"step_summary": nil})
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", out.Len())
	}
	for i, r := range out.Rows() {
		if g, _ := r.String("group"); g != "control" {
			t.Errorf("row %d group = %q, want control", i, g)
		}
	}
}

func TestExtractAllFeatures(t *testing.T) {
	out, err := Extract(stepTable(), nil)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	for _, col := range []string{"median_sum_step", "daily_distribution", "daily_sum"} {
		if !out.HasColumn(col) {
			t.Errorf("missing column %q in extracted output: %v", col, out.Columns())
		}
	}
	if out.Len() == 0 {
		t.Fatal("Extract() produced no rows")
	}
}
