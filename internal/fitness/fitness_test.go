package fitness

import (
	"testing"
	"time"

	"github.com/lifetab/lifetab/internal/testutil"
)

const metricsCSV = `Start time,End time,Move Minutes count,Calories (kcal),Distance (m),Step count,Average speed (m/s),Walking duration (ms)
17:00:00.000-05:00,17:15:00.000-05:00,13.0,43.42468,1174.961861,1537.0,1.539091,337365
23:45:00.000-05:00,00:00:00.000-05:00,5.0,10.5,,250.0,,
`

func metricsZip(t *testing.T) string {
	t.Helper()
	return testutil.CreateTempZip(t, map[string]string{
		"Takeout/Fit/Daily activity metrics/2023-11-14.csv":             metricsCSV,
		"Takeout/Fit/Daily activity metrics/Daily activity metrics.csv": "Date,Steps\n2023-11-14,5000\n",
		"Takeout/Fit/Daily activity metrics/notes.txt":                  "not a csv",
	})
}

func TestReadDailyMetrics(t *testing.T) {
	tab, err := ReadDailyMetrics(metricsZip(t), Options{User: "u1"})
	if err != nil {
		t.Fatalf("ReadDailyMetrics() failed: %v", err)
	}
	if tab.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (rollup file skipped)", tab.Len())
	}

	r := tab.Row(0)
	if v, _ := r.Float("move_minutes_count"); v != 13.0 {
		t.Errorf("move_minutes_count = %v, want 13", v)
	}
	if v, _ := r.Float("calories_(kcal)"); v != 43.42468 {
		t.Errorf("calories_(kcal) = %v, want 43.42468", v)
	}
	if v, _ := r.Float("distance_(m)"); v != 1174.961861 {
		t.Errorf("distance_(m) = %v, want 1174.961861", v)
	}
	if v, _ := r.Float("step_count"); v != 1537.0 {
		t.Errorf("step_count = %v, want 1537", v)
	}
	if v, _ := r.Float("average_speed_(m/s)"); v != 1.539091 {
		t.Errorf("average_speed_(m/s) = %v, want 1.539091", v)
	}

	// The duration column loses its unit suffix and the stored count is in
	// microseconds.
	if tab.HasColumn("walking_duration_(ms)") {
		t.Errorf("unit suffix not removed: %v", tab.Columns())
	}
	if d, ok := r.Duration("walking_duration"); !ok || d != 337365*time.Microsecond {
		t.Errorf("walking_duration = %v, %v, want 337.365ms", d, ok)
	}

	wantStart, _ := time.Parse("2006-01-02 15:04:05.999-07:00", "2023-11-14 17:00:00.000-05:00")
	if !r.Timestamp.Equal(wantStart) {
		t.Errorf("timestamp = %v, want %v", r.Timestamp, wantStart)
	}
}

func TestMidnightEndRollsToNextDay(t *testing.T) {
	tab, err := ReadDailyMetrics(metricsZip(t), Options{})
	if err != nil {
		t.Fatalf("ReadDailyMetrics() failed: %v", err)
	}
	r := tab.Row(1)
	end, ok := r.Time("end_time")
	if !ok {
		t.Fatal("end_time is null")
	}
	want, _ := time.Parse("2006-01-02 15:04:05.999-07:00", "2023-11-15 00:00:00.000-05:00")
	if !end.Equal(want) {
		t.Errorf("end_time = %v, want %v (midnight of the next day)", end, want)
	}
}

func TestEmptyCellsAreNull(t *testing.T) {
	tab, err := ReadDailyMetrics(metricsZip(t), Options{})
	if err != nil {
		t.Fatalf("ReadDailyMetrics() failed: %v", err)
	}
	r := tab.Row(1)
	if _, ok := r.Value("distance_(m)"); ok {
		t.Error("empty distance cell is non-null")
	}
	if _, ok := r.Value("average_speed_(m/s)"); ok {
		t.Error("empty speed cell is non-null")
	}
}

func TestNoMatchingMembers(t *testing.T) {
	path := testutil.CreateTempZip(t, map[string]string{"Takeout/other.txt": "x"})
	tab, err := ReadDailyMetrics(path, Options{})
	if err != nil {
		t.Fatalf("ReadDailyMetrics() failed: %v", err)
	}
	if tab.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tab.Len())
	}
}
