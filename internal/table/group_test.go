package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGroupRowsByUserAndDevice(t *testing.T) {
	tab := New()
	tab.Append(Row{User: "a", Values: map[string]any{"device": "d1", "n": 1.0}})
	tab.Append(Row{User: "a", Values: map[string]any{"device": "d2", "n": 2.0}})
	tab.Append(Row{User: "b", Values: map[string]any{"device": "d1", "n": 3.0}})
	tab.Append(Row{User: "a", Values: map[string]any{"device": "d1", "n": 4.0}})

	groups := GroupRows(tab)
	if len(groups) != 3 {
		t.Fatalf("len(groups) = %d, want 3", len(groups))
	}
	// First-encountered order.
	if groups[0].User != "a" || groups[0].Device != "d1" {
		t.Errorf("groups[0] = (%s, %v), want (a, d1)", groups[0].User, groups[0].Device)
	}
	if len(groups[0].Rows) != 2 {
		t.Errorf("len(groups[0].Rows) = %d, want 2", len(groups[0].Rows))
	}
}

func TestGroupRowsDegradesWithoutDevice(t *testing.T) {
	tab := New()
	tab.Append(Row{User: "a", Values: map[string]any{"n": 1.0}})
	tab.Append(Row{User: "b", Values: map[string]any{"n": 2.0}})
	tab.Append(Row{User: "a", Values: map[string]any{"n": 3.0}})

	groups := GroupRows(tab)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Device != nil {
		t.Errorf("groups[0].Device = %v, want nil", groups[0].Device)
	}
	if len(groups[0].Rows) != 2 {
		t.Errorf("user a row count = %d, want 2", len(groups[0].Rows))
	}
}

func TestKeyValues(t *testing.T) {
	g := Group{User: "a", Device: "d1"}
	want := map[string]any{"user": "a", "device": "d1"}
	if diff := cmp.Diff(want, g.KeyValues()); diff != "" {
		t.Errorf("KeyValues() mismatch (-want +got):\n%s", diff)
	}

	bare := Group{User: "a"}
	if diff := cmp.Diff(map[string]any{"user": "a"}, bare.KeyValues()); diff != "" {
		t.Errorf("KeyValues() without device mismatch (-want +got):\n%s", diff)
	}
}
