package pseudo

import (
	"fmt"
	"testing"
)

func TestCodesAssignedInFirstEncounterOrder(t *testing.T) {
	b := NewCodebook()
	ids := []string{"carol", "alice", "bob", "alice", "carol"}
	wantCodes := []int{1, 2, 3, 2, 1}
	for i, id := range ids {
		code, ok := b.Code(id)
		if !ok {
			t.Fatalf("Code(%q) ok = false, want true", id)
		}
		if code != wantCodes[i] {
			t.Errorf("Code(%q) = %d, want %d", id, code, wantCodes[i])
		}
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
}

func TestSelfMapsToZero(t *testing.T) {
	b := NewCodebook()
	b.SetSelf("me@example.com")

	if code, ok := b.Code("other@example.com"); !ok || code != 1 {
		t.Errorf("Code(other) = %d, %v, want 1, true", code, ok)
	}
	if code, ok := b.Code("me@example.com"); !ok || code != 0 {
		t.Errorf("Code(self) = %d, %v, want 0, true", code, ok)
	}
}

func TestEmptyIdentifierIsNull(t *testing.T) {
	b := NewCodebook()
	if _, ok := b.Code(""); ok {
		t.Error("Code(\"\") ok = true, want false")
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d after empty lookup, want 0", b.Len())
	}
}

func TestBijectionAndInverse(t *testing.T) {
	b := NewCodebook()
	b.SetSelf("self")
	ids := []string{"self"}
	for i := 0; i < 50; i++ {
		ids = append(ids, fmt.Sprintf("id-%d", i))
	}
	codes := map[int]string{}
	for _, id := range ids {
		code, ok := b.Code(id)
		if !ok {
			t.Fatalf("Code(%q) ok = false", id)
		}
		if prev, dup := codes[code]; dup && prev != id {
			t.Fatalf("code %d assigned to both %q and %q", code, prev, id)
		}
		codes[code] = id
	}

	inv := b.Inverse()
	if len(inv) != len(ids) {
		t.Fatalf("len(Inverse()) = %d, want %d", len(inv), len(ids))
	}
	for code, id := range inv {
		if got, ok := b.Lookup(id); !ok || got != code {
			t.Errorf("Lookup(%q) = %d, %v, want %d, true", id, got, ok, code)
		}
	}
}
