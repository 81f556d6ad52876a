package table

import "fmt"

// GroupColumns is the canonical grouping key. Grouping intersects it with the
// columns actually present: a table without a device column groups by user
// alone.
var GroupColumns = []string{"user", "device"}

// Group is one partition of a table under the canonical grouping key.
type Group struct {
	User string
	// Device is the device cell value, nil when the table has no device
	// column or the cell is null.
	Device any
	Rows   []Row
}

// KeyValues returns the key columns of the group as ordinary columns, the
// inverse of grouping. Device is included only when present.
func (g Group) KeyValues() map[string]any {
	out := map[string]any{"user": g.User}
	if g.Device != nil {
		out["device"] = g.Device
	}
	return out
}

type groupKey struct {
	user   string
	device string
}

// GroupRows partitions rows by (user, device), degrading to user alone when
// the device column is absent. Groups appear in first-encountered order.
func GroupRows(t *Table) []Group {
	useDevice := t.HasColumn("device")
	byKey := map[groupKey]int{}
	var groups []Group

	for _, r := range t.Rows() {
		key := groupKey{user: r.User}
		var dev any
		if useDevice {
			if v, ok := r.Value("device"); ok {
				dev = v
				key.device = fmt.Sprint(v)
			}
		}
		idx, ok := byKey[key]
		if !ok {
			idx = len(groups)
			byKey[key] = idx
			groups = append(groups, Group{User: r.User, Device: dev})
		}
		groups[idx].Rows = append(groups[idx].Rows, r)
	}
	return groups
}
