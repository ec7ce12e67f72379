package index

import "testing"

func TestSnapshotFor(t *testing.T) {
	tr := mustParse(t, `[
		{"cycle": 1, "logs": [{"stage": "Fetch", "message": "IF"}]},
		{"cycle": 2, "logs": [], "registers": [{"reg": "x1", "value": "0x5"}, {"reg": "x2", "value": "0x0"}], "memory": [{"address": "0x100", "value": "0x7"}]}
	]`)
	snaps := New(tr).Snapshots()

	snap := snaps.SnapshotFor(2)
	if len(snap.Registers) != 2 || snap.Registers[0].Name != "x1" {
		t.Errorf("unexpected registers %+v", snap.Registers)
	}
	if len(snap.Memory) != 1 || snap.Memory[0].Address != "0x100" {
		t.Errorf("unexpected memory %+v", snap.Memory)
	}

	for _, cycle := range []int{1, 77} {
		snap := snaps.SnapshotFor(cycle)
		if snap.Registers == nil || snap.Memory == nil {
			t.Errorf("cycle %d: expected empty non-nil lists, got %+v", cycle, snap)
		}
		if len(snap.Registers) != 0 || len(snap.Memory) != 0 {
			t.Errorf("cycle %d: expected no data, got %+v", cycle, snap)
		}
	}
	if !snaps.HasData() {
		t.Errorf("expected HasData to be true")
	}

	var none *Snapshots
	if got := none.SnapshotFor(1); got.Registers == nil {
		t.Errorf("nil store must still return empty lists")
	}
}
