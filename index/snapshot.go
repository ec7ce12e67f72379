package index

import "github.com/Readm/pipeview/core"

// Snapshot is the register and memory state recorded for one cycle. Missing
// data is an empty list.
type Snapshot struct {
	Cycle     int                     `json:"cycle"`
	Registers []core.RegisterSnapshot `json:"registers"`
	Memory    []core.MemorySnapshot   `json:"memory"`
}

// Snapshots is the read-only per-cycle snapshot accessor shared by the cycle
// detail and traversal views.
type Snapshots struct {
	byCycle map[int]*core.Cycle
}

// NewSnapshots builds the accessor for t.
func NewSnapshots(t *core.Trace) *Snapshots {
	s := &Snapshots{byCycle: make(map[int]*core.Cycle, t.Len())}
	if t == nil {
		return s
	}
	for i := range t.Cycles {
		s.byCycle[t.Cycles[i].Number] = &t.Cycles[i]
	}
	return s
}

// SnapshotFor returns the snapshot of cycle. Unknown cycles and cycles without
// snapshot data both yield empty lists.
func (s *Snapshots) SnapshotFor(cycle int) Snapshot {
	snap := Snapshot{
		Cycle:     cycle,
		Registers: []core.RegisterSnapshot{},
		Memory:    []core.MemorySnapshot{},
	}
	if s == nil {
		return snap
	}
	c, ok := s.byCycle[cycle]
	if !ok {
		return snap
	}
	if len(c.Registers) > 0 {
		snap.Registers = clone(c.Registers)
	}
	if len(c.Memory) > 0 {
		snap.Memory = clone(c.Memory)
	}
	return snap
}

// HasData reports whether any cycle carries register or memory data.
func (s *Snapshots) HasData() bool {
	if s == nil {
		return false
	}
	for _, c := range s.byCycle {
		if len(c.Registers) > 0 || len(c.Memory) > 0 {
			return true
		}
	}
	return false
}
