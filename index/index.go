// Package index precomputes constant-time lookups over an immutable trace so
// that grid rendering never rescans the event stream.
package index

import (
	"sort"

	"github.com/samber/lo"

	"github.com/Readm/pipeview/core"
)

type cellKey struct {
	cycle       int
	instruction int
	stage       core.StageKey
}

type laneKey struct {
	instruction int
	stage       core.StageKey
}

type columnKey struct {
	cycle int
	stage core.StageKey
}

// Index answers (cycle, instruction, stage) queries against one Trace. It is
// built once per ingest and never modified, so it is safe for concurrent readers.
type Index struct {
	trace     *core.Trace
	positions map[int]int
	cells     map[cellKey]core.StageEvent
	lanes     map[laneKey][]core.StageEvent
	laneCycle map[laneKey][]int
	columns   map[columnKey][]core.StageEvent
	stageKeys []core.StageKey
	snapshots *Snapshots
}

// New indexes t in time proportional to its event count. A nil trace yields an
// empty index.
func New(t *core.Trace) *Index {
	if t == nil {
		t = &core.Trace{}
	}
	idx := &Index{
		trace:     t,
		positions: make(map[int]int, len(t.Cycles)),
		cells:     make(map[cellKey]core.StageEvent, t.EventCount()),
		lanes:     make(map[laneKey][]core.StageEvent),
		laneCycle: make(map[laneKey][]int),
		columns:   make(map[columnKey][]core.StageEvent),
	}

	seen := make([]core.StageKey, 0, len(core.PipelineStages))
	for pos := range t.Cycles {
		c := &t.Cycles[pos]
		idx.positions[c.Number] = pos
		for _, ev := range c.StageEvents {
			idx.cells[cellKey{cycle: c.Number, instruction: ev.Instruction, stage: ev.Key}] = ev

			lane := laneKey{instruction: ev.Instruction, stage: ev.Key}
			idx.lanes[lane] = append(idx.lanes[lane], ev)
			idx.laneCycle[lane] = append(idx.laneCycle[lane], c.Number)

			col := columnKey{cycle: c.Number, stage: ev.Key}
			idx.columns[col] = append(idx.columns[col], ev)
			seen = append(seen, ev.Key)
		}
	}

	for col, events := range idx.columns {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Instruction < events[j].Instruction
		})
		idx.columns[col] = events
	}

	idx.stageKeys = orderStageKeys(lo.Uniq(seen))
	idx.snapshots = NewSnapshots(t)
	return idx
}

// orderStageKeys puts the classic pipeline stages first in pipeline order and
// keeps custom stages in first-appearance order after them.
func orderStageKeys(keys []core.StageKey) []core.StageKey {
	pipeline := lo.Filter(core.PipelineStages, func(k core.StageKey, _ int) bool {
		return lo.Contains(keys, k)
	})
	custom := lo.Reject(keys, func(k core.StageKey, _ int) bool {
		return k.IsPipelineStage()
	})
	return append(pipeline, custom...)
}

// Trace returns the indexed trace.
func (idx *Index) Trace() *core.Trace {
	return idx.trace
}

// MaxInstruction returns the highest instruction number in the trace.
func (idx *Index) MaxInstruction() int {
	return idx.trace.MaxInstruction
}

// CycleNumbers returns cycle numbers in trace order.
func (idx *Index) CycleNumbers() []int {
	return idx.trace.CycleNumbers()
}

// HasCycle reports whether the trace contains the cycle number.
func (idx *Index) HasCycle(cycle int) bool {
	_, ok := idx.positions[cycle]
	return ok
}

// Cycle returns a copy of the cycle with the given number.
func (idx *Index) Cycle(cycle int) (core.Cycle, bool) {
	pos, ok := idx.positions[cycle]
	if !ok {
		return core.Cycle{}, false
	}
	c := idx.trace.Cycles[pos]
	c.StageEvents = clone(c.StageEvents)
	c.Registers = clone(c.Registers)
	c.Memory = clone(c.Memory)
	return c, true
}

// StageKeys lists every stage key present in the trace.
func (idx *Index) StageKeys() []core.StageKey {
	return append([]core.StageKey(nil), idx.stageKeys...)
}

// Lookup returns the event of instruction in stage during cycle. Unknown
// cycles, instructions and stages are reported as absent.
func (idx *Index) Lookup(cycle, instruction int, stage string) (core.StageEvent, bool) {
	ev, ok := idx.cells[cellKey{cycle: cycle, instruction: instruction, stage: core.NormalizeStage(stage)}]
	return ev, ok
}

// EventsForCycle returns a copy of the events of one cycle in stream order,
// or nil when the cycle is unknown.
func (idx *Index) EventsForCycle(cycle int) []core.StageEvent {
	pos, ok := idx.positions[cycle]
	if !ok {
		return nil
	}
	return clone(idx.trace.Cycles[pos].StageEvents)
}

// EventsForInstruction returns a copy of the events of instruction in stage
// across all cycles, in cycle order.
func (idx *Index) EventsForInstruction(instruction int, stage string) []core.StageEvent {
	return clone(idx.lanes[laneKey{instruction: instruction, stage: core.NormalizeStage(stage)}])
}

// CyclesForInstruction returns the cycle numbers matching EventsForInstruction
// element for element.
func (idx *Index) CyclesForInstruction(instruction int, stage string) []int {
	return clone(idx.laneCycle[laneKey{instruction: instruction, stage: core.NormalizeStage(stage)}])
}

// StageColumn returns the events of one stage during one cycle ordered by
// instruction number.
func (idx *Index) StageColumn(cycle int, stage string) []core.StageEvent {
	return clone(idx.columns[columnKey{cycle: cycle, stage: core.NormalizeStage(stage)}])
}

// clone copies s so callers cannot write through to the shared index; nil stays nil.
func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// Snapshots returns the register/memory accessor for the trace.
func (idx *Index) Snapshots() *Snapshots {
	return idx.snapshots
}
