// Package trace turns raw simulator output into canonical core values: the
// pipeline event stream (flat or nested shape), the statistics record and the
// memory dump.
package trace

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Readm/pipeview/core"
)

// Shape selects how the top-level event array is interpreted.
type Shape string

const (
	// ShapeAuto lets the first meaningful element decide.
	ShapeAuto Shape = "auto"
	// ShapeFlat is an interleaved sequence of cycle markers and stage events.
	ShapeFlat Shape = "flat"
	// ShapeNested is a sequence of per-cycle bundles.
	ShapeNested Shape = "nested"
)

// ParseShape validates a shape name; the empty string means ShapeAuto.
func ParseShape(name string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(name))) {
	case "", ShapeAuto:
		return ShapeAuto, nil
	case ShapeFlat:
		return ShapeFlat, nil
	case ShapeNested:
		return ShapeNested, nil
	default:
		return "", fmt.Errorf("unknown trace shape %q (valid: auto, flat, nested)", name)
	}
}

// ParseString is Parse over a string.
func ParseString(raw string, hint Shape) (*core.Trace, error) {
	return Parse([]byte(raw), hint)
}

// Parse builds a Trace from raw event-stream text. Whitespace-only input is an
// empty trace. On error no trace is returned.
func Parse(raw []byte, hint Shape) (*core.Trace, error) {
	if hint == "" {
		hint = ShapeAuto
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return newBuilder().finish(), nil
	}

	elems, err := splitElements(raw)
	if err != nil {
		return nil, err
	}

	// one walk: the first error in stream order wins
	b := newBuilder()
	shape := hint
	for i, elem := range elems {
		rec, err := normalize(i, elem)
		if err != nil {
			return nil, err
		}
		if rec.kind == recordIgnored {
			continue
		}
		if shape == ShapeAuto {
			shape = ShapeFlat
			if rec.kind == recordBundle {
				shape = ShapeNested
			}
		}
		if err := checkShape(shape, rec); err != nil {
			return nil, err
		}

		switch rec.kind {
		case recordCycleMarker:
			b.open(rec.cycle)
		case recordCycleEvent:
			b.open(rec.cycle)
			b.add(rec.event)
		case recordStageEvent:
			if !b.hasCurrent() {
				return nil, &TraceError{
					Element: rec.element,
					Detail:  fmt.Sprintf("instruction %d stage %q", rec.event.Instruction, rec.event.Stage),
					Err:     core.ErrOrphanStageEvent,
				}
			}
			b.add(rec.event)
		case recordBundle:
			b.open(rec.cycle)
			for _, ev := range rec.bundle.events {
				b.add(ev)
			}
			b.attach(rec.bundle.registers, rec.bundle.memory)
		}
	}
	return b.finish(), nil
}

func checkShape(shape Shape, rec record) error {
	switch shape {
	case ShapeFlat:
		if rec.kind == recordBundle {
			return malformed(rec.element, "", "cycle bundle in flat stream")
		}
	case ShapeNested:
		if rec.kind != recordBundle {
			return malformed(rec.element, "", "%s in nested stream", rec.kind)
		}
	default:
		return fmt.Errorf("unknown trace shape %q", shape)
	}
	return nil
}

type eventKey struct {
	instruction int
	stage       core.StageKey
}

// builder is the current-cycle accumulator. Reopening a cycle number that was
// already seen continues that cycle in place so numbers stay unique.
type builder struct {
	cycles         []core.Cycle
	positions      map[int]int
	slots          []map[eventKey]int
	current        int
	maxInstruction int
}

func newBuilder() *builder {
	return &builder{
		cycles:    make([]core.Cycle, 0),
		positions: make(map[int]int),
		current:   -1,
	}
}

func (b *builder) hasCurrent() bool {
	return b.current >= 0
}

func (b *builder) open(number int) {
	if pos, ok := b.positions[number]; ok {
		b.current = pos
		return
	}
	b.cycles = append(b.cycles, core.Cycle{
		Number:      number,
		StageEvents: make([]core.StageEvent, 0),
	})
	b.slots = append(b.slots, make(map[eventKey]int))
	b.current = len(b.cycles) - 1
	b.positions[number] = b.current
}

// add appends ev to the current cycle; an event with the same instruction and
// stage key replaces the earlier one in place.
func (b *builder) add(ev core.StageEvent) {
	cycle := &b.cycles[b.current]
	key := eventKey{instruction: ev.Instruction, stage: ev.Key}
	if slot, ok := b.slots[b.current][key]; ok {
		cycle.StageEvents[slot] = ev
	} else {
		b.slots[b.current][key] = len(cycle.StageEvents)
		cycle.StageEvents = append(cycle.StageEvents, ev)
	}
	if ev.Instruction > b.maxInstruction {
		b.maxInstruction = ev.Instruction
	}
}

// attach stores snapshots on the current cycle. A later bundle for the same
// cycle replaces snapshots it carries and leaves the others alone.
func (b *builder) attach(registers []core.RegisterSnapshot, memory []core.MemorySnapshot) {
	cycle := &b.cycles[b.current]
	if len(registers) > 0 {
		cycle.Registers = registers
	}
	if len(memory) > 0 {
		cycle.Memory = memory
	}
}

func (b *builder) finish() *core.Trace {
	return &core.Trace{
		Cycles:         b.cycles,
		MaxInstruction: b.maxInstruction,
	}
}
