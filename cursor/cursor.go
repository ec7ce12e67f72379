// Package cursor implements the reveal cursor: progressive disclosure of a
// trace's cycles for step-through inspection.
package cursor

import (
	"fmt"
	"sync"
)

// State is the cursor's coarse state.
type State string

const (
	NotStarted State = "not_started"
	Revealing  State = "revealing"
)

// Event names a cursor transition.
type Event string

const (
	EventStart   Event = "start"
	EventAdvance Event = "advance"
	EventRetreat Event = "retreat"
	EventEnd     Event = "end"
	EventReset   Event = "reset"
)

// ParseEvent validates a transition name.
func ParseEvent(name string) (Event, error) {
	switch ev := Event(name); ev {
	case EventStart, EventAdvance, EventRetreat, EventEnd, EventReset:
		return ev, nil
	default:
		return "", fmt.Errorf("unknown cursor event %q", name)
	}
}

// Status is a point-in-time copy of the cursor for display.
type Status struct {
	State    State `json:"state"`
	Position int   `json:"position"`
	Total    int   `json:"total"`
	Current  int   `json:"current,omitempty"`
	Visible  []int `json:"visible"`
	AtStart  bool  `json:"atStart"`
	AtEnd    bool  `json:"atEnd"`
}

// Cursor walks an ordered list of cycle numbers. Position is only meaningful
// while Revealing and then always lies in [0, len(cycles)-1].
type Cursor struct {
	mu       sync.RWMutex
	cycles   []int
	state    State
	position int
}

// New creates a cursor in NotStarted over a copy of cycles.
func New(cycles []int) *Cursor {
	return &Cursor{
		cycles: append([]int(nil), cycles...),
		state:  NotStarted,
	}
}

// Apply dispatches ev and returns the resulting state and whether anything changed.
func (c *Cursor) Apply(ev Event) (State, bool) {
	var changed bool
	switch ev {
	case EventStart:
		changed = c.Start()
	case EventAdvance:
		changed = c.Advance()
	case EventRetreat:
		changed = c.Retreat()
	case EventEnd:
		changed = c.JumpToEnd()
	case EventReset:
		changed = c.Reset()
	}
	return c.State(), changed
}

// Start enters Revealing at position 0. With no cycles the cursor stays NotStarted.
func (c *Cursor) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Revealing || len(c.cycles) == 0 {
		return false
	}
	c.state = Revealing
	c.position = 0
	return true
}

// Advance reveals one more cycle; no-op at the last cycle or before Start.
func (c *Cursor) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Revealing || c.position >= len(c.cycles)-1 {
		return false
	}
	c.position++
	return true
}

// Retreat hides the last revealed cycle; no-op at position 0 or before Start.
func (c *Cursor) Retreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Revealing || c.position == 0 {
		return false
	}
	c.position--
	return true
}

// JumpToEnd reveals every cycle; no-op before Start.
func (c *Cursor) JumpToEnd() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Revealing {
		return false
	}
	last := len(c.cycles) - 1
	if c.position == last {
		return false
	}
	c.position = last
	return true
}

// Reset returns to NotStarted from any state.
func (c *Cursor) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == NotStarted {
		return false
	}
	c.state = NotStarted
	c.position = 0
	return true
}

// Rebind points the cursor at a new cycle list after re-ingest. A revealing
// cursor keeps its position, clamped into the new range; an empty list
// returns it to NotStarted.
func (c *Cursor) Rebind(cycles []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cycles = append([]int(nil), cycles...)
	if c.state != Revealing {
		return
	}
	if len(c.cycles) == 0 {
		c.state = NotStarted
		c.position = 0
		return
	}
	if c.position > len(c.cycles)-1 {
		c.position = len(c.cycles) - 1
	}
}

// State returns the current state.
func (c *Cursor) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Position returns the revealed position, or -1 when NotStarted.
func (c *Cursor) Position() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != Revealing {
		return -1
	}
	return c.position
}

// Len returns the number of cycles the cursor walks.
func (c *Cursor) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cycles)
}

// VisibleCycleNumbers returns the revealed prefix of the cycle list: empty when
// NotStarted, position+1 entries when Revealing.
func (c *Cursor) VisibleCycleNumbers() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visibleLocked()
}

func (c *Cursor) visibleLocked() []int {
	if c.state != Revealing {
		return []int{}
	}
	return append([]int(nil), c.cycles[:c.position+1]...)
}

// Current returns the most recently revealed cycle number.
func (c *Cursor) Current() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != Revealing {
		return 0, false
	}
	return c.cycles[c.position], true
}

// Status snapshots the cursor.
func (c *Cursor) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Status{
		State:   c.state,
		Total:   len(c.cycles),
		Visible: c.visibleLocked(),
	}
	if c.state == Revealing {
		st.Position = c.position
		st.Current = c.cycles[c.position]
		st.AtStart = c.position == 0
		st.AtEnd = c.position == len(c.cycles)-1
	} else {
		st.Position = -1
	}
	return st
}
