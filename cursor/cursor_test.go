package cursor

import (
	"reflect"
	"testing"
)

func TestCursorRevealSequence(t *testing.T) {
	c := New([]int{1, 2, 3})
	if c.State() != NotStarted || len(c.VisibleCycleNumbers()) != 0 {
		t.Fatalf("expected NotStarted with nothing visible")
	}

	if !c.Start() {
		t.Fatalf("expected Start to change state")
	}
	if got := c.VisibleCycleNumbers(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("expected [1], got %v", got)
	}

	c.Advance()
	c.Advance()
	if got := c.VisibleCycleNumbers(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if c.Advance() {
		t.Errorf("expected Advance at last position to be a no-op")
	}
	if got := c.VisibleCycleNumbers(); len(got) != 3 {
		t.Errorf("expected visible unchanged, got %v", got)
	}

	if !c.Retreat() || c.Position() != 1 {
		t.Errorf("expected Retreat to position 1, got %d", c.Position())
	}
	if !c.JumpToEnd() || c.Position() != 2 {
		t.Errorf("expected JumpToEnd to position 2, got %d", c.Position())
	}
	if c.Start() {
		t.Errorf("expected Start while revealing to be a no-op")
	}
	if !c.Reset() || c.State() != NotStarted {
		t.Errorf("expected Reset to return to NotStarted")
	}
}

func TestCursorNoOpsBeforeStart(t *testing.T) {
	c := New([]int{4, 8})
	for name, step := range map[string]func() bool{
		"advance": c.Advance,
		"retreat": c.Retreat,
		"end":     c.JumpToEnd,
		"reset":   c.Reset,
	} {
		if step() {
			t.Errorf("%s: expected no-op before Start", name)
		}
		if c.State() != NotStarted || c.Position() != -1 {
			t.Errorf("%s: expected NotStarted", name)
		}
	}
}

func TestCursorRetreatAtZero(t *testing.T) {
	c := New([]int{1, 2})
	c.Start()
	if c.Retreat() {
		t.Errorf("expected Retreat at position 0 to be a no-op")
	}
	if c.Position() != 0 {
		t.Errorf("expected position 0, got %d", c.Position())
	}
}

func TestCursorEmptyTrace(t *testing.T) {
	c := New(nil)
	if c.Start() {
		t.Errorf("expected Start on empty trace to be a no-op")
	}
	if c.State() != NotStarted || len(c.VisibleCycleNumbers()) != 0 {
		t.Errorf("expected zero visible cycles")
	}
	if _, ok := c.Current(); ok {
		t.Errorf("expected no current cycle")
	}
}

func TestCursorVisibleBounds(t *testing.T) {
	cycles := []int{10, 11, 15, 20}
	c := New(cycles)
	events := []Event{EventAdvance, EventStart, EventAdvance, EventAdvance, EventAdvance, EventAdvance, EventRetreat, EventEnd, EventReset, EventRetreat, EventStart}
	for _, ev := range events {
		c.Apply(ev)
		visible := c.VisibleCycleNumbers()
		switch c.State() {
		case NotStarted:
			if len(visible) != 0 {
				t.Fatalf("after %s: expected nothing visible, got %v", ev, visible)
			}
		case Revealing:
			if len(visible) != c.Position()+1 || len(visible) > len(cycles) {
				t.Fatalf("after %s: visible %v inconsistent with position %d", ev, visible, c.Position())
			}
		}
	}
}

func TestCursorVisibleIsACopy(t *testing.T) {
	cycles := []int{1, 2}
	c := New(cycles)
	c.Start()
	visible := c.VisibleCycleNumbers()
	visible[0] = 99
	cycles[1] = 77
	if got := c.VisibleCycleNumbers(); got[0] != 1 {
		t.Errorf("visible slice aliases cursor state: %v", got)
	}
	c.Advance()
	if cur, _ := c.Current(); cur != 2 {
		t.Errorf("cursor aliases caller slice, current=%d", cur)
	}
}

func TestCursorRebind(t *testing.T) {
	c := New([]int{1, 2, 3, 4})
	c.Start()
	c.JumpToEnd()

	c.Rebind([]int{1, 2})
	if c.Position() != 1 {
		t.Errorf("expected clamp to position 1, got %d", c.Position())
	}
	c.Rebind([]int{1, 2, 3, 4, 5})
	if c.Position() != 1 {
		t.Errorf("expected position kept at 1, got %d", c.Position())
	}
	c.Rebind(nil)
	if c.State() != NotStarted {
		t.Errorf("expected NotStarted after rebinding to empty trace")
	}
}

func TestCursorStatus(t *testing.T) {
	c := New([]int{5, 6})
	st := c.Status()
	if st.State != NotStarted || st.Position != -1 || st.Total != 2 || len(st.Visible) != 0 {
		t.Errorf("unexpected status %+v", st)
	}
	c.Start()
	c.Advance()
	st = c.Status()
	if st.Current != 6 || !st.AtEnd || st.AtStart || !reflect.DeepEqual(st.Visible, []int{5, 6}) {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestParseEvent(t *testing.T) {
	if ev, err := ParseEvent("end"); err != nil || ev != EventEnd {
		t.Errorf("expected end, got %q %v", ev, err)
	}
	if _, err := ParseEvent("jump"); err == nil {
		t.Errorf("expected error for unknown event")
	}
}
