package core

import "testing"

func TestTraceCycleByPosition(t *testing.T) {
	tr := &Trace{Cycles: []Cycle{{Number: 7}, {Number: 3}}}
	if c, ok := tr.Cycle(1); !ok || c.Number != 3 {
		t.Errorf("expected cycle 3 at position 1, got %d %v", c.Number, ok)
	}
	for _, i := range []int{-1, 2} {
		if _, ok := tr.Cycle(i); ok {
			t.Errorf("expected no cycle at position %d", i)
		}
	}
	var empty *Trace
	if _, ok := empty.Cycle(0); ok || empty.Len() != 0 {
		t.Error("expected nil trace to be empty")
	}
}
