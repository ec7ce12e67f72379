package index

import (
	"reflect"
	"testing"

	"github.com/Readm/pipeview/core"
	"github.com/Readm/pipeview/trace"
)

func mustParse(t *testing.T, raw string) *core.Trace {
	t.Helper()
	tr, err := trace.ParseString(raw, trace.ShapeAuto)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return tr
}

const pipelineTrace = `[
	{"cycle": 1},
	{"instruction": 1, "stage": "Fetch", "message": "IF"},
	{"cycle": 2},
	{"instruction": 2, "stage": "Fetch", "message": "IF 2"},
	{"instruction": 1, "stage": "Decode", "message": "ID"},
	{"instruction": 0, "stage": "Fetch", "message": "stall"},
	{"cycle": 3},
	{"instruction": 1, "stage": "Execute", "message": "EX"},
	{"instruction": 2, "stage": "Decode", "message": "ID 2"},
	{"instruction": 1, "stage": "Decode", "message": "replay"},
	{"instruction": 2, "stage": "Flush", "message": "squash"}
]`

func TestIndexLookup(t *testing.T) {
	idx := New(mustParse(t, pipelineTrace))

	ev, ok := idx.Lookup(2, 1, "Decode")
	if !ok || ev.Message != "ID" {
		t.Errorf("expected ID, got %+v ok=%v", ev, ok)
	}
	ev, ok = idx.Lookup(2, 0, "fetch")
	if !ok || ev.Message != "stall" {
		t.Errorf("expected stall, got %+v ok=%v", ev, ok)
	}

	absent := []struct {
		cycle, instruction int
		stage              string
	}{
		{99, 1, "Fetch"},
		{1, 5, "Fetch"},
		{1, 1, "WriteBack"},
		{-3, -1, ""},
		{2, 1, "no-such-stage"},
	}
	for _, q := range absent {
		if ev, ok := idx.Lookup(q.cycle, q.instruction, q.stage); ok {
			t.Errorf("expected absent for %+v, got %+v", q, ev)
		}
	}
}

func TestIndexEventsForCycle(t *testing.T) {
	idx := New(mustParse(t, pipelineTrace))
	events := idx.EventsForCycle(2)
	if len(events) != 3 {
		t.Fatalf("expected 3 events in cycle 2, got %d", len(events))
	}
	if events[0].Message != "IF 2" || events[2].Message != "stall" {
		t.Errorf("expected stream order, got %+v", events)
	}
	if idx.EventsForCycle(42) != nil {
		t.Errorf("expected nil for unknown cycle")
	}
}

func TestIndexEventsForInstruction(t *testing.T) {
	idx := New(mustParse(t, pipelineTrace))
	events := idx.EventsForInstruction(1, "DECODE")
	if len(events) != 2 {
		t.Fatalf("expected 2 decode events for instruction 1, got %d", len(events))
	}
	if events[0].Message != "ID" || events[1].Message != "replay" {
		t.Errorf("expected cycle order, got %+v", events)
	}
	if got := idx.CyclesForInstruction(1, "decode"); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("expected cycles [2 3], got %v", got)
	}
	if len(idx.EventsForInstruction(7, "fetch")) != 0 {
		t.Errorf("expected no events for unknown instruction")
	}
}

func TestIndexStageColumnSortedByInstruction(t *testing.T) {
	idx := New(mustParse(t, pipelineTrace))
	column := idx.StageColumn(2, "Fetch")
	if len(column) != 2 {
		t.Fatalf("expected 2 fetch events in cycle 2, got %d", len(column))
	}
	if column[0].Instruction != 0 || column[1].Instruction != 2 {
		t.Errorf("expected instruction order [0 2], got %+v", column)
	}
	// stream order in the trace itself must be untouched
	if idx.EventsForCycle(2)[0].Instruction != 2 {
		t.Errorf("sorting a column reordered the cycle's events")
	}
}

func TestIndexStageKeysAndRows(t *testing.T) {
	idx := New(mustParse(t, pipelineTrace))
	want := []core.StageKey{core.StageFetch, core.StageDecode, core.StageExecute, "flush"}
	if got := idx.StageKeys(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected stage keys %v, got %v", want, got)
	}

	row, ok := idx.Row(3)
	if !ok {
		t.Fatalf("expected row for cycle 3")
	}
	if len(row.Columns) != 6 {
		t.Fatalf("expected 5 pipeline columns plus flush, got %d", len(row.Columns))
	}
	if row.Columns[4].Name != "WriteBack" || len(row.Columns[4].Events) != 0 {
		t.Errorf("expected empty WriteBack cell, got %+v", row.Columns[4])
	}
	if row.Columns[5].Stage != "flush" || len(row.Columns[5].Events) != 1 {
		t.Errorf("expected flush column, got %+v", row.Columns[5])
	}
	if _, ok := idx.Row(9); ok {
		t.Errorf("expected no row for unknown cycle")
	}

	rows := idx.Grid([]int{1, 9, 3})
	if len(rows) != 2 || rows[0].Cycle != 1 || rows[1].Cycle != 3 {
		t.Errorf("unexpected grid rows %+v", rows)
	}
}

func TestIndexEmptyTrace(t *testing.T) {
	for _, tr := range []*core.Trace{nil, mustParse(t, "")} {
		idx := New(tr)
		if _, ok := idx.Lookup(1, 1, "fetch"); ok {
			t.Errorf("expected absent lookup on empty index")
		}
		if idx.MaxInstruction() != 0 || len(idx.CycleNumbers()) != 0 {
			t.Errorf("expected empty index")
		}
		if len(idx.StageKeys()) != 0 {
			t.Errorf("expected no stage keys")
		}
	}
}

func TestIndexCoversEveryEvent(t *testing.T) {
	tr := mustParse(t, pipelineTrace)
	idx := New(tr)
	for _, c := range tr.Cycles {
		for _, ev := range c.StageEvents {
			got, ok := idx.Lookup(c.Number, ev.Instruction, ev.Stage)
			if !ok || got != ev {
				t.Errorf("cycle %d: expected %+v, got %+v ok=%v", c.Number, ev, got, ok)
			}
		}
	}
}

func TestIndexResultsDoNotAliasTrace(t *testing.T) {
	tr := mustParse(t, pipelineTrace)
	idx := New(tr)

	idx.EventsForCycle(2)[0].Message = "changed"
	idx.EventsForInstruction(1, "fetch")[0].Message = "changed"
	idx.CyclesForInstruction(1, "decode")[0] = 99
	idx.StageColumn(2, "fetch")[0].Message = "changed"
	if c, ok := idx.Cycle(2); ok {
		c.StageEvents[0].Message = "changed"
	}
	if row, ok := idx.Row(1); ok {
		row.Columns[0].Events[0].Message = "changed"
	}

	if ev, _ := idx.Lookup(1, 1, "fetch"); ev.Message != "IF" {
		t.Errorf("expected cycle 1 fetch untouched, got %q", ev.Message)
	}
	for _, c := range tr.Cycles {
		for _, ev := range c.StageEvents {
			if ev.Message == "changed" {
				t.Fatalf("caller write reached the trace in cycle %d: %+v", c.Number, ev)
			}
		}
	}
	if got := idx.CyclesForInstruction(1, "decode"); got[0] == 99 {
		t.Errorf("expected lane cycles untouched, got %v", got)
	}
	if ev, _ := idx.Lookup(2, 0, "fetch"); ev.Message != "stall" {
		t.Errorf("expected stage column untouched, got %q", ev.Message)
	}
}
