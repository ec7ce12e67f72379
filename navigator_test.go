package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Readm/pipeview/hooks"
	"github.com/Readm/pipeview/ingest"
	"github.com/Readm/pipeview/trace"
)

func publishCycles(t *testing.T, store *ingest.Store, gen uint64, cycles int) {
	t.Helper()
	parts := make([]string, 0, cycles)
	for i := 1; i <= cycles; i++ {
		parts = append(parts, fmt.Sprintf(`{"cycle": %d}`, i))
	}
	ds, err := ingest.Build(ingest.StreamPipeline, trace.ShapeAuto, []byte("["+strings.Join(parts, ",")+"]"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ds.Generation = gen
	if !store.Publish(ds) {
		t.Fatalf("publish of generation %d dropped", gen)
	}
}

func TestNavigatorRebindFollowsGeneration(t *testing.T) {
	store := ingest.NewStore()
	broker := hooks.NewBroker()
	moves := 0
	broker.RegisterCursorMoved(func(*hooks.CursorMovedContext) error {
		moves++
		return nil
	})
	nav := NewNavigator(store, broker)
	c, _ := nav.Cursor(ingest.StreamPipeline)
	published := func(gen uint64) {
		if err := nav.onPublished(&hooks.PublishedContext{Stream: string(ingest.StreamPipeline), Generation: gen}); err != nil {
			t.Fatalf("hook: %v", err)
		}
	}

	publishCycles(t, store, 2, 2)
	published(2)
	if c.Len() != 2 || moves != 1 {
		t.Fatalf("Expected rebind to 2 cycles, got len %d moves %d", c.Len(), moves)
	}

	// a late hook from an older, dropped publish changes nothing
	published(1)
	if c.Len() != 2 || moves != 1 {
		t.Errorf("Expected stale hook ignored, got len %d moves %d", c.Len(), moves)
	}

	publishCycles(t, store, 3, 3)
	published(3)
	if c.Len() != 3 || moves != 2 {
		t.Fatalf("Expected rebind to 3 cycles, got len %d moves %d", c.Len(), moves)
	}

	// the generation 2 hook arriving after generation 3 must not rebind again
	published(2)
	if c.Len() != 3 || moves != 2 {
		t.Errorf("Expected older generation hook ignored, got len %d moves %d", c.Len(), moves)
	}
}
