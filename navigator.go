package main

import (
	"fmt"
	"sync"

	"github.com/Readm/pipeview/cursor"
	"github.com/Readm/pipeview/hooks"
	"github.com/Readm/pipeview/ingest"
)

// Navigator owns one reveal cursor per event stream and keeps each bound to
// the stream's current trace.
type Navigator struct {
	store   *ingest.Store
	broker  *hooks.Broker
	cursors map[ingest.Stream]*cursor.Cursor

	mu sync.Mutex
	// bound is the dataset generation each cursor was last rebound to.
	bound map[ingest.Stream]uint64
}

// NewNavigator creates cursors for the event streams and rebinds them
// whenever a new dataset is published.
func NewNavigator(store *ingest.Store, broker *hooks.Broker) *Navigator {
	n := &Navigator{
		store:   store,
		broker:  broker,
		cursors: make(map[ingest.Stream]*cursor.Cursor),
		bound:   make(map[ingest.Stream]uint64),
	}
	for _, s := range ingest.AllStreams {
		if s.CarriesEvents() {
			n.cursors[s] = cursor.New(nil)
		}
	}
	broker.RegisterPublished(n.onPublished)
	return n
}

// onPublished rebinds the stream's cursor to the current dataset. Rebinds
// never move backwards in generation, so a late hook from an older publish
// cannot replace a newer cycle list.
func (n *Navigator) onPublished(ctx *hooks.PublishedContext) error {
	stream := ingest.Stream(ctx.Stream)
	c, ok := n.cursors[stream]
	if !ok {
		return nil
	}

	n.mu.Lock()
	bound := n.bound[stream]
	if ctx.Generation < bound {
		n.mu.Unlock()
		return nil
	}
	ds, ok := n.store.Current(stream)
	if !ok || ds.Trace == nil || ds.Generation <= bound {
		n.mu.Unlock()
		return nil
	}
	c.Rebind(ds.Trace.CycleNumbers())
	n.bound[stream] = ds.Generation
	status := c.Status()
	n.mu.Unlock()

	return n.broker.EmitCursorMoved(&hooks.CursorMovedContext{Stream: ctx.Stream, Status: status})
}

// Cursor returns the cursor of an event stream.
func (n *Navigator) Cursor(stream ingest.Stream) (*cursor.Cursor, error) {
	c, ok := n.cursors[stream]
	if !ok {
		return nil, fmt.Errorf("stream %s has no cycles to navigate", stream)
	}
	return c, nil
}

// Apply moves the stream's cursor and notifies hooks when it changed.
func (n *Navigator) Apply(stream ingest.Stream, ev cursor.Event) (cursor.Status, error) {
	c, err := n.Cursor(stream)
	if err != nil {
		return cursor.Status{}, err
	}
	if _, changed := c.Apply(ev); changed {
		status := c.Status()
		if err := n.broker.EmitCursorMoved(&hooks.CursorMovedContext{Stream: string(stream), Status: status}); err != nil {
			GetLogger().Warnf("Cursor hook for %s failed: %v", stream, err)
		}
		return status, nil
	}
	return c.Status(), nil
}
