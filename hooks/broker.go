// Package hooks lets the server, the metrics collector and the WebSocket hub
// observe ingest and navigation without the ingest layer knowing about them.
package hooks

import (
	"sync"

	"github.com/Readm/pipeview/cursor"
)

// PublishedContext describes a dataset that just became current.
type PublishedContext struct {
	Stream     string
	Generation uint64
	DatasetID  string
	Cycles     int
}

// IngestFailedContext describes a failed fetch or parse. The previously
// published dataset for Stream stays current.
type IngestFailedContext struct {
	Stream     string
	Generation uint64
	Err        error
}

// CursorMovedContext carries the cursor status after a navigation command.
type CursorMovedContext struct {
	Stream string
	Status cursor.Status
}

// PublishedHook runs after a dataset is published.
type PublishedHook func(ctx *PublishedContext) error

// IngestFailedHook runs after an ingest attempt fails.
type IngestFailedHook func(ctx *IngestFailedContext) error

// CursorMovedHook runs after a cursor changes state.
type CursorMovedHook func(ctx *CursorMovedContext) error

// Broker coordinates hook registration and triggering.
type Broker struct {
	mu sync.RWMutex

	publishedHooks    []PublishedHook
	ingestFailedHooks []IngestFailedHook
	cursorMovedHooks  []CursorMovedHook
}

// NewBroker creates an empty broker instance.
func NewBroker() *Broker {
	return &Broker{
		publishedHooks:    make([]PublishedHook, 0),
		ingestFailedHooks: make([]IngestFailedHook, 0),
		cursorMovedHooks:  make([]CursorMovedHook, 0),
	}
}

// RegisterPublished adds a hook executed after each publish.
func (b *Broker) RegisterPublished(h PublishedHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishedHooks = append(b.publishedHooks, h)
}

// RegisterIngestFailed adds a hook executed after each failed ingest.
func (b *Broker) RegisterIngestFailed(h IngestFailedHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ingestFailedHooks = append(b.ingestFailedHooks, h)
}

// RegisterCursorMoved adds a hook executed after each cursor move.
func (b *Broker) RegisterCursorMoved(h CursorMovedHook) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursorMovedHooks = append(b.cursorMovedHooks, h)
}

// EmitPublished runs the published hooks in registration order, stopping at the first error.
func (b *Broker) EmitPublished(ctx *PublishedContext) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	hooks := append([]PublishedHook(nil), b.publishedHooks...)
	b.mu.RUnlock()
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EmitIngestFailed runs the failure hooks in registration order, stopping at the first error.
func (b *Broker) EmitIngestFailed(ctx *IngestFailedContext) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	hooks := append([]IngestFailedHook(nil), b.ingestFailedHooks...)
	b.mu.RUnlock()
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EmitCursorMoved runs the cursor hooks in registration order, stopping at the first error.
func (b *Broker) EmitCursorMoved(ctx *CursorMovedContext) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	hooks := append([]CursorMovedHook(nil), b.cursorMovedHooks...)
	b.mu.RUnlock()
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}
