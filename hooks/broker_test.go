package hooks

import (
	"errors"
	"testing"

	"github.com/Readm/pipeview/cursor"
)

func TestPublishedHooksRunInOrder(t *testing.T) {
	b := NewBroker()
	order := make([]string, 0, 2)

	b.RegisterPublished(func(ctx *PublishedContext) error {
		order = append(order, "first:"+ctx.Stream)
		return nil
	})
	b.RegisterPublished(func(ctx *PublishedContext) error {
		order = append(order, "second:"+ctx.Stream)
		return nil
	})

	if err := b.EmitPublished(&PublishedContext{Stream: "pipeline", Generation: 3}); err != nil {
		t.Fatalf("EmitPublished returned error: %v", err)
	}
	if len(order) != 2 || order[0] != "first:pipeline" || order[1] != "second:pipeline" {
		t.Fatalf("unexpected hook order %v", order)
	}
}

func TestHookErrorStopsProcessing(t *testing.T) {
	b := NewBroker()
	calls := 0

	b.RegisterIngestFailed(func(ctx *IngestFailedContext) error {
		calls++
		return errors.New("hook fail")
	})
	b.RegisterIngestFailed(func(ctx *IngestFailedContext) error {
		calls++
		return nil
	})

	err := b.EmitIngestFailed(&IngestFailedContext{Stream: "trace", Err: errors.New("boom")})
	if err == nil {
		t.Fatalf("expected error from failure hook")
	}
	if calls != 1 {
		t.Fatalf("expected only first hook to run, calls=%d", calls)
	}
}

func TestCursorMovedHooks(t *testing.T) {
	b := NewBroker()
	var got cursor.Status
	b.RegisterCursorMoved(func(ctx *CursorMovedContext) error {
		got = ctx.Status
		return nil
	})
	b.RegisterCursorMoved(nil)

	status := cursor.Status{State: cursor.Revealing, Position: 1, Total: 3, Visible: []int{1, 2}}
	if err := b.EmitCursorMoved(&CursorMovedContext{Stream: "pipeline", Status: status}); err != nil {
		t.Fatalf("EmitCursorMoved returned error: %v", err)
	}
	if got.Position != 1 || got.State != cursor.Revealing {
		t.Errorf("unexpected status %+v", got)
	}
}

func TestNilBrokerIsNoOp(t *testing.T) {
	var b *Broker
	b.RegisterPublished(func(*PublishedContext) error { return errors.New("never") })
	if err := b.EmitPublished(&PublishedContext{}); err != nil {
		t.Errorf("expected nil broker to ignore emits, got %v", err)
	}
}
