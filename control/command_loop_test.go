package control

import (
	"context"
	"testing"
	"time"
)

func TestQueueNonBlocking(t *testing.T) {
	q := NewQueue[Command](1)
	if _, ok := q.NextCommand(); ok {
		t.Fatalf("expected empty queue")
	}
	if !q.Push(Command{Type: CommandStart}) {
		t.Fatalf("expected push to succeed")
	}
	if q.Push(Command{Type: CommandAdvance}) {
		t.Errorf("expected push on full queue to fail")
	}
	cmd, ok := q.NextCommand()
	if !ok || cmd.Type != CommandStart {
		t.Errorf("expected start command, got %+v ok=%v", cmd, ok)
	}
}

func TestCommandLoopDrainPending(t *testing.T) {
	q := NewQueue[Command](4)
	q.Push(Command{Type: CommandStart})
	q.Push(Command{Type: CommandAdvance})
	q.Push(Command{Type: CommandEnd})

	var seen []CommandType
	loop := NewCommandLoop[Command](q, CommandHandlerFunc[Command](func(cmd Command) bool {
		seen = append(seen, cmd.Type)
		return cmd.Type != CommandAdvance
	}))

	if loop.DrainPending() {
		t.Errorf("expected handler to stop the drain")
	}
	if len(seen) != 2 {
		t.Errorf("expected drain to stop after advance, saw %v", seen)
	}
	if !loop.DrainPending() || len(seen) != 3 {
		t.Errorf("expected remaining command drained, saw %v", seen)
	}
}

func TestCommandLoopRunStopsOnCancel(t *testing.T) {
	q := NewQueue[Command](4)
	handled := make(chan Command, 4)
	loop := NewCommandLoop[Command](q, CommandHandlerFunc[Command](func(cmd Command) bool {
		handled <- cmd
		return true
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	q.Push(Command{Type: CommandReload})
	select {
	case cmd := <-handled:
		if cmd.Type != CommandReload {
			t.Errorf("expected reload, got %s", cmd.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("command was not handled")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
}

func TestParseCommandType(t *testing.T) {
	if ct, err := ParseCommandType("retreat"); err != nil || ct != CommandRetreat || !ct.IsNavigation() {
		t.Errorf("unexpected result %q %v", ct, err)
	}
	if ct, _ := ParseCommandType("reload"); ct.IsNavigation() {
		t.Errorf("reload is not a navigation command")
	}
	if _, err := ParseCommandType("pause"); err == nil {
		t.Errorf("expected error for unknown command")
	}
}
