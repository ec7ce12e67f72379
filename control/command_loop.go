package control

import "context"

// CommandSource provides control commands from an external producer.
type CommandSource[T any] interface {
	NextCommand() (T, bool)
	WaitCommand(context.Context) (T, bool)
}

// CommandHandler consumes control commands and determines whether processing should continue.
type CommandHandler[T any] interface {
	HandleCommand(T) bool
}

// CommandHandlerFunc adapts a function into a CommandHandler.
type CommandHandlerFunc[T any] func(T) bool

// HandleCommand calls the underlying function.
func (f CommandHandlerFunc[T]) HandleCommand(cmd T) bool {
	if f == nil {
		return true
	}
	return f(cmd)
}

// CommandLoop drains and dispatches control commands.
type CommandLoop[T any] struct {
	source  CommandSource[T]
	handler CommandHandler[T]
}

// NewCommandLoop creates a command loop with the given source and handler.
func NewCommandLoop[T any](source CommandSource[T], handler CommandHandler[T]) *CommandLoop[T] {
	return &CommandLoop[T]{
		source:  source,
		handler: handler,
	}
}

// DrainPending pulls all currently available commands until exhaustion or handler termination.
func (c *CommandLoop[T]) DrainPending() bool {
	if c == nil || c.handler == nil || c.source == nil {
		return true
	}
	for {
		cmd, ok := c.source.NextCommand()
		if !ok {
			return true
		}
		if !c.handler.HandleCommand(cmd) {
			return false
		}
	}
}

// WaitAndHandle blocks until a command is available (or ctx is done) and dispatches it.
// It returns false once the handler asks to stop or ctx is cancelled.
func (c *CommandLoop[T]) WaitAndHandle(ctx context.Context) bool {
	if c == nil || c.handler == nil || c.source == nil {
		return true
	}
	cmd, ok := c.source.WaitCommand(ctx)
	if !ok {
		return ctx.Err() == nil
	}
	return c.handler.HandleCommand(cmd)
}

// Run dispatches commands until ctx is done or the handler stops the loop.
func (c *CommandLoop[T]) Run(ctx context.Context) {
	for c.WaitAndHandle(ctx) {
	}
}

// Queue is a bounded, non-blocking command source.
type Queue[T any] struct {
	ch chan T
}

// NewQueue creates a queue holding up to capacity pending commands.
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Push enqueues cmd, reporting false when the queue is full.
func (q *Queue[T]) Push(cmd T) bool {
	select {
	case q.ch <- cmd:
		return true
	default:
		return false
	}
}

// NextCommand returns the next pending command without blocking.
func (q *Queue[T]) NextCommand() (T, bool) {
	select {
	case cmd := <-q.ch:
		return cmd, true
	default:
		var zero T
		return zero, false
	}
}

// WaitCommand blocks until a command arrives or ctx is done.
func (q *Queue[T]) WaitCommand(ctx context.Context) (T, bool) {
	select {
	case cmd := <-q.ch:
		return cmd, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}
