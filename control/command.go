// Package control carries navigation and reload requests from the HTTP,
// WebSocket and terminal front ends to the single goroutine that owns the
// reveal cursors.
package control

import "fmt"

// CommandType names a control instruction.
type CommandType string

const (
	CommandNone    CommandType = "none"
	CommandStart   CommandType = "start"
	CommandAdvance CommandType = "advance"
	CommandRetreat CommandType = "retreat"
	CommandEnd     CommandType = "end"
	CommandReset   CommandType = "reset"
	CommandReload  CommandType = "reload"
)

// ParseCommandType validates a wire command name.
func ParseCommandType(name string) (CommandType, error) {
	switch t := CommandType(name); t {
	case CommandStart, CommandAdvance, CommandRetreat, CommandEnd, CommandReset, CommandReload:
		return t, nil
	default:
		return CommandNone, fmt.Errorf("invalid command type %q", name)
	}
}

// IsNavigation reports whether the command moves a reveal cursor.
func (t CommandType) IsNavigation() bool {
	switch t {
	case CommandStart, CommandAdvance, CommandRetreat, CommandEnd, CommandReset:
		return true
	}
	return false
}

// Command is one queued control instruction. Stream selects which trace's
// cursor it applies to; empty means the default stream.
type Command struct {
	Type   CommandType `json:"type"`
	Stream string      `json:"stream,omitempty"`
}
