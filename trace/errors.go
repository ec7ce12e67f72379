package trace

import (
	"fmt"

	"github.com/Readm/pipeview/core"
)

// TraceError locates a parse failure inside the raw stream. Err is always one
// of the core parse sentinels so callers can match with errors.Is.
type TraceError struct {
	Stream  string // set by the loader; empty when parsing bare input
	Element int    // zero-based array position, -1 for the whole input
	Field   string
	Detail  string
	Err     error
}

func (e *TraceError) Error() string {
	where := "input"
	if e.Element >= 0 {
		where = fmt.Sprintf("element %d", e.Element)
	}
	if e.Field != "" {
		where += " field " + e.Field
	}
	if e.Stream != "" {
		where = e.Stream + " " + where
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", where, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", where, e.Err, e.Detail)
}

func (e *TraceError) Unwrap() error {
	return e.Err
}

func malformed(element int, field, format string, args ...any) error {
	return &TraceError{
		Element: element,
		Field:   field,
		Detail:  fmt.Sprintf(format, args...),
		Err:     core.ErrMalformedTrace,
	}
}

func invalidInstruction(element int, format string, args ...any) error {
	return &TraceError{
		Element: element,
		Field:   "instruction",
		Detail:  fmt.Sprintf(format, args...),
		Err:     core.ErrInvalidInstructionIndex,
	}
}
