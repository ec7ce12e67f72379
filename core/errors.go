// Package core defines the pipeline trace data model shared by the parser,
// the index, the reveal cursor and the ingest layer.
package core

import "errors"

// Parse errors. Each one aborts the ingest that produced it; no partial trace
// is ever published.
var (
	// ErrMalformedTrace indicates the raw text is not a valid event stream in
	// either the flat or the nested shape.
	ErrMalformedTrace = errors.New("malformed trace")

	// ErrOrphanStageEvent indicates a flat-shape stage event that precedes every cycle marker.
	ErrOrphanStageEvent = errors.New("stage event before any cycle marker")

	// ErrInvalidInstructionIndex indicates a negative or non-integer instruction field.
	ErrInvalidInstructionIndex = errors.New("invalid instruction index")
)

// Ingest errors
var (
	// ErrIngestUnavailable indicates the upstream fetch of a raw stream failed.
	// The parser is never invoked for that stream.
	ErrIngestUnavailable = errors.New("ingest unavailable")

	// ErrNotIngested indicates no dataset has been published for a stream yet.
	ErrNotIngested = errors.New("stream not ingested")
)
