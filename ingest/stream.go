// Package ingest fetches the raw simulator streams, turns them into immutable
// datasets and publishes each one atomically as the current value for its stream.
package ingest

import (
	"fmt"
	"strings"
)

// Stream names one of the independent raw inputs.
type Stream string

const (
	// StreamTrace is the per-cycle trace with register and memory snapshots.
	StreamTrace Stream = "trace"
	// StreamPipeline is the pipeline-only stage trace.
	StreamPipeline Stream = "pipeline"
	// StreamStats is the flat statistics record.
	StreamStats Stream = "stats"
	// StreamMemory is the final memory image.
	StreamMemory Stream = "memory"
)

// AllStreams lists every stream in a stable order.
var AllStreams = []Stream{StreamTrace, StreamPipeline, StreamStats, StreamMemory}

// DefaultPaths are the file names the simulator writes.
var DefaultPaths = map[Stream]string{
	StreamTrace:    "web.txt",
	StreamPipeline: "web2.txt",
	StreamStats:    "web3.txt",
	StreamMemory:   "data.mc",
}

// ParseStream validates a stream name.
func ParseStream(name string) (Stream, error) {
	s := Stream(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllStreams {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stream %q (valid: trace, pipeline, stats, memory)", name)
}

// CarriesEvents reports whether the stream is a stage-event trace.
func (s Stream) CarriesEvents() bool {
	return s == StreamTrace || s == StreamPipeline
}
