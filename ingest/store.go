package ingest

import (
	"sync/atomic"
	"time"

	"github.com/Readm/pipeview/core"
	"github.com/Readm/pipeview/index"
)

// Dataset is one fully built, immutable ingest result for a stream. Only the
// fields matching the stream's kind are set.
type Dataset struct {
	ID         string
	Stream     Stream
	Generation uint64
	LoadedAt   time.Time

	Trace  *core.Trace
	Index  *index.Index
	Stats  *core.Statistics
	Memory []core.MemorySnapshot
}

// Store holds the current dataset of every stream. Readers never observe a
// partially built dataset: a new one is swapped in with a single atomic store.
type Store struct {
	slots      map[Stream]*atomic.Pointer[Dataset]
	generation atomic.Uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{slots: make(map[Stream]*atomic.Pointer[Dataset], len(AllStreams))}
	for _, stream := range AllStreams {
		s.slots[stream] = &atomic.Pointer[Dataset]{}
	}
	return s
}

// NextGeneration hands out a strictly increasing ingest generation.
func (s *Store) NextGeneration() uint64 {
	return s.generation.Add(1)
}

// Current returns the published dataset for stream.
func (s *Store) Current(stream Stream) (*Dataset, bool) {
	slot, ok := s.slots[stream]
	if !ok {
		return nil, false
	}
	ds := slot.Load()
	return ds, ds != nil
}

// Publish makes ds current unless a newer generation is already published for
// its stream, in which case ds is stale and dropped.
func (s *Store) Publish(ds *Dataset) bool {
	if ds == nil {
		return false
	}
	slot, ok := s.slots[ds.Stream]
	if !ok {
		return false
	}
	for {
		old := slot.Load()
		if old != nil && old.Generation > ds.Generation {
			return false
		}
		if slot.CompareAndSwap(old, ds) {
			return true
		}
	}
}
