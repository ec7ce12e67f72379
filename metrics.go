package main

import (
	"sync"
	"time"

	"github.com/Readm/pipeview/hooks"
)

// MetricsSnapshot holds running totals since start.
type MetricsSnapshot struct {
	Ingests     int `json:"ingests"`
	Failures    int `json:"failures"`
	Lookups     int `json:"lookups"`
	CursorMoves int `json:"cursorMoves"`
}

type metricsCollector struct {
	mu             sync.Mutex
	interval       time.Duration
	totals         MetricsSnapshot
	window         MetricsSnapshot
	lastReportTime time.Time
}

func newMetricsCollector(interval time.Duration) *metricsCollector {
	return &metricsCollector{
		interval:       interval,
		lastReportTime: time.Now(),
	}
}

func (m *metricsCollector) record(apply func(s *MetricsSnapshot)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	apply(&m.totals)
	apply(&m.window)
	m.emitIfNeeded()
	m.mu.Unlock()
}

func (m *metricsCollector) RecordIngest() {
	m.record(func(s *MetricsSnapshot) { s.Ingests++ })
}

func (m *metricsCollector) RecordFailure() {
	m.record(func(s *MetricsSnapshot) { s.Failures++ })
}

func (m *metricsCollector) RecordLookup() {
	m.record(func(s *MetricsSnapshot) { s.Lookups++ })
}

func (m *metricsCollector) RecordCursorMove() {
	m.record(func(s *MetricsSnapshot) { s.CursorMoves++ })
}

// Snapshot returns the running totals.
func (m *metricsCollector) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}

// register subscribes the collector to ingest and navigation hooks.
func (m *metricsCollector) register(b *hooks.Broker) {
	b.RegisterPublished(func(*hooks.PublishedContext) error {
		m.RecordIngest()
		return nil
	})
	b.RegisterIngestFailed(func(*hooks.IngestFailedContext) error {
		m.RecordFailure()
		return nil
	})
	b.RegisterCursorMoved(func(*hooks.CursorMovedContext) error {
		m.RecordCursorMove()
		return nil
	})
}

func (m *metricsCollector) emitIfNeeded() {
	now := time.Now()
	if now.Sub(m.lastReportTime) < m.interval {
		return
	}
	duration := now.Sub(m.lastReportTime).Seconds()
	lookupRate := float64(m.window.Lookups)
	if duration > 0 {
		lookupRate = lookupRate / duration
	}
	GetLogger().Infof("Lookups %.1f/s, ingests %d (failed %d), cursor moves %d",
		lookupRate, m.window.Ingests, m.window.Failures, m.window.CursorMoves)
	m.window = MetricsSnapshot{}
	m.lastReportTime = now
}
