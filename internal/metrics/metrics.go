// Package metrics collects serving counters for the suggestion service.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"nudge/pkg/protocol"
)

// Metrics holds all service counters.
type Metrics struct {
	RequestCount      atomic.Int64
	RequestErrors     atomic.Int64
	RequestDuration   atomic.Int64 // cumulative milliseconds
	ActiveConnections atomic.Int64
	SuggestionsServed atomic.Int64

	StartTime time.Time

	mu       sync.RWMutex
	bySource map[protocol.Source]int64
}

var (
	globalMetrics *Metrics
	once          sync.Once
)

// Initialize initializes the global metrics.
func Initialize() *Metrics {
	once.Do(func() {
		globalMetrics = &Metrics{
			StartTime: time.Now(),
			bySource:  make(map[protocol.Source]int64),
		}
	})
	return globalMetrics
}

// Get returns the global metrics instance.
func Get() *Metrics {
	if globalMetrics == nil {
		return Initialize()
	}
	return globalMetrics
}

// RecordRequest records one completed request.
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.RequestCount.Add(1)
	m.RequestDuration.Add(duration.Milliseconds())
	if err != nil {
		m.RequestErrors.Add(1)
	}
}

// RecordSuggestions counts served suggestions per signal source.
func (m *Metrics) RecordSuggestions(suggestions []protocol.Suggestion) {
	m.SuggestionsServed.Add(int64(len(suggestions)))
	m.mu.Lock()
	for _, s := range suggestions {
		m.bySource[s.Source]++
	}
	m.mu.Unlock()
}

// IncrementActiveConnections increments the active connection gauge.
func (m *Metrics) IncrementActiveConnections() {
	m.ActiveConnections.Add(1)
}

// DecrementActiveConnections decrements the active connection gauge.
func (m *Metrics) DecrementActiveConnections() {
	m.ActiveConnections.Add(-1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	UptimeSeconds     int64            `json:"uptime_seconds"`
	RequestCount      int64            `json:"request_count"`
	RequestErrors     int64            `json:"request_errors"`
	AvgRequestMillis  float64          `json:"avg_request_ms"`
	ActiveConnections int64            `json:"active_connections"`
	SuggestionsServed int64            `json:"suggestions_served"`
	BySource          map[string]int64 `json:"by_source"`
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		UptimeSeconds:     int64(time.Since(m.StartTime).Seconds()),
		RequestCount:      m.RequestCount.Load(),
		RequestErrors:     m.RequestErrors.Load(),
		ActiveConnections: m.ActiveConnections.Load(),
		SuggestionsServed: m.SuggestionsServed.Load(),
		BySource:          make(map[string]int64),
	}
	if s.RequestCount > 0 {
		s.AvgRequestMillis = float64(m.RequestDuration.Load()) / float64(s.RequestCount)
	}
	m.mu.RLock()
	for src, n := range m.bySource {
		s.BySource[string(src)] = n
	}
	m.mu.RUnlock()
	return s
}

// JSON renders the snapshot as a JSON object.
func (m *Metrics) JSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}
