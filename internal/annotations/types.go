// Package annotations provides a clean, low-overhead event stream for
// tracing distributed query execution: step advances, scatter/merge,
// transport stash activity and work-stealing claims.
package annotations

import (
	"sync"
	"time"
)

// Event name constants, grouped by the component that emits them.
const (
	// Step executor
	StepBegin    = "step/begin"
	StepComplete = "step/complete"
	StepError    = "step/error"

	// Fork-join dispatcher
	ScatterDecision = "scatter/decision"
	ScatterDispatch = "scatter/dispatch"
	FastPathPush    = "fastpath/push"

	// Reply map
	ReplyMapRegistered = "replymap/registered"
	ReplyMapMerged     = "replymap/merged"
	ReplyMapForwarded  = "replymap/forwarded"
	ReplyMapOrphan     = "replymap/orphan"

	// Co-run optimizer
	CorunBegin    = "corun/begin"
	CorunComplete = "corun/complete"

	// Transport / engine main loop
	TransportStash = "transport/stash"
	TransportRetry = "transport/retry"
	WorkStealClaim = "worksteal/claim"

	// Query lifecycle
	QuerySubmitted = "query/submitted"
	QueryCompleted = "query/completed"
)

// Event represents a single annotation event during distributed execution.
type Event struct {
	Name    string
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]interface{}
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Collector accumulates events during query execution.
type Collector struct {
	enabled bool
	handler Handler
	mu      sync.Mutex
	events  []Event
}

// NewCollector creates a new annotation collector. A nil handler disables
// collection entirely: Add and AddTiming then return without recording.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		handler: handler,
		events:  make([]Event, 0, 32),
	}
}

// Enabled reports whether this collector has an attached handler.
func (c *Collector) Enabled() bool { return c.enabled }

// Add records a new event. Thread-safe for concurrent access (a collector
// may be shared across goroutines during parallel scatter dispatch).
func (c *Collector) Add(event Event) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()

	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event whose latency is measured from start to now.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.enabled {
		return
	}
	end := time.Now()
	c.Add(Event{Name: name, Start: start, End: end, Latency: end.Sub(start), Data: data})
}

// Events returns a copy of every event recorded so far.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
