package annotations

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorDisabledWithNilHandler(t *testing.T) {
	c := NewCollector(nil)
	if c.Enabled() {
		t.Fatal("a nil-handler collector should report disabled")
	}
	c.Add(Event{Name: StepBegin})
	if len(c.Events()) != 0 {
		t.Fatal("a disabled collector should not record events")
	}
}

func TestCollectorAddRecordsAndInvokesHandler(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c := NewCollector(func(e Event) {
		mu.Lock()
		seen = append(seen, e.Name)
		mu.Unlock()
	})
	if !c.Enabled() {
		t.Fatal("a collector with a handler should report enabled")
	}

	c.Add(Event{Name: StepBegin})
	c.Add(Event{Name: StepComplete})

	events := c.Events()
	if len(events) != 2 {
		t.Fatalf("Events() = %d, want 2", len(events))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != StepBegin || seen[1] != StepComplete {
		t.Fatalf("handler saw %v", seen)
	}
}

func TestCollectorAddTimingMeasuresLatency(t *testing.T) {
	c := NewCollector(func(Event) {})
	start := time.Now()
	time.Sleep(time.Millisecond)
	c.AddTiming(StepComplete, start, map[string]interface{}{"step": 1})

	events := c.Events()
	if len(events) != 1 {
		t.Fatalf("Events() = %d, want 1", len(events))
	}
	if events[0].Latency <= 0 {
		t.Fatal("AddTiming should record a positive latency")
	}
}

func TestCollectorEventsReturnsCopy(t *testing.T) {
	c := NewCollector(func(Event) {})
	c.Add(Event{Name: StepBegin})

	events := c.Events()
	events[0].Name = "mutated"

	if c.Events()[0].Name != StepBegin {
		t.Fatal("Events() should return an independent copy")
	}
}
