// Package hooks provides event subscriptions for run and test lifecycle
// transitions. The Runtime emits, subsystems like the history store listen.
package hooks

import (
	"sync"
	"time"
)

// Event types emitted over a run.
type Event string

const (
	EventRunStarted   Event = "run_started"
	EventRunFinished  Event = "run_finished"
	EventTestStarted  Event = "test_started"
	EventTestFinished Event = "test_finished"
)

// Handler handles one lifecycle event.
type Handler func(event Event, data any)

// RunEventData accompanies run-level events.
type RunEventData struct {
	RunID      string
	Title      string
	ReportPath string
}

// TestEventData accompanies test-level events.
type TestEventData struct {
	RunID     string
	ClassName string
	Method    string
	SessionID string
	Status    string
	Duration  time.Duration
	VideoPath string
	Error     error
}

// Bus dispatches lifecycle events to registered handlers. Each Runtime owns
// one; there is no process-global bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Event][]Handler)}
}

// On registers a handler for an event.
func (b *Bus) On(event Event, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Emit dispatches an event to all registered handlers, synchronously, in
// registration order. Handlers can spawn goroutines if they need to.
func (b *Bus) Emit(event Event, data any) {
	b.mu.RLock()
	handlers := b.handlers[event]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event, data)
	}
}

// OnTestFinished registers a typed handler for test completion.
func (b *Bus) OnTestFinished(handler func(data TestEventData)) {
	b.On(EventTestFinished, func(_ Event, data any) {
		if d, ok := data.(TestEventData); ok {
			handler(d)
		}
	})
}

// OnRunFinished registers a typed handler for run completion.
func (b *Bus) OnRunFinished(handler func(data RunEventData)) {
	b.On(EventRunFinished, func(_ Event, data any) {
		if d, ok := data.(RunEventData); ok {
			handler(d)
		}
	})
}
