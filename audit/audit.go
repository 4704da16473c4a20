// Package audit provides the fire-and-forget event sink update stages emit
// into. Emission never blocks and never fails the main flow; handler
// panics are recovered and logged.
package audit

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Event types emitted by the flow update stages.
const (
	EventPaymentCancelled        = "payment_cancelled"
	EventPaymentCaptureInitiated = "payment_capture_initiated"
	EventPayoutSynced            = "payout_synced"
)

// Event is an audit record. Payload keys are flow specific.
type Event struct {
	Type    string
	At      time.Time
	Payload map[string]any
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, payload map[string]any) Event {
	return Event{
		Type:    eventType,
		At:      time.Now().UTC(),
		Payload: payload,
	}
}

// Sink receives audit events. Implementations must never block or fail the
// caller.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// Handler consumes a single audit event.
type Handler func(ctx context.Context, event Event)

// Logger is the minimal logging contract the dispatcher needs.
type Logger interface {
	Error(msg string, args ...any)
}

// Option defines the functional option signature.
type Option func(*Dispatcher)

func WithLogger(l Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// Dispatcher fans events out to registered handlers, each on its own
// goroutine.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   Logger
}

// NewDispatcher applies the given options to a new dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string][]Handler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Subscribe registers a handler for an event type.
func (d *Dispatcher) Subscribe(eventType string, handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Emit delivers the event to every subscribed handler asynchronously.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := d.handlers[event.Type]
	d.mu.RUnlock()

	for _, h := range handlers {
		h := h
		go func() {
			defer d.recoverHandler(event.Type)
			h(ctx, event)
		}()
	}
}

func (d *Dispatcher) recoverHandler(eventType string) {
	if err := recover(); err != nil {
		if d.logger == nil {
			return
		}
		stack := make([]byte, 8096)
		n := runtime.Stack(stack, false)
		d.logger.Error("recovered from panic in audit handler for %s: %v\n%s", eventType, err, stack[:n])
	}
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}
