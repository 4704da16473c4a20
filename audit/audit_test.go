package audit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewDispatcher()
	received := make(chan Event, 1)
	dispatcher.Subscribe(EventPaymentCancelled, func(_ context.Context, event Event) {
		received <- event
	})

	dispatcher.Emit(context.Background(), NewEvent(EventPaymentCancelled, map[string]any{
		"payment_id": "pay_1",
	}))

	select {
	case event := <-received:
		if event.Payload["payment_id"] != "pay_1" {
			t.Fatalf("unexpected payload: %v", event.Payload)
		}
		if event.At.IsZero() {
			t.Fatal("expected event stamped with emission time")
		}
	case <-time.After(time.Second):
		t.Fatal("handler never received the event")
	}
}

func TestDispatcherFansOutToAllHandlers(t *testing.T) {
	dispatcher := NewDispatcher()
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		dispatcher.Subscribe(EventPayoutSynced, func(context.Context, Event) {
			wg.Done()
		})
	}

	dispatcher.Emit(context.Background(), NewEvent(EventPayoutSynced, nil))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not every handler ran")
	}
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	dispatcher := NewDispatcher()
	received := make(chan Event, 1)
	dispatcher.Subscribe(EventPaymentCancelled, func(_ context.Context, event Event) {
		received <- event
	})

	dispatcher.Emit(context.Background(), NewEvent(EventPayoutSynced, nil))

	select {
	case <-received:
		t.Fatal("handler received an event of another type")
	case <-time.After(50 * time.Millisecond):
	}
}

type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *captureLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *captureLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

func TestDispatcherRecoversPanickingHandler(t *testing.T) {
	logger := &captureLogger{}
	dispatcher := NewDispatcher(WithLogger(logger))
	survived := make(chan struct{}, 1)

	dispatcher.Subscribe(EventPaymentCancelled, func(context.Context, Event) {
		panic("handler bug")
	})
	dispatcher.Subscribe(EventPaymentCancelled, func(context.Context, Event) {
		survived <- struct{}{}
	})

	dispatcher.Emit(context.Background(), NewEvent(EventPaymentCancelled, nil))

	select {
	case <-survived:
	case <-time.After(time.Second):
		t.Fatal("a panicking handler must not take down its siblings")
	}

	deadline := time.After(time.Second)
	for logger.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected the panic to be logged")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestNopSinkDiscards(t *testing.T) {
	// must not panic on a nil-free call path
	NopSink{}.Emit(context.Background(), NewEvent(EventPaymentCancelled, nil))
}
