package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordSink captures delivered events and can be told to fail or block.
type recordSink struct {
	mu      sync.Mutex
	events  []Event
	fail    error
	blockOn chan struct{} // when non-nil, Send waits for it to close
}

func (s *recordSink) Send(ctx context.Context, ev Event) error {
	if s.blockOn != nil {
		select {
		case <-s.blockOn:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordSink) delivered() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	sink := &recordSink{}
	d := NewDispatcher(sink, 8, testLogger())
	d.Start()

	d.Publish(OfferCreated("a@example.com", "b@example.com"))
	d.Publish(OfferAccepted("a@example.com", "b@example.com"))
	d.Stop()

	got := sink.delivered()
	if len(got) != 2 {
		t.Fatalf("delivered %d events, want 2", len(got))
	}
	if got[0].Kind != KindOfferCreated || got[1].Kind != KindOfferAccepted {
		t.Errorf("kinds = %v, %v", got[0].Kind, got[1].Kind)
	}
	if got[0].ID == got[1].ID {
		t.Error("event ids must be unique")
	}
}

func TestDispatcher_PublishNeverBlocks(t *testing.T) {
	// Sink blocks forever and the dispatcher was never started, so the
	// buffer (size 1) fills after the first publish. Later publishes must
	// drop and return immediately.
	sink := &recordSink{blockOn: make(chan struct{})}
	d := NewDispatcher(sink, 1, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			d.Publish(PasswordChanged("a@example.com"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with a full buffer")
	}
}

func TestDispatcher_SinkFailureIsSwallowed(t *testing.T) {
	sink := &recordSink{fail: errors.New("broker unreachable")}
	d := NewDispatcher(sink, 4, testLogger())
	d.Start()

	// Publishing and stopping complete normally even though every delivery
	// fails; the error only reaches the log.
	d.Publish(OfferRejected("a@example.com", "b@example.com"))
	d.Stop()

	if len(sink.delivered()) != 0 {
		t.Errorf("failing sink should record nothing, got %d", len(sink.delivered()))
	}
}

func TestDispatcher_StopDrainsBuffer(t *testing.T) {
	sink := &recordSink{}
	d := NewDispatcher(sink, 16, testLogger())

	// Not started yet: everything queues up.
	for i := 0; i < 5; i++ {
		d.Publish(OfferCreated("a@example.com", "b@example.com"))
	}
	d.Start()
	d.Stop()

	if got := len(sink.delivered()); got != 5 {
		t.Errorf("delivered %d events, want all 5", got)
	}
}

func TestDispatcher_StopIdempotent(t *testing.T) {
	d := NewDispatcher(&recordSink{}, 4, testLogger())
	d.Start()
	d.Stop()
	d.Stop() // second stop is a no-op, not a panic
}
