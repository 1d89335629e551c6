package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sendTimeout bounds a single sink delivery so one hung call can't stall
// the queue forever.
const sendTimeout = 10 * time.Second

// Dispatcher decouples the services from the sink: events go into a
// buffered channel and a single background goroutine drains it.
//
// Publish never blocks. If the buffer is full the event is dropped with a
// warning — losing an advisory notification is acceptable, delaying or
// failing a committed state transition is not.
type Dispatcher struct {
	sink     Sink
	logger   *slog.Logger
	events   chan Event
	done     chan struct{}
	wg       sync.WaitGroup
	startOne sync.Once
	stopOne  sync.Once
}

var _ Publisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with the given buffer size.
func NewDispatcher(sink Sink, buffer int, logger *slog.Logger) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	return &Dispatcher{
		sink:   sink,
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Start launches the background delivery goroutine. Safe to call once.
func (d *Dispatcher) Start() {
	d.startOne.Do(func() {
		d.wg.Add(1)
		go d.run()
	})
}

// Stop shuts the dispatcher down, delivering anything still buffered
// before returning.
func (d *Dispatcher) Stop() {
	d.stopOne.Do(func() {
		close(d.done)
		d.wg.Wait()

		// Drain whatever arrived between the close and the goroutine
		// exiting.
		for {
			select {
			case ev := <-d.events:
				d.deliver(ev)
			default:
				return
			}
		}
	})
}

// Publish enqueues an event without blocking.
func (d *Dispatcher) Publish(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.logger.Warn("notification buffer full, dropping event",
			slog.String("id", ev.ID),
			slog.String("kind", string(ev.Kind)),
		)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case ev := <-d.events:
			d.deliver(ev)
		case <-d.done:
			return
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := d.sink.Send(ctx, ev); err != nil {
		// Logged, never propagated: the triggering transition already
		// committed and must not be rolled back for a delivery failure.
		d.logger.Error("failed to deliver notification",
			slog.String("id", ev.ID),
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()),
		)
	}
}
