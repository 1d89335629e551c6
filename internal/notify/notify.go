// Package notify carries offer and account lifecycle events to the outside
// world.
//
// Notifications are advisory: the services publish AFTER a state transition
// commits, and nothing about delivery — slowness, failure, a full queue —
// ever propagates back into the transition that triggered the event.
package notify

import (
	"context"
	"log/slog"

	"github.com/rs/xid"
)

// Kind identifies an event type.
type Kind string

const (
	KindPasswordChanged Kind = "user-updated-password"
	KindOfferCreated    Kind = "offer-created"
	KindOfferAccepted   Kind = "offer-accepted"
	KindOfferRejected   Kind = "offer-rejected"
)

// Event is a single outbound notification. Each event carries only the
// email addresses relevant to its kind.
type Event struct {
	ID     string // unique per event, for downstream dedup
	Kind   Kind
	Emails []string
}

// PasswordChanged builds the event emitted after a credential update.
func PasswordChanged(email string) Event {
	return Event{ID: xid.New().String(), Kind: KindPasswordChanged, Emails: []string{email}}
}

// OfferCreated builds the event emitted after an offer row commits.
func OfferCreated(offerorEmail, offereeEmail string) Event {
	return Event{ID: xid.New().String(), Kind: KindOfferCreated, Emails: []string{offerorEmail, offereeEmail}}
}

// OfferAccepted builds the event emitted after an ownership handoff commits.
func OfferAccepted(offerorEmail, offereeEmail string) Event {
	return Event{ID: xid.New().String(), Kind: KindOfferAccepted, Emails: []string{offerorEmail, offereeEmail}}
}

// OfferRejected builds the event emitted when the owner withdraws an offer.
func OfferRejected(offerorEmail, offereeEmail string) Event {
	return Event{ID: xid.New().String(), Kind: KindOfferRejected, Emails: []string{offerorEmail, offereeEmail}}
}

// Sink delivers events to an external system (message broker, webhook, ...).
// Implementations may block; the dispatcher isolates callers from that.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// Publisher is what the services depend on. Publish must never block and
// never fail — it hands the event off and returns.
type Publisher interface {
	Publish(ev Event)
}

// LogSink writes events to the structured log. It stands in for a real
// broker in development and tests.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(_ context.Context, ev Event) error {
	s.logger.Info("notification event",
		slog.String("id", ev.ID),
		slog.String("kind", string(ev.Kind)),
		slog.Any("emails", ev.Emails),
	)
	return nil
}
