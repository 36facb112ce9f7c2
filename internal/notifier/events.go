package notifier

import "github.com/google/uuid"

// Lifecycle event names emitted to an EventPublisher.
const (
	EventSubscribe    = "subscribe"
	EventUnsubscribe  = "unsubscribe"
	EventPrune        = "prune"
	EventPublishStart = "publish_start"
	EventPublishDone  = "publish_done"
	EventHandlerError = "handler_error"
)

// Event represents a notifier lifecycle event.
// Minimal and stable: lifecycle name, the event name or bag it concerns, and
// optional fields via key/values.
type Event struct {
	Name      string
	EventName Name
	BagID     uuid.UUID
	Fields    map[string]any
}

// EventPublisher receives lifecycle events from the notifier. Implementations
// should be lightweight and non-blocking; Publish must not panic and must not
// call back into the Notifier.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
