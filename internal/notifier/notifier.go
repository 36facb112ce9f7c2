package notifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// entry is a non-owning link to a bag. The id is kept alongside the weak
// pointer so entries can be matched without dereferencing them.
type entry struct {
	id  uuid.UUID
	ref weak.Pointer[Bag]
}

// Notifier dispatches published events to the handlers of every live bag it
// has seen. The zero value is not usable; construct with New or NewWithConfig.
type Notifier struct {
	mu      sync.Mutex
	entries []entry
	pub     EventPublisher

	policy  FailurePolicy
	log     zerolog.Logger
	metrics *Metrics

	publishes atomic.Uint64
	pruned    atomic.Uint64
	startTime time.Time
}

// SetEventPublisher installs a lifecycle event sink. Passing nil restores the
// default no-op sink.
func (n *Notifier) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	n.mu.Lock()
	n.pub = p
	n.mu.Unlock()
}

// Subscribe registers h for name in bag and starts tracking bag. A nil or
// closed bag, or a nil handler, makes this a no-op.
func (n *Notifier) Subscribe(name Name, bag *Bag, h Handler) {
	if bag == nil || h == nil {
		return
	}
	if !bag.add(h, name) {
		return
	}

	n.mu.Lock()
	_, pruned := n.pruneLocked()
	tracked := false
	for _, e := range n.entries {
		if e.id == bag.id {
			tracked = true
			break
		}
	}
	if !tracked {
		n.entries = append(n.entries, entry{id: bag.id, ref: weak.Make(bag)})
	}
	size := len(n.entries)
	pub := n.pub
	n.mu.Unlock()

	n.afterPrune(pub, pruned, size)
	n.log.Debug().Str("event", name.String()).Str("bag", bag.id.String()).Bool("new_bag", !tracked).Msg("subscribe")
	pub.Publish(Event{Name: EventSubscribe, EventName: name, BagID: bag.id, Fields: map[string]any{"new_bag": !tracked}})
}

// Unsubscribe clears every registration in bag and stops tracking it. Dead
// entries left behind by collected or closed bags are dropped at the same
// time. A nil bag is a no-op.
func (n *Notifier) Unsubscribe(bag *Bag) {
	if bag == nil {
		return
	}
	bag.clear()

	n.mu.Lock()
	removed := false
	pruned := 0
	kept := n.entries[:0]
	for _, e := range n.entries {
		if e.id == bag.id {
			removed = true
			continue
		}
		if b := e.ref.Value(); b == nil || b.Closed() {
			pruned++
			continue
		}
		kept = append(kept, e)
	}
	clear(n.entries[len(kept):])
	n.entries = kept
	size := len(n.entries)
	pub := n.pub
	n.mu.Unlock()

	n.afterPrune(pub, pruned, size)
	n.log.Debug().Str("bag", bag.id.String()).Bool("was_tracked", removed).Msg("unsubscribe")
	pub.Publish(Event{Name: EventUnsubscribe, BagID: bag.id, Fields: map[string]any{"was_tracked": removed}})
}

// Publish invokes every live handler registered for name, one at a time, and
// returns once the last one has returned. Handlers run in bag registration
// order, then in per-bag registration order. ctx is passed to handlers as is;
// Publish itself never abandons a handler because ctx is done.
//
// A panicking handler is not recovered. A handler error is treated according
// to the FailurePolicy.
func (n *Notifier) Publish(ctx context.Context, name Name, payload any) error {
	handlers, pub := n.handlers(name)
	n.publishes.Add(1)
	n.metrics.observePublish(name)
	pub.Publish(Event{Name: EventPublishStart, EventName: name, Fields: map[string]any{"handlers": len(handlers)}})

	var errs []error
	for i, h := range handlers {
		start := time.Now()
		err := h(ctx, payload)
		n.metrics.observeHandler(name, time.Since(start), err)
		if err == nil {
			continue
		}
		pub.Publish(Event{Name: EventHandlerError, EventName: name, Fields: map[string]any{"index": i, "error": err.Error()}})
		if n.policy == FailAbort {
			pub.Publish(Event{Name: EventPublishDone, EventName: name, Fields: map[string]any{"handlers": len(handlers), "errors": 1, "aborted": true}})
			return err
		}
		n.log.Warn().Err(err).Str("event", name.String()).Int("handler", i).Msg("handler failed; continuing delivery")
		errs = append(errs, err)
	}
	pub.Publish(Event{Name: EventPublishDone, EventName: name, Fields: map[string]any{"handlers": len(handlers), "errors": len(errs), "aborted": false}})
	return errors.Join(errs...)
}

// RegistrationsCount returns how many handlers would fire if name were
// published now.
func (n *Notifier) RegistrationsCount(name Name) int {
	handlers, _ := n.handlers(name)
	return len(handlers)
}

// handlers snapshots the live bags under the notifier lock, then collects the
// matching handlers from each bag with only that bag's lock held.
func (n *Notifier) handlers(name Name) ([]Handler, EventPublisher) {
	n.mu.Lock()
	live, pruned := n.pruneLocked()
	size := len(n.entries)
	pub := n.pub
	n.mu.Unlock()

	n.afterPrune(pub, pruned, size)

	var out []Handler
	for _, b := range live {
		out = append(out, b.blocks(name)...)
	}
	return out, pub
}

// pruneLocked drops entries whose bag was collected or closed and returns the
// remaining live bags in tracking order. n.mu must be held.
func (n *Notifier) pruneLocked() ([]*Bag, int) {
	live := make([]*Bag, 0, len(n.entries))
	kept := n.entries[:0]
	for _, e := range n.entries {
		b := e.ref.Value()
		if b == nil || b.Closed() {
			continue
		}
		kept = append(kept, e)
		live = append(live, b)
	}
	pruned := len(n.entries) - len(kept)
	clear(n.entries[len(kept):])
	n.entries = kept
	return live, pruned
}

// afterPrune records pruning outside the notifier lock.
func (n *Notifier) afterPrune(pub EventPublisher, pruned, size int) {
	n.metrics.setTracked(size, pruned)
	if pruned == 0 {
		return
	}
	n.pruned.Add(uint64(pruned))
	n.log.Debug().Int("pruned", pruned).Int("tracked", size).Msg("dropped dead bag entries")
	pub.Publish(Event{Name: EventPrune, Fields: map[string]any{"pruned": pruned, "tracked": size}})
}
