// Package notifier provides an in-process publish/subscribe dispatcher keyed
// by event name. It is structured into small files by concern:
//
//   - name.go: Name, the comparable event identifier.
//   - bag.go: Bag, an owner-scoped set of handler registrations.
//   - notifier.go: Notifier, Subscribe/Unsubscribe/Publish/RegistrationsCount.
//   - config.go: Config, FailurePolicy and NewWithConfig defaults.
//   - errors.go: error types and helpers (IsInvalidPolicy).
//   - events.go: lifecycle Event and EventPublisher hooks.
//   - recorder.go: Recorder, an EventPublisher that keeps what it receives.
//   - metrics.go: Prometheus collector for publish and handler activity.
//   - snapshot.go: Snapshot reporting for the HTTP status surface.
//   - default.go: process-wide default Notifier and free functions.
//
// Ownership:
//
// A Notifier never owns a Bag. It keeps a weak.Pointer to every bag it has
// seen, so dropping the last reference to a bag is enough to stop its
// handlers from firing once the garbage collector reclaims it. Owners that
// need deterministic teardown call Bag.Close. Dead entries are pruned lazily,
// the next time a Subscribe, Unsubscribe, Publish or RegistrationsCount call
// takes a snapshot of the tracking list.
//
// Delivery:
//
// Publish runs matched handlers one at a time on the calling goroutine, in bag
// registration order and then in per-bag registration order. No lock is held
// while a handler runs, so handlers may call back into the Notifier.
package notifier
