package notifier

import "context"

var defaultNotifier = New()

// Default returns the process-wide Notifier used by the package-level functions.
func Default() *Notifier { return defaultNotifier }

// Subscribe registers h for name in bag on the default Notifier.
func Subscribe(name Name, bag *Bag, h Handler) { defaultNotifier.Subscribe(name, bag, h) }

// Unsubscribe clears bag on the default Notifier.
func Unsubscribe(bag *Bag) { defaultNotifier.Unsubscribe(bag) }

// Publish delivers name to the default Notifier's live handlers.
func Publish(ctx context.Context, name Name, payload any) error {
	return defaultNotifier.Publish(ctx, name, payload)
}

// RegistrationsCount reports the default Notifier's live handlers for name.
func RegistrationsCount(name Name) int { return defaultNotifier.RegistrationsCount(name) }
