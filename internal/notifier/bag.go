package notifier

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler is invoked when an event it was registered for is published.
// Returning an error is handled according to the Notifier's FailurePolicy.
type Handler func(ctx context.Context, payload any) error

type registration struct {
	name    Name
	handler Handler
}

// Bag holds one owner's handler registrations. The owner controls the bag's
// lifetime: once the bag is unreachable (or closed) its handlers stop firing.
type Bag struct {
	id     uuid.UUID
	mu     sync.Mutex
	regs   []registration
	closed atomic.Bool
}

func NewBag() *Bag { return &Bag{id: uuid.New()} }

// ID returns the identity assigned at construction.
func (b *Bag) ID() uuid.UUID { return b.id }

// add appends a registration. It reports false and leaves the bag untouched
// once the bag is closed.
func (b *Bag) add(h Handler, name Name) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		return false
	}
	b.regs = append(b.regs, registration{name: name, handler: h})
	return true
}

// blocks returns the handlers registered for name in registration order.
func (b *Bag) blocks(name Name) []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Handler
	for _, r := range b.regs {
		if r.name == name {
			out = append(out, r.handler)
		}
	}
	return out
}

func (b *Bag) clear() {
	b.mu.Lock()
	b.regs = nil
	b.mu.Unlock()
}

// counts returns registrations per name.
func (b *Bag) counts() map[Name]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[Name]int, len(b.regs))
	for _, r := range b.regs {
		out[r.name]++
	}
	return out
}

// Len reports the number of registrations held by the bag.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.regs)
}

// Names returns the distinct names registered in the bag, in first-seen order.
func (b *Bag) Names() []Name {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[Name]struct{}, len(b.regs))
	var out []Name
	for _, r := range b.regs {
		if _, ok := seen[r.name]; ok {
			continue
		}
		seen[r.name] = struct{}{}
		out = append(out, r.name)
	}
	return out
}

// Close retires the bag: its registrations are dropped and every Notifier
// treats it as absent from now on. Close is idempotent.
func (b *Bag) Close() {
	b.mu.Lock()
	b.closed.Store(true)
	b.regs = nil
	b.mu.Unlock()
}

// Closed reports whether Close has been called.
func (b *Bag) Closed() bool { return b.closed.Load() }
