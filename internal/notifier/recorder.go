package notifier

import "sync"

// Recorder is an EventPublisher that keeps every lifecycle event it receives.
// Tests install it with SetEventPublisher and inspect what the notifier did.
type Recorder struct {
	mu  sync.Mutex
	log []Event
}

func NewRecorder() *Recorder { return new(Recorder) }

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, e)
}

// Events returns a copy of everything recorded so far, oldest first.
func (r *Recorder) Events() []Event {
	return r.Named("")
}

// Named returns the recorded events with the given lifecycle name. An empty
// name matches every event.
func (r *Recorder) Named(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.log {
		if name == "" || e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Count(name string) int { return len(r.Named(name)) }

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.log = nil
	r.mu.Unlock()
}
