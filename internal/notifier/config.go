package notifier

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FailurePolicy decides what Publish does when a handler returns an error.
type FailurePolicy int

const (
	// FailAbort returns the first handler error from Publish unchanged and
	// skips the remaining handlers of that call.
	FailAbort FailurePolicy = iota
	// FailContinue logs each handler error, keeps delivering, and returns
	// all errors joined.
	FailContinue
)

func (p FailurePolicy) String() string {
	switch p {
	case FailAbort:
		return "abort"
	case FailContinue:
		return "continue"
	}
	return "unknown"
}

// ParseFailurePolicy maps "abort" (or "") and "continue" to a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return FailAbort, nil
	case "continue":
		return FailContinue, nil
	}
	return FailAbort, invalidPolicyError{value: s}
}

// Config encapsulates all tunables for Notifier construction. The zero value
// is valid.
type Config struct {
	Policy FailurePolicy
	// Logger receives debug and warn records; nil disables logging.
	Logger *zerolog.Logger
	// Metrics is optional; register it with a prometheus.Registerer yourself.
	Metrics *Metrics
	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
}

// New returns a Notifier with default configuration.
func New() *Notifier { return NewWithConfig(Config{}) }

// NewWithConfig constructs a Notifier from Config.
func NewWithConfig(cfg Config) *Notifier {
	n := &Notifier{
		policy:    cfg.Policy,
		metrics:   cfg.Metrics,
		pub:       cfg.Publisher,
		startTime: time.Now(),
	}
	if cfg.Logger != nil {
		n.log = *cfg.Logger
	} else {
		n.log = zerolog.Nop()
	}
	if n.pub == nil {
		n.pub = noopPublisher{}
	}
	return n
}
