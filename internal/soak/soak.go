// Package soak drives a Notifier with concurrent publishers and subscription
// churn so its bookkeeping can be observed under load.
package soak

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bark/internal/notifier"
)

// churnInterval paces churners so they do not starve publishers.
const churnInterval = time.Millisecond

// Config sizes a soak run.
type Config struct {
	Bags         int
	Names        int
	Publishers   int
	Churners     int
	Publishes    int // per publisher
	HandlerDelay time.Duration
}

// Report summarizes a soak run.
type Report struct {
	Publishes          uint64
	Invocations        uint64
	Resubscribes       uint64
	Dropped            uint64
	FinalRegistrations map[string]int
	Elapsed            time.Duration
}

// owner stands in for an object that owns a subscription bag.
type owner struct {
	bag *notifier.Bag
}

type run struct {
	n     *notifier.Notifier
	cfg   Config
	names []notifier.Name

	mu     sync.Mutex
	owners []*owner

	publishes    atomic.Uint64
	invocations  atomic.Uint64
	resubscribes atomic.Uint64
	dropped      atomic.Uint64
}

// Names returns the event names a run with the given size publishes.
func Names(count int) []notifier.Name {
	out := make([]notifier.Name, count)
	for i := range out {
		out[i] = notifier.NewName(fmt.Sprintf("soak.event.%d", i))
	}
	return out
}

// Run executes the workload and blocks until every publisher is done or ctx
// is canceled. Each bag registers one handler for two adjacent names.
func Run(ctx context.Context, n *notifier.Notifier, cfg Config, log zerolog.Logger) (Report, error) {
	if cfg.Bags <= 0 || cfg.Names <= 0 || cfg.Publishers <= 0 || cfg.Publishes <= 0 {
		return Report{}, fmt.Errorf("soak: bags, names, publishers and publishes must be positive: %+v", cfg)
	}
	r := &run{n: n, cfg: cfg, names: Names(cfg.Names)}
	start := time.Now()

	r.owners = make([]*owner, cfg.Bags)
	for i := range r.owners {
		r.owners[i] = r.newOwner(i)
	}
	log.Info().Int("bags", cfg.Bags).Int("names", cfg.Names).Int("publishers", cfg.Publishers).
		Int("churners", cfg.Churners).Int("publishes", cfg.Publishes).Msg("soak start")

	churnCtx, stopChurn := context.WithCancel(ctx)
	defer stopChurn()
	var churn errgroup.Group
	for c := 0; c < cfg.Churners; c++ {
		churn.Go(func() error {
			r.churn(churnCtx, log)
			return nil
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < cfg.Publishers; p++ {
		g.Go(func() error {
			for i := 0; i < cfg.Publishes; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				name := r.names[(p+i)%len(r.names)]
				if err := n.Publish(gctx, name, i); err != nil {
					return fmt.Errorf("publish %s: %w", name, err)
				}
				r.publishes.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	stopChurn()
	_ = churn.Wait()

	// give dropped bags a chance to be collected before counting
	runtime.GC()
	rep := Report{
		Publishes:          r.publishes.Load(),
		Invocations:        r.invocations.Load(),
		Resubscribes:       r.resubscribes.Load(),
		Dropped:            r.dropped.Load(),
		FinalRegistrations: make(map[string]int, len(r.names)),
		Elapsed:            time.Since(start),
	}
	for _, name := range r.names {
		rep.FinalRegistrations[name.String()] = n.RegistrationsCount(name)
	}
	r.mu.Lock()
	runtime.KeepAlive(r.owners)
	r.mu.Unlock()

	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Uint64("publishes", rep.Publishes).Uint64("invocations", rep.Invocations).
		Uint64("resubscribes", rep.Resubscribes).Uint64("dropped", rep.Dropped).
		Dur("elapsed", rep.Elapsed).Msg("soak done")
	return rep, err
}

func (r *run) newOwner(i int) *owner {
	o := &owner{bag: notifier.NewBag()}
	r.subscribe(o.bag, i)
	return o
}

func (r *run) subscribe(bag *notifier.Bag, i int) {
	h := func(ctx context.Context, _ any) error {
		r.invocations.Add(1)
		if r.cfg.HandlerDelay > 0 {
			time.Sleep(r.cfg.HandlerDelay)
		}
		return nil
	}
	r.n.Subscribe(r.names[i%len(r.names)], bag, h)
	if len(r.names) > 1 {
		r.n.Subscribe(r.names[(i+1)%len(r.names)], bag, h)
	} else {
		r.n.Subscribe(r.names[0], bag, h)
	}
}

// churn either resubscribes an owner's bag or replaces the owner's bag with a
// fresh one, leaving the old bag for the collector. It acts at least once.
func (r *run) churn(ctx context.Context, log zerolog.Logger) {
	for {
		i := rand.IntN(r.cfg.Bags)
		r.mu.Lock()
		o := r.owners[i]
		if rand.IntN(2) == 0 {
			r.n.Unsubscribe(o.bag)
			r.subscribe(o.bag, i)
			r.resubscribes.Add(1)
		} else {
			r.owners[i] = r.newOwner(i)
			r.dropped.Add(1)
			log.Debug().Int("owner", i).Msg("dropped bag without unsubscribe")
		}
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(churnInterval):
		}
	}
}
