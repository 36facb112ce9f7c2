package notifier

import (
	"sort"
	"time"

	"bark/pkg/types"
)

// Snapshot reports tracking and registration state. It does not prune, so
// TrackedBags may include entries that the next operation will drop.
func (n *Notifier) Snapshot() types.NotifierSnapshot {
	n.mu.Lock()
	tracked := len(n.entries)
	live := make([]*Bag, 0, tracked)
	for _, e := range n.entries {
		if b := e.ref.Value(); b != nil && !b.Closed() {
			live = append(live, b)
		}
	}
	n.mu.Unlock()

	totals := make(map[Name]int)
	for _, b := range live {
		for name, c := range b.counts() {
			totals[name] += c
		}
	}
	names := make([]types.NameCount, 0, len(totals))
	for name, c := range totals {
		names = append(names, types.NameCount{Name: name.String(), Registrations: c})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Name < names[j].Name })

	now := time.Now()
	return types.NotifierSnapshot{
		TrackedBags:    tracked,
		LiveBags:       len(live),
		Names:          names,
		PublishesTotal: n.publishes.Load(),
		PrunedTotal:    n.pruned.Load(),
		UptimeSeconds:  int64(now.Sub(n.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}
