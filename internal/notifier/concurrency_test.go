package notifier

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerMayReenterNotifier(t *testing.T) {
	n := New()
	outer, inner := NewBag(), NewBag()
	var innerCalls atomic.Int32
	n.Subscribe(testNotification1, outer, func(ctx context.Context, _ any) error {
		n.Subscribe(testNotification2, inner, counting(&innerCalls))
		if err := n.Publish(ctx, testNotification2, nil); err != nil {
			return err
		}
		n.Unsubscribe(inner)
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Equal(t, int32(1), innerCalls.Load())
	require.Equal(t, 0, n.RegistrationsCount(testNotification2))
}

func TestSubscribeDuringPublishAffectsNextPublishOnly(t *testing.T) {
	n := New()
	bag := NewBag()
	var late atomic.Int32
	n.Subscribe(testNotification1, bag, func(ctx context.Context, _ any) error {
		n.Subscribe(testNotification1, bag, counting(&late))
		return nil
	})

	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Zero(t, late.Load())
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Equal(t, int32(1), late.Load())
}

func TestConcurrentSubscribeUnsubscribePublish(t *testing.T) {
	n := New()
	const workers = 8
	const rounds = 200
	names := []Name{testNotification1, testNotification2}
	shared := NewBag()
	var sharedCalls atomic.Int32
	n.Subscribe(testNotification1, shared, counting(&sharedCalls))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ctx := context.Background()
			var sink atomic.Int32
			for i := 0; i < rounds; i++ {
				bag := NewBag()
				name := names[(w+i)%len(names)]
				n.Subscribe(name, bag, counting(&sink))
				n.Subscribe(name, shared, counting(&sink))
				if err := n.Publish(ctx, name, fmt.Sprintf("w%d-%d", w, i)); err != nil {
					t.Errorf("publish: %v", err)
					return
				}
				_ = n.RegistrationsCount(name)
				if i%2 == 0 {
					n.Unsubscribe(bag)
				}
			}
		}(w)
	}
	wg.Wait()

	// the shared bag was tracked once no matter how many goroutines raced on it
	entries := 0
	n.mu.Lock()
	for _, e := range n.entries {
		if e.id == shared.ID() {
			entries++
		}
	}
	n.mu.Unlock()
	require.Equal(t, 1, entries)
	require.Greater(t, sharedCalls.Load(), int32(0))
}
