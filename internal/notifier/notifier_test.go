package notifier

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	testNotification1 = NewName("testNotification1")
	testNotification2 = NewName("testNotification2")
)

func counting(c *atomic.Int32) Handler {
	return func(ctx context.Context, payload any) error {
		c.Add(1)
		return nil
	}
}

func TestPublish_SingleSubscription(t *testing.T) {
	n := New()
	bag := NewBag()
	var count atomic.Int32
	n.Subscribe(testNotification1, bag, counting(&count))

	for i := 0; i < 2; i++ {
		require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
		// each publish completes its handler before returning
		require.Equal(t, int32(i+1), count.Load())
	}
}

func TestPublish_NamesFireIndependently(t *testing.T) {
	n := New()
	b1, b2 := NewBag(), NewBag()
	var h1, h2 atomic.Int32
	ctx := context.Background()

	n.Subscribe(testNotification1, b1, counting(&h1))
	require.NoError(t, n.Publish(ctx, testNotification1, nil))
	require.NoError(t, n.Publish(ctx, testNotification1, nil))
	require.Equal(t, int32(2), h1.Load())

	n.Subscribe(testNotification2, b2, counting(&h2))
	for i := 0; i < 3; i++ {
		require.NoError(t, n.Publish(ctx, testNotification2, nil))
	}
	require.NoError(t, n.Publish(ctx, testNotification1, nil))

	require.Equal(t, int32(3), h1.Load())
	require.Equal(t, int32(3), h2.Load())
}

func TestPublish_TwoNamesSameBag(t *testing.T) {
	n := New()
	bag := NewBag()
	var c1, c2 atomic.Int32
	ctx := context.Background()
	n.Subscribe(testNotification1, bag, counting(&c1))
	n.Subscribe(testNotification2, bag, counting(&c2))

	for _, name := range []Name{testNotification1, testNotification1, testNotification2, testNotification2, testNotification2, testNotification1, testNotification2} {
		require.NoError(t, n.Publish(ctx, name, nil))
	}
	require.Equal(t, int32(3), c1.Load())
	require.Equal(t, int32(4), c2.Load())
}

func TestPublish_TwoHandlersSameNameSameBag(t *testing.T) {
	n := New()
	bag := NewBag()
	var order []string
	n.Subscribe(testNotification1, bag, func(ctx context.Context, _ any) error {
		order = append(order, "first")
		return nil
	})
	n.Subscribe(testNotification1, bag, func(ctx context.Context, _ any) error {
		order = append(order, "second")
		return nil
	})
	require.Equal(t, 2, n.RegistrationsCount(testNotification1))

	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Equal(t, []string{"first", "second", "first", "second"}, order)
	require.Len(t, n.Snapshot().Names, 1)
	require.Equal(t, 1, n.Snapshot().TrackedBags)
}

func TestPublish_BagOrderThenRegistrationOrder(t *testing.T) {
	n := New()
	b1, b2, b3 := NewBag(), NewBag(), NewBag()
	var order []string
	record := func(tag string) Handler {
		return func(ctx context.Context, _ any) error {
			order = append(order, tag)
			return nil
		}
	}
	n.Subscribe(testNotification1, b2, record("b2-1"))
	n.Subscribe(testNotification1, b1, record("b1-1"))
	n.Subscribe(testNotification1, b3, record("b3-1"))
	n.Subscribe(testNotification1, b2, record("b2-2"))
	n.Subscribe(testNotification2, b1, record("b1-other"))

	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Equal(t, []string{"b2-1", "b2-2", "b1-1", "b3-1"}, order)
}

func TestPublish_PayloadIsDelivered(t *testing.T) {
	n := New()
	bag := NewBag()
	var got any
	n.Subscribe(testNotification1, bag, func(ctx context.Context, payload any) error {
		got = payload
		return nil
	})
	require.NoError(t, n.Publish(context.Background(), testNotification1, map[string]int{"qty": 3}))
	require.Equal(t, map[string]int{"qty": 3}, got)

	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Nil(t, got)
}

func TestPublish_NoSubscribers(t *testing.T) {
	n := New()
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Equal(t, 0, n.RegistrationsCount(testNotification1))
}

func TestPublish_WaitsForEachHandler(t *testing.T) {
	n := New()
	bag := NewBag()
	var written atomic.Bool
	var sawWrite bool
	n.Subscribe(testNotification1, bag, func(ctx context.Context, _ any) error {
		done := make(chan struct{})
		go func() {
			time.Sleep(10 * time.Millisecond)
			written.Store(true)
			close(done)
		}()
		<-done
		return nil
	})
	n.Subscribe(testNotification1, bag, func(ctx context.Context, _ any) error {
		sawWrite = written.Load()
		return nil
	})
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.True(t, sawWrite, "second handler started before the first completed")
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	n := New()
	bag := NewBag()
	var count atomic.Int32
	n.Subscribe(testNotification1, bag, counting(&count))
	require.Equal(t, 1, n.RegistrationsCount(testNotification1))

	n.Unsubscribe(bag)
	require.Equal(t, 0, n.RegistrationsCount(testNotification1))
	require.Equal(t, 0, bag.Len())
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Zero(t, count.Load())
	require.Zero(t, n.Snapshot().TrackedBags)
}

func TestUnsubscribe_LeavesOtherBags(t *testing.T) {
	n := New()
	b1, b2 := NewBag(), NewBag()
	var c1, c2 atomic.Int32
	n.Subscribe(testNotification1, b1, counting(&c1))
	n.Subscribe(testNotification1, b2, counting(&c2))

	n.Unsubscribe(b1)
	require.Equal(t, 1, n.RegistrationsCount(testNotification1))
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Zero(t, c1.Load())
	require.Equal(t, int32(1), c2.Load())
}

func TestUnsubscribe_ThenResubscribe(t *testing.T) {
	n := New()
	bag := NewBag()
	var count atomic.Int32
	n.Subscribe(testNotification1, bag, counting(&count))
	n.Unsubscribe(bag)
	n.Unsubscribe(bag)
	n.Subscribe(testNotification1, bag, counting(&count))

	require.Equal(t, 1, n.RegistrationsCount(testNotification1))
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Equal(t, int32(1), count.Load())
	require.Equal(t, 1, n.Snapshot().TrackedBags)
}

func TestNilBagAndNilHandlerAreNoOps(t *testing.T) {
	n := New()
	var count atomic.Int32
	n.Subscribe(testNotification1, nil, counting(&count))
	n.Unsubscribe(nil)

	bag := NewBag()
	n.Subscribe(testNotification1, bag, nil)
	require.Equal(t, 0, bag.Len())
	require.Equal(t, 0, n.RegistrationsCount(testNotification1))
	require.Zero(t, n.Snapshot().TrackedBags)
}

func TestSubscribe_DeduplicatesBags(t *testing.T) {
	n := New()
	bag := NewBag()
	var count atomic.Int32
	for i := 0; i < 5; i++ {
		n.Subscribe(testNotification1, bag, counting(&count))
	}
	require.Equal(t, 1, n.Snapshot().TrackedBags)
	require.NoError(t, n.Publish(context.Background(), testNotification1, nil))
	require.Equal(t, int32(5), count.Load())
}

func TestSharedBagAcrossNotifiers(t *testing.T) {
	n1, n2 := New(), New()
	bag := NewBag()
	var count atomic.Int32
	n1.Subscribe(testNotification1, bag, counting(&count))

	// the bag's registrations are visible through any notifier tracking it
	n2.Subscribe(testNotification2, bag, counting(&count))
	require.Equal(t, 1, n2.RegistrationsCount(testNotification1))

	n2.Unsubscribe(bag)
	require.Equal(t, 0, n1.RegistrationsCount(testNotification1))
}
