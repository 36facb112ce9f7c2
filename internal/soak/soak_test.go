package soak

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"bark/internal/notifier"
)

func TestRun_NoChurnCountsAreExact(t *testing.T) {
	n := notifier.New()
	rep, err := Run(context.Background(), n, Config{Bags: 4, Names: 2, Publishers: 2, Publishes: 10}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, uint64(20), rep.Publishes)
	// every name has one handler in each of the 4 bags
	require.Equal(t, uint64(80), rep.Invocations)
	require.Equal(t, map[string]int{"soak.event.0": 4, "soak.event.1": 4}, rep.FinalRegistrations)
	require.Zero(t, rep.Resubscribes+rep.Dropped)
}

func TestRun_SingleName(t *testing.T) {
	n := notifier.New()
	rep, err := Run(context.Background(), n, Config{Bags: 3, Names: 1, Publishers: 1, Publishes: 5}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, uint64(30), rep.Invocations)
	require.Equal(t, 6, rep.FinalRegistrations["soak.event.0"])
}

func TestRun_WithChurn(t *testing.T) {
	n := notifier.New()
	cfg := Config{Bags: 8, Names: 4, Publishers: 4, Churners: 2, Publishes: 200}
	rep, err := Run(context.Background(), n, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, uint64(800), rep.Publishes)
	require.GreaterOrEqual(t, rep.Resubscribes+rep.Dropped, uint64(2))
	for _, name := range Names(cfg.Names) {
		// live owners always end subscribed; uncollected dropped bags may add more
		require.GreaterOrEqual(t, rep.FinalRegistrations[name.String()], 4, name.String())
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, notifier.New(), Config{Bags: 1, Names: 1, Publishers: 1, Publishes: 10}, zerolog.Nop())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_RejectsEmptyConfig(t *testing.T) {
	_, err := Run(context.Background(), notifier.New(), Config{}, zerolog.Nop())
	require.Error(t, err)
}
