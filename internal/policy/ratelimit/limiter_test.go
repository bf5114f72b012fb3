package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_WaitDelaysSameHost(t *testing.T) {
	t.Parallel()

	// 10 RPS with burst 1: the second token arrives ~100ms after the first.
	l := New(Config{DefaultRPS: 10, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://datachart.500.com/ssq/history/"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://datachart.500.com/ssq/other"))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiter_DifferentHostsIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 1, DefaultBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.example.com/1"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.example.com/1"))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiter_ContextCanceled(t *testing.T) {
	t.Parallel()

	l := New(Config{DefaultRPS: 0.1, DefaultBurst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://c.example.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx, "https://c.example.com"))
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 20; i++ {
		require.NoError(t, l.Wait(ctx, "https://d.example.com"))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}
