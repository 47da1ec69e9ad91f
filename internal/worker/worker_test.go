package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSleepBackoff_CancelledContextReturnsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleepBackoff(ctx, 10*time.Second)
	require.Less(t, time.Since(start), time.Second,
		"a stopping worker must not sit out the backoff window")
}

func TestSleepBackoff_WaitsWithoutCancel(t *testing.T) {
	start := time.Now()
	sleepBackoff(context.Background(), 20*time.Millisecond)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
