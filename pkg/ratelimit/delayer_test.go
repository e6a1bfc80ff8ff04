package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformDelayerSamplesWithinRange(t *testing.T) {
	delayer := NewUniformDelayer(1*time.Second, 3*time.Second, 3*time.Second, 5*time.Second)

	var slept []time.Duration
	delayer.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, delayer.BeforeRequest(ctx))
		require.NoError(t, delayer.AfterPage(ctx))
	}

	require.Len(t, slept, 100)
	for i, d := range slept {
		if i%2 == 0 {
			assert.GreaterOrEqual(t, d, 1*time.Second)
			assert.LessOrEqual(t, d, 3*time.Second)
		} else {
			assert.GreaterOrEqual(t, d, 3*time.Second)
			assert.LessOrEqual(t, d, 5*time.Second)
		}
	}
}

func TestUniformDelayerDegenerateRange(t *testing.T) {
	delayer := NewUniformDelayer(2*time.Second, 2*time.Second, 0, 0)

	var slept []time.Duration
	delayer.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, delayer.BeforeRequest(context.Background()))
	require.NoError(t, delayer.AfterPage(context.Background()))
	assert.Equal(t, []time.Duration{2 * time.Second, 0}, slept)
}

func TestSleepContextHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, 10*time.Second)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNopDelayer(t *testing.T) {
	delayer := NopDelayer{}
	assert.NoError(t, delayer.BeforeRequest(context.Background()))
	assert.NoError(t, delayer.AfterPage(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, delayer.BeforeRequest(ctx))
}
