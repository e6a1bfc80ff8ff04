package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Delayer issues the courtesy waits around upstream requests. The crawl loop
// calls BeforeRequest ahead of every page fetch and AfterPage once a page has
// been processed, success or failure — the sequential waiting is the
// rate-limiting mechanism, not an incidental sleep.
type Delayer interface {
	// BeforeRequest blocks for the pre-request delay or until ctx is done.
	BeforeRequest(ctx context.Context) error
	// AfterPage blocks for the post-page delay or until ctx is done.
	AfterPage(ctx context.Context) error
}

// UniformDelayer samples each wait uniformly from a configured range.
type UniformDelayer struct {
	preMin, preMax   time.Duration
	postMin, postMax time.Duration

	mu  sync.Mutex
	rng *rand.Rand

	// sleep is swappable so tests don't wait wall-clock time.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewUniformDelayer creates a Delayer sampling pre-request waits from
// [preMin, preMax] and post-page waits from [postMin, postMax].
func NewUniformDelayer(preMin, preMax, postMin, postMax time.Duration) *UniformDelayer {
	return &UniformDelayer{
		preMin:  preMin,
		preMax:  preMax,
		postMin: postMin,
		postMax: postMax,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   sleepContext,
	}
}

// BeforeRequest waits the sampled pre-request delay.
func (d *UniformDelayer) BeforeRequest(ctx context.Context) error {
	return d.sleep(ctx, d.sample(d.preMin, d.preMax))
}

// AfterPage waits the sampled post-page delay.
func (d *UniformDelayer) AfterPage(ctx context.Context) error {
	return d.sleep(ctx, d.sample(d.postMin, d.postMax))
}

// sample draws uniformly from [min, max].
func (d *UniformDelayer) sample(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return min + time.Duration(d.rng.Int63n(int64(max-min)))
}

// sleepContext sleeps for the duration but returns early when the context is
// canceled, so a crawl can be aborted between pages.
func sleepContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopDelayer skips all waits. Used by tests and the mock client path.
type NopDelayer struct{}

// BeforeRequest returns immediately.
func (NopDelayer) BeforeRequest(ctx context.Context) error { return ctx.Err() }

// AfterPage returns immediately.
func (NopDelayer) AfterPage(ctx context.Context) error { return ctx.Err() }
