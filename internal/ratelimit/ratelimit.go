package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// SourceLimiter spaces requests to the same source by at least minDelay.
// Concurrent callers each reserve their own slot, so a board fan-out of N
// companies against one source takes at least (N-1)*minDelay.
type SourceLimiter struct {
	mu       sync.Mutex
	next     map[model.Source]time.Time // earliest start for the next request
	minDelay time.Duration
}

// NewSourceLimiter creates a limiter that enforces minDelay between
// consecutive requests to the same source. A zero delay never blocks.
func NewSourceLimiter(minDelay time.Duration) *SourceLimiter {
	return &SourceLimiter{
		next:     make(map[model.Source]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the caller's slot for src arrives. Returns an error if
// the context is cancelled while waiting.
func (r *SourceLimiter) Wait(ctx context.Context, src model.Source) error {
	if r.minDelay <= 0 {
		return ctx.Err()
	}

	r.mu.Lock()
	now := time.Now()
	slot := r.next[src]
	if slot.Before(now) {
		slot = now
	}
	r.next[src] = slot.Add(r.minDelay)
	r.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", src, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RateLimitedFetcher is a decorator that waits on a SourceLimiter before
// delegating to the wrapped JobFetcher.
type RateLimitedFetcher struct {
	inner   model.JobFetcher
	limiter *SourceLimiter
	source  model.Source
}

// NewRateLimitedFetcher wraps a JobFetcher with source-level rate limiting.
// All fetchers targeting the same source should share one limiter.
func NewRateLimitedFetcher(inner model.JobFetcher, limiter *SourceLimiter, src model.Source) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		source:  src,
	}
}

// FetchJobs waits for the limiter, then delegates to the wrapped fetcher.
func (f *RateLimitedFetcher) FetchJobs(ctx context.Context) ([]model.Job, error) {
	if err := f.limiter.Wait(ctx, f.source); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx)
}

// Company forwards the wrapped fetcher's company name when it has one.
func (f *RateLimitedFetcher) Company() string {
	if c, ok := f.inner.(interface{ Company() string }); ok {
		return c.Company()
	}
	return ""
}
