package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Fetcher retries a board fetch on transient failures with exponential
// backoff and jitter. A Retry-After from a 429 overrides the backoff.
type Fetcher struct {
	inner      model.JobFetcher
	company    string
	maxRetries int
	baseDelay  time.Duration
	jitter     func() float64 // in [0,1)
	logger     *slog.Logger
}

// NewFetcher wraps inner. maxRetries counts attempts after the first;
// baseDelay doubles on each retry.
func NewFetcher(inner model.JobFetcher, company string, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		inner:      inner,
		company:    company,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		jitter:     rand.Float64,
		logger:     logger,
	}
}

// Company returns the wrapped board's company name.
func (f *Fetcher) Company() string { return f.company }

// FetchJobs calls the inner fetcher, retrying retryable errors.
func (f *Fetcher) FetchJobs(ctx context.Context) ([]model.Job, error) {
	jobs, err := f.inner.FetchJobs(ctx)
	for attempt := 1; err != nil && isRetryable(err) && attempt <= f.maxRetries; attempt++ {
		delay := f.backoffDelay(attempt, err)
		f.logger.Debug("retrying after transient error",
			"company", f.company,
			"attempt", attempt,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", err,
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("retry for %s cancelled: %w", f.company, ctx.Err())
		case <-t.C:
		}

		jobs, err = f.inner.FetchJobs(ctx)
	}
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// backoffDelay is baseDelay * 2^(attempt-1) with ±30% jitter.
func (f *Fetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := f.baseDelay << (attempt - 1)
	spread := float64(delay) * 0.3
	return time.Duration(float64(delay) + (f.jitter()*2-1)*spread)
}

// isRetryable reports whether err is worth another attempt: 429, 5xx and
// transport errors are. Other statuses, decode errors and cancellation are not.
func isRetryable(err error) bool {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	return model.IsTransportError(err)
}
