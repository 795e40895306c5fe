package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/pipeline"
)

// countingPoller counts Poll calls and optionally fails.
type countingPoller struct {
	calls atomic.Int32
	err   error
}

func (p *countingPoller) Poll(context.Context) (pipeline.Result, error) {
	p.calls.Add(1)
	return pipeline.Result{Success: true}, p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(d + 2*time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_ImmediateCycleThenTicks(t *testing.T) {
	p := &countingPoller{}
	runFor(t, NewScheduler(p, 40*time.Millisecond, discardLogger()), 150*time.Millisecond)

	// One immediate cycle plus roughly three ticks.
	if got := p.calls.Load(); got < 2 || got > 5 {
		t.Errorf("Poll calls = %d, want between 2 and 5", got)
	}
}

func TestRun_CancelReturnsPromptly(t *testing.T) {
	p := &countingPoller{}
	runFor(t, NewScheduler(p, time.Hour, discardLogger()), 50*time.Millisecond)

	if got := p.calls.Load(); got != 1 {
		t.Errorf("Poll calls = %d, want only the immediate cycle", got)
	}
}

func TestRun_FailedCycleKeepsGoing(t *testing.T) {
	p := &countingPoller{err: errors.New("store locked")}
	runFor(t, NewScheduler(p, 20*time.Millisecond, discardLogger()), 100*time.Millisecond)

	if got := p.calls.Load(); got < 2 {
		t.Errorf("Poll calls = %d, a failing cycle should not stop the loop", got)
	}
}

func TestRun_AlreadyCancelled(t *testing.T) {
	p := &countingPoller{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewScheduler(p, time.Hour, discardLogger()).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := p.calls.Load(); got != 0 {
		t.Errorf("Poll calls = %d, want 0 for a cancelled context", got)
	}
}
