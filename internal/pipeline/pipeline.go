package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs a fixed list of stages over a fresh State.
type Pipeline struct {
	stages   []Stage
	sources  []string
	keywords []string
	parallel bool
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithInputs records the configured sources and keywords in every run's
// State. They are informational and do not change which stages run.
func WithInputs(sources, keywords []string) Option {
	return func(p *Pipeline) {
		p.sources = sources
		p.keywords = keywords
	}
}

// WithParallelSources lets consecutive fetch stages run concurrently. Their
// updates are still applied in stage order.
func WithParallelSources(on bool) Option {
	return func(p *Pipeline) { p.parallel = on }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRunID overrides run id generation.
func WithRunID(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// New creates a pipeline over stages.
func New(stages []Stage, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages: stages,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every stage and returns the final State with CompletedAt set.
func (p *Pipeline) Run(ctx context.Context) State {
	return p.execute(ctx, func(Event) {})
}

// Stream executes the run in the background and emits stage_start and
// stage_end per stage, then one complete event, then closes the channel.
// Once ctx is cancelled undelivered events are dropped.
func (p *Pipeline) Stream(ctx context.Context) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		final := p.execute(ctx, func(e Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})
		res := NewResult(final)
		select {
		case events <- Event{Type: EventComplete, Result: &res}:
		case <-ctx.Done():
		}
	}()
	return events
}

func (p *Pipeline) execute(ctx context.Context, emit func(Event)) State {
	runID := p.newID()
	state := newState(runID, p.sources, p.keywords, p.now())
	logger := p.logger.With("run_id", runID)
	logger.Info("starting run", "stages", len(p.stages), "parallel_sources", p.parallel)

	for i := 0; i < len(p.stages); {
		batch := p.stages[i : i+1]
		if p.parallel && p.stages[i].Fetch {
			j := i + 1
			for j < len(p.stages) && p.stages[j].Fetch {
				j++
			}
			batch = p.stages[i:j]
		}

		for _, st := range batch {
			emit(Event{Type: EventStageStart, Node: st.Name})
		}

		updates := make([]Update, len(batch))
		durations := make([]time.Duration, len(batch))
		if len(batch) == 1 {
			updates[0], durations[0] = p.runStage(ctx, batch[0], state)
		} else {
			var g errgroup.Group
			for k, st := range batch {
				g.Go(func() error {
					updates[k], durations[k] = p.runStage(ctx, st, state)
					return nil
				})
			}
			_ = g.Wait()
		}

		for k, st := range batch {
			state = state.Apply(updates[k]).markStep(st.Name)
			count := 0
			if st.Count != nil {
				count = st.Count(state)
			}
			var latest string
			if n := len(state.Progress); n > 0 {
				latest = state.Progress[n-1]
			}
			logger.Info("stage complete",
				"stage", st.Name,
				"jobs", count,
				"errors", len(updates[k].Errors),
				"duration", durations[k].Round(time.Millisecond),
			)
			emit(Event{Type: EventStageEnd, Node: st.Name, JobsCount: count, Progress: latest})
		}
		i += len(batch)
	}

	state.CompletedAt = p.now()
	logger.Info("run complete",
		"found", state.TotalFound,
		"commutable", state.TotalFiltered,
		"errors", len(state.Errors),
		"duration", state.CompletedAt.Sub(state.StartedAt).Round(time.Millisecond),
	)
	return state
}

// runStage calls st.Run and turns a panic into an error string.
func (p *Pipeline) runStage(ctx context.Context, st Stage, s State) (u Update, took time.Duration) {
	start := time.Now()
	defer func() {
		took = time.Since(start)
		if rec := recover(); rec != nil {
			p.logger.Error("stage panicked", "stage", st.Name, "panic", rec)
			u = Update{Errors: []string{fmt.Sprintf("%s stage error: %v", st.Name, rec)}}
		}
	}()
	return st.Run(ctx, s), 0
}
