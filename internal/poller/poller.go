// Package poller runs one report cycle: run the pipeline, optionally save a
// snapshot, then notify only the jobs not reported before.
package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobradar/internal/notifier"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/store"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) pipeline.State
}

// Options selects the post-run steps.
type Options struct {
	Save   bool
	Notify bool
}

// Poller owns one cycle: run → save → dedup against seen jobs → notify →
// mark seen.
type Poller struct {
	runner   Runner
	store    store.Store
	notifier notifier.Notifier
	opts     Options
	logger   *slog.Logger
}

// New creates a poller wired with all its dependencies. n may be nil when
// opts.Notify is false.
func New(runner Runner, st store.Store, n notifier.Notifier, opts Options, logger *slog.Logger) *Poller {
	return &Poller{
		runner:   runner,
		store:    st,
		notifier: n,
		opts:     opts,
		logger:   logger,
	}
}

// Poll runs one cycle and returns the full result of the run. A store or
// notifier failure is returned alongside that result; the run itself never
// fails.
func (p *Poller) Poll(ctx context.Context) (pipeline.Result, error) {
	state := p.runner.Run(ctx)
	res := pipeline.NewResult(state)

	if p.opts.Save {
		if err := p.store.SaveRun(ctx, res, state.RunID); err != nil {
			return res, fmt.Errorf("saving run %s: %w", state.RunID, err)
		}
	}

	if !p.opts.Notify {
		p.logger.Info("polled sources", "run_id", state.RunID, "found", res.TotalFound, "commutable", res.TotalFiltered)
		return res, nil
	}

	fresh, err := p.store.Unseen(ctx, res.Jobs)
	if err != nil {
		return res, fmt.Errorf("checking seen status: %w", err)
	}

	report := res
	report.Jobs = fresh
	if err := p.notifier.Notify(ctx, report); err != nil {
		return res, fmt.Errorf("notifying: %w", err)
	}
	if err := p.store.MarkSeen(ctx, fresh); err != nil {
		return res, fmt.Errorf("marking seen: %w", err)
	}

	p.logger.Info("polled sources",
		"run_id", state.RunID,
		"found", res.TotalFound,
		"commutable", res.TotalFiltered,
		"new", len(fresh),
	)
	return res, nil
}
