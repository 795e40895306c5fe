package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobradar/internal/model"
)

// Outcome is what one source contributes to a run.
type Outcome struct {
	Source   model.Source
	Jobs     []model.Job // never nil
	Progress string
	Errors   []string
}

// Board is one company on a curated roster.
type Board struct {
	Company string
	Fetcher model.JobFetcher
}

// Remote fetches the single remote-only feed.
type Remote struct {
	fetcher model.JobFetcher
	filter  model.JobFilter
	logger  *slog.Logger
}

// NewRemote creates the remote feed source.
func NewRemote(fetcher model.JobFetcher, filter model.JobFilter, logger *slog.Logger) *Remote {
	return &Remote{fetcher: fetcher, filter: filter, logger: logger}
}

// Fetch runs one request against the feed. A failure yields zero jobs and one
// error string; the progress message is always produced.
func (r *Remote) Fetch(ctx context.Context) (out Outcome) {
	out = Outcome{Source: model.SourceRemotive, Jobs: make([]model.Job, 0)}
	defer func() {
		if rec := recover(); rec != nil {
			out.Jobs = make([]model.Job, 0)
			out.Errors = append(out.Errors, fmt.Sprintf("Remotive fetch error: %v", rec))
		}
		out.Progress = fmt.Sprintf("Fetched %d remote jobs from Remotive", len(out.Jobs))
	}()

	jobs, err := r.fetcher.FetchJobs(ctx)
	if err != nil {
		r.logger.Warn("remote feed failed", "source", model.SourceRemotive, "error", err)
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", remoteErrorLabel(err), err))
		return out
	}
	out.Jobs = keep(jobs, r.filter)

	r.logger.Debug("fetched remote feed",
		"source", model.SourceRemotive,
		"fetched", len(jobs),
		"matched", len(out.Jobs),
	)
	return out
}

// remoteErrorLabel separates request failures (transport or HTTP status) from
// everything else, such as an undecodable body.
func remoteErrorLabel(err error) string {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) || model.IsTransportError(err) {
		return "Remotive API error"
	}
	return "Remotive fetch error"
}

// Boards fans out over a company roster for one board source.
type Boards struct {
	source      model.Source
	label       string
	boards      []Board
	filter      model.JobFilter
	concurrency int
	logger      *slog.Logger
}

// NewBoards creates a roster source. label is the display name used in
// progress and error strings, e.g. "Greenhouse".
func NewBoards(src model.Source, label string, boards []Board, filter model.JobFilter, concurrency int, logger *slog.Logger) *Boards {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Boards{
		source:      src,
		label:       label,
		boards:      boards,
		filter:      filter,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Fetch requests every company with at most concurrency requests in flight.
// A failing company contributes nothing and is only logged. Jobs keep roster
// order. A worker panic or a cancelled context becomes one error string.
func (b *Boards) Fetch(ctx context.Context) Outcome {
	results := make([][]model.Job, len(b.boards))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, board := range b.boards {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("%s: panic: %v", board.Company, rec)
				}
			}()
			if ctx.Err() != nil {
				return nil
			}

			jobs, err := board.Fetcher.FetchJobs(ctx)
			if err != nil {
				b.logger.Debug("company fetch failed",
					"source", b.source,
					"company", board.Company,
					"error", err,
				)
				return nil
			}
			results[i] = keep(jobs, b.filter)
			b.logger.Debug("fetched company",
				"source", b.source,
				"company", board.Company,
				"fetched", len(jobs),
				"matched", len(results[i]),
			)
			return nil
		})
	}

	out := Outcome{Source: b.source, Jobs: make([]model.Job, 0)}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		b.logger.Warn("board fetch failed", "source", b.source, "error", err)
		out.Errors = append(out.Errors, fmt.Sprintf("%s fetch error: %v", b.label, err))
	}

	for _, jobs := range results {
		out.Jobs = append(out.Jobs, jobs...)
	}
	out.Progress = fmt.Sprintf("Fetched %d jobs from %d %s companies", len(out.Jobs), len(b.boards), b.label)
	return out
}

func keep(jobs []model.Job, filter model.JobFilter) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if filter == nil || filter.Match(job) {
			out = append(out, job)
		}
	}
	return out
}
