package pipeline

import (
	"context"
	"fmt"

	"github.com/amishk599/jobradar/internal/commute"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/source"
)

// Stage names, in run order.
const (
	StageFetchRemotive   = "fetch_remotive"
	StageFetchGreenhouse = "fetch_greenhouse"
	StageFetchLever      = "fetch_lever"
	StageMergeJobs       = "merge_jobs"
	StageCalcDistance    = "calculate_distance"
)

// Stage is one named step. Run reads the State it is given and returns only
// what changed. Count reports the stage's job count after its update lands.
type Stage struct {
	Name string
	Run  func(ctx context.Context, s State) Update
	// Count is optional; a nil Count reports zero.
	Count func(s State) int
	// Fetch marks stages that only read the initial state, so they may run
	// concurrently with neighbouring fetch stages.
	Fetch bool
}

// Fetcher is a source that produces one Outcome per run.
type Fetcher interface {
	Fetch(ctx context.Context) source.Outcome
}

// FetchStage wraps a source into a stage that fills src's list.
func FetchStage(name string, src model.Source, f Fetcher) Stage {
	return Stage{
		Name:  name,
		Fetch: true,
		Run: func(ctx context.Context, _ State) Update {
			out := f.Fetch(ctx)
			u := Update{Errors: out.Errors}
			if out.Progress != "" {
				u.Progress = []string{out.Progress}
			}
			jobs := out.Jobs
			if jobs == nil {
				jobs = []model.Job{}
			}
			switch src {
			case model.SourceRemotive:
				u.RemotiveJobs = jobs
			case model.SourceGreenhouse:
				u.GreenhouseJobs = jobs
			case model.SourceLever:
				u.LeverJobs = jobs
			}
			return u
		},
		Count: func(s State) int { return len(s.JobsFor(src)) },
	}
}

// MergeStage deduplicates the three fetched lists into AllJobs.
func MergeStage() Stage {
	return Stage{
		Name: StageMergeJobs,
		Run: func(_ context.Context, s State) Update {
			all := Merge(s.RemotiveJobs, s.GreenhouseJobs, s.LeverJobs)
			return Update{
				AllJobs:    all,
				TotalFound: intPtr(len(all)),
				Progress:   []string{fmt.Sprintf("Merged %d unique jobs from all sources", len(all))},
			}
		},
		Count: func(s State) int { return s.TotalFound },
	}
}

// DistanceStage classifies AllJobs by commute and keeps the commutable ones.
func DistanceStage(est *commute.Estimator) Stage {
	return Stage{
		Name: StageCalcDistance,
		Run: func(_ context.Context, s State) Update {
			processed, filtered := est.Estimate(s.AllJobs)
			return Update{
				ProcessedJobs: processed,
				FilteredJobs:  filtered,
				TotalFiltered: intPtr(len(filtered)),
				Progress: []string{fmt.Sprintf("Filtered to %d commutable jobs (within %g miles or remote)",
					len(filtered), est.MaxMiles())},
			}
		},
		Count: func(s State) int { return s.TotalFiltered },
	}
}

// Standard returns the five stages in their fixed order.
func Standard(remotive, greenhouse, lever Fetcher, est *commute.Estimator) []Stage {
	return []Stage{
		FetchStage(StageFetchRemotive, model.SourceRemotive, remotive),
		FetchStage(StageFetchGreenhouse, model.SourceGreenhouse, greenhouse),
		FetchStage(StageFetchLever, model.SourceLever, lever),
		MergeStage(),
		DistanceStage(est),
	}
}
