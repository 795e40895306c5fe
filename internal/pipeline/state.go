package pipeline

import (
	"slices"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// State is the record threaded through the stages. Stages never mutate it;
// they return an Update that Apply folds into a new State.
type State struct {
	RunID    string
	Sources  []string
	Keywords []string

	CurrentStep    string
	StepsCompleted []string
	Progress       []string

	RemotiveJobs   []model.Job
	GreenhouseJobs []model.Job
	LeverJobs      []model.Job

	AllJobs       []model.Job
	ProcessedJobs []model.Job
	FilteredJobs  []model.Job

	Errors []string

	StartedAt     time.Time
	CompletedAt   time.Time
	TotalFound    int
	TotalFiltered int
}

// Update is a partial State. Nil slices and nil counts leave the field
// unchanged; Progress and Errors are appended.
type Update struct {
	RemotiveJobs   []model.Job
	GreenhouseJobs []model.Job
	LeverJobs      []model.Job

	AllJobs       []model.Job
	ProcessedJobs []model.Job
	FilteredJobs  []model.Job

	TotalFound    *int
	TotalFiltered *int

	Progress []string
	Errors   []string
}

// Apply returns a new State with u folded in. s is left untouched.
func (s State) Apply(u Update) State {
	next := s
	next.Progress = concat(s.Progress, u.Progress)
	next.Errors = concat(s.Errors, u.Errors)

	if u.RemotiveJobs != nil {
		next.RemotiveJobs = u.RemotiveJobs
	}
	if u.GreenhouseJobs != nil {
		next.GreenhouseJobs = u.GreenhouseJobs
	}
	if u.LeverJobs != nil {
		next.LeverJobs = u.LeverJobs
	}
	if u.AllJobs != nil {
		next.AllJobs = u.AllJobs
	}
	if u.ProcessedJobs != nil {
		next.ProcessedJobs = u.ProcessedJobs
	}
	if u.FilteredJobs != nil {
		next.FilteredJobs = u.FilteredJobs
	}
	if u.TotalFound != nil {
		next.TotalFound = *u.TotalFound
	}
	if u.TotalFiltered != nil {
		next.TotalFiltered = *u.TotalFiltered
	}
	return next
}

// JobsFor returns the fetched list for one source.
func (s State) JobsFor(src model.Source) []model.Job {
	switch src {
	case model.SourceRemotive:
		return s.RemotiveJobs
	case model.SourceGreenhouse:
		return s.GreenhouseJobs
	case model.SourceLever:
		return s.LeverJobs
	}
	return nil
}

func (s State) markStep(name string) State {
	s.CurrentStep = name
	s.StepsCompleted = concat(s.StepsCompleted, []string{name})
	return s
}

// concat never aliases a's backing array, so earlier States stay intact.
func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func newState(runID string, sources, keywords []string, started time.Time) State {
	return State{
		RunID:          runID,
		Sources:        slices.Clone(sources),
		Keywords:       slices.Clone(keywords),
		StepsCompleted: []string{},
		Progress:       []string{},
		RemotiveJobs:   []model.Job{},
		GreenhouseJobs: []model.Job{},
		LeverJobs:      []model.Job{},
		AllJobs:        []model.Job{},
		ProcessedJobs:  []model.Job{},
		FilteredJobs:   []model.Job{},
		Errors:         []string{},
		StartedAt:      started,
	}
}

func intPtr(n int) *int { return &n }
