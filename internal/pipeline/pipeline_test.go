package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/commute"
	"github.com/amishk599/jobradar/internal/geo"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/source"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubSource struct {
	out   source.Outcome
	delay time.Duration
}

func (s stubSource) Fetch(ctx context.Context) source.Outcome {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.out
}

func mk(src model.Source, id, location string) model.Job {
	j := model.NewJob(src, id, model.InferWorkType(location))
	j.Title = "Senior Engineer"
	j.Location = location
	return j
}

func testEstimator() *commute.Estimator {
	g := geo.NewGazetteer([]geo.Place{
		{Name: "san francisco", Point: geo.Point{Lat: 37.7749, Lng: -122.4194}},
		{Name: "san jose", Point: geo.Point{Lat: 37.3382, Lng: -121.8863}},
		{Name: "palo alto", Point: geo.Point{Lat: 37.4419, Lng: -122.1430}},
	}, geo.Point{Lat: 37.5, Lng: -122.0})
	return commute.NewEstimator(geo.Point{Lat: 37.2358, Lng: -121.8606}, 25, g)
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now := t
		t = t.Add(2 * time.Second)
		return now
	}
}

func testStages(delay time.Duration) []Stage {
	remotive := stubSource{delay: delay, out: source.Outcome{
		Source:   model.SourceRemotive,
		Jobs:     []model.Job{mk(model.SourceRemotive, "r1", "USA"), mk(model.SourceRemotive, "r2", "Worldwide")},
		Progress: "Fetched 2 remote jobs from Remotive",
	}}
	// Remotive jobs are always remote regardless of location text.
	for i := range remotive.out.Jobs {
		remotive.out.Jobs[i].WorkType = model.WorkRemote
		remotive.out.Jobs[i].IsCommutable = true
	}
	greenhouse := stubSource{out: source.Outcome{
		Source: model.SourceGreenhouse,
		Jobs: []model.Job{
			mk(model.SourceGreenhouse, "g1", "San Jose, CA"),
			mk(model.SourceGreenhouse, "g2", "San Francisco, CA"),
			mk(model.SourceGreenhouse, "g1", "San Jose, CA"),
			mk(model.SourceGreenhouse, "g3", "Hybrid - Reykjavik"),
		},
		Progress: "Fetched 4 jobs from 2 Greenhouse companies",
	}}
	lever := stubSource{delay: delay, out: source.Outcome{
		Source:   model.SourceLever,
		Jobs:     []model.Job{mk(model.SourceLever, "l1", "Palo Alto, CA"), mk(model.SourceLever, "l2", "Remote")},
		Progress: "Fetched 2 jobs from 1 Lever companies",
		Errors:   []string{"Lever fetch error: context deadline exceeded"},
	}}
	return Standard(remotive, greenhouse, lever, testEstimator())
}

func TestRun_EndToEnd(t *testing.T) {
	p := New(testStages(0), testLogger,
		WithClock(fixedClock()),
		WithRunID(func() string { return "run-1" }),
		WithInputs([]string{"remotive", "greenhouse", "lever"}, []string{"senior"}),
	)
	s := p.Run(context.Background())

	if s.RunID != "run-1" {
		t.Errorf("RunID = %q", s.RunID)
	}
	if s.TotalFound != 7 || len(s.AllJobs) != 7 {
		t.Errorf("TotalFound = %d, AllJobs = %d, want 7", s.TotalFound, len(s.AllJobs))
	}
	if len(s.ProcessedJobs) != 7 {
		t.Errorf("ProcessedJobs = %d, want 7", len(s.ProcessedJobs))
	}

	want := []string{"r1", "r2", "l2", "g1", "l1", "g3"}
	if got := keys(s.FilteredJobs); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("FilteredJobs = %v, want %v", got, want)
	}
	if s.TotalFiltered != len(want) {
		t.Errorf("TotalFiltered = %d, want %d", s.TotalFiltered, len(want))
	}

	wantProgress := []string{
		"Fetched 2 remote jobs from Remotive",
		"Fetched 4 jobs from 2 Greenhouse companies",
		"Fetched 2 jobs from 1 Lever companies",
		"Merged 7 unique jobs from all sources",
		"Filtered to 6 commutable jobs (within 25 miles or remote)",
	}
	if strings.Join(s.Progress, "|") != strings.Join(wantProgress, "|") {
		t.Errorf("Progress = %q", s.Progress)
	}
	if len(s.Errors) != 1 {
		t.Errorf("Errors = %v", s.Errors)
	}
	wantSteps := []string{StageFetchRemotive, StageFetchGreenhouse, StageFetchLever, StageMergeJobs, StageCalcDistance}
	if strings.Join(s.StepsCompleted, ",") != strings.Join(wantSteps, ",") {
		t.Errorf("StepsCompleted = %v", s.StepsCompleted)
	}
	if s.CurrentStep != StageCalcDistance {
		t.Errorf("CurrentStep = %q", s.CurrentStep)
	}
	if !s.CompletedAt.After(s.StartedAt) {
		t.Error("CompletedAt should be after StartedAt")
	}
	if len(s.Keywords) != 1 || len(s.Sources) != 3 {
		t.Errorf("inputs not recorded: %v %v", s.Sources, s.Keywords)
	}
}

func TestStream_MatchesRun(t *testing.T) {
	run := New(testStages(0), testLogger, WithClock(fixedClock()), WithRunID(func() string { return "x" })).
		Run(context.Background())
	wantResult := NewResult(run)

	p := New(testStages(0), testLogger, WithClock(fixedClock()), WithRunID(func() string { return "x" }))
	var events []Event
	for e := range p.Stream(context.Background()) {
		events = append(events, e)
	}

	if len(events) != 11 {
		t.Fatalf("got %d events, want 11", len(events))
	}
	wantNodes := []string{StageFetchRemotive, StageFetchGreenhouse, StageFetchLever, StageMergeJobs, StageCalcDistance}
	wantCounts := []int{2, 4, 2, 7, 6}
	for i, node := range wantNodes {
		start, end := events[2*i], events[2*i+1]
		if start.Type != EventStageStart || start.Node != node {
			t.Errorf("event %d = %+v, want start of %s", 2*i, start, node)
		}
		if end.Type != EventStageEnd || end.Node != node || end.JobsCount != wantCounts[i] {
			t.Errorf("event %d = %+v, want end of %s with %d jobs", 2*i+1, end, node, wantCounts[i])
		}
		if end.Progress != wantResult.Progress[i] {
			t.Errorf("event %d progress = %q, want %q", 2*i+1, end.Progress, wantResult.Progress[i])
		}
	}

	last := events[10]
	if last.Type != EventComplete || last.Result == nil {
		t.Fatalf("last event = %+v, want complete with result", last)
	}
	if mustJSON(t, *last.Result) != mustJSON(t, wantResult) {
		t.Errorf("stream result differs from run result\n got  %s\n want %s", mustJSON(t, *last.Result), mustJSON(t, wantResult))
	}
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	seq := New(testStages(20*time.Millisecond), testLogger, WithClock(fixedClock())).Run(context.Background())
	par := New(testStages(20*time.Millisecond), testLogger, WithClock(fixedClock()), WithParallelSources(true)).
		Run(context.Background())

	if strings.Join(keys(seq.FilteredJobs), ",") != strings.Join(keys(par.FilteredJobs), ",") {
		t.Errorf("filtered jobs differ: %v vs %v", keys(seq.FilteredJobs), keys(par.FilteredJobs))
	}
	if strings.Join(seq.Progress, "|") != strings.Join(par.Progress, "|") {
		t.Errorf("progress differs:\n%q\n%q", seq.Progress, par.Progress)
	}
	if strings.Join(seq.StepsCompleted, ",") != strings.Join(par.StepsCompleted, ",") {
		t.Errorf("steps differ: %v vs %v", seq.StepsCompleted, par.StepsCompleted)
	}
}

func TestRun_StagePanicRecorded(t *testing.T) {
	stages := []Stage{
		{Name: "explode", Run: func(context.Context, State) Update { panic("kaboom") }},
		MergeStage(),
	}
	s := New(stages, testLogger).Run(context.Background())

	if len(s.Errors) != 1 || s.Errors[0] != "explode stage error: kaboom" {
		t.Errorf("Errors = %v", s.Errors)
	}
	if s.CurrentStep != StageMergeJobs || s.TotalFound != 0 {
		t.Errorf("run should continue after panic: step=%q found=%d", s.CurrentStep, s.TotalFound)
	}
}

func TestRun_AllSourcesEmpty(t *testing.T) {
	empty := func(src model.Source) stubSource {
		return stubSource{out: source.Outcome{Source: src}}
	}
	s := New(Standard(empty(model.SourceRemotive), empty(model.SourceGreenhouse), empty(model.SourceLever), testEstimator()), testLogger).
		Run(context.Background())

	res := NewResult(s)
	if res.TotalFound != 0 || res.TotalFiltered != 0 {
		t.Errorf("totals = %d/%d, want 0/0", res.TotalFound, res.TotalFiltered)
	}
	body := mustJSON(t, res)
	if !strings.Contains(body, `"jobs":[]`) || !strings.Contains(body, `"errors":[]`) {
		t.Errorf("empty lists should encode as []: %s", body)
	}
}

func TestApply_DoesNotMutatePrevious(t *testing.T) {
	base := newState("id", nil, nil, time.Time{})
	base = base.Apply(Update{Progress: []string{"one"}})

	a := base.Apply(Update{Progress: []string{"two"}, Errors: []string{"e"}})
	b := base.Apply(Update{Progress: []string{"three"}})

	if len(base.Progress) != 1 || len(base.Errors) != 0 {
		t.Errorf("base changed: %v %v", base.Progress, base.Errors)
	}
	if a.Progress[1] != "two" || b.Progress[1] != "three" {
		t.Errorf("branches alias each other: %v %v", a.Progress, b.Progress)
	}

	withJobs := base.Apply(Update{LeverJobs: []model.Job{mk(model.SourceLever, "1", "Remote")}})
	kept := withJobs.Apply(Update{TotalFound: intPtr(3)})
	if len(kept.LeverJobs) != 1 || kept.TotalFound != 3 {
		t.Errorf("nil fields should leave state unchanged: %d jobs, found %d", len(kept.LeverJobs), kept.TotalFound)
	}
}

func TestMerge_FirstOccurrenceWins(t *testing.T) {
	first := mk(model.SourceGreenhouse, "1", "San Jose")
	first.Title = "first"
	dup := mk(model.SourceGreenhouse, "1", "Oakland")
	dup.Title = "dup"
	other := mk(model.SourceLever, "1", "Remote")

	got := Merge([]model.Job{first}, []model.Job{dup, other})
	if len(got) != 2 {
		t.Fatalf("got %d jobs, want 2", len(got))
	}
	if got[0].Title != "first" || got[1].Source != model.SourceLever {
		t.Errorf("unexpected merge %+v", got)
	}
}

func TestNewResult_Timestamps(t *testing.T) {
	s := newState("id", nil, nil, time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC))
	res := NewResult(s)
	if res.FetchStartedAt != "2026-02-14T09:00:00Z" {
		t.Errorf("FetchStartedAt = %q", res.FetchStartedAt)
	}
	if res.FetchCompletedAt != "" {
		t.Errorf("FetchCompletedAt = %q, want empty before completion", res.FetchCompletedAt)
	}
	if !res.Success {
		t.Error("Success should be true")
	}
}

func keys(jobs []model.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.SourceID
	}
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}
