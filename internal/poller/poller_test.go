package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/store"
)

// --- Fakes ---

type fakeRunner struct {
	jobs []model.Job
	runs int
}

func (r *fakeRunner) Run(context.Context) pipeline.State {
	r.runs++
	return pipeline.State{
		RunID:         "run-" + string(rune('0'+r.runs)),
		FilteredJobs:  r.jobs,
		TotalFound:    len(r.jobs) + 2,
		TotalFiltered: len(r.jobs),
		StartedAt:     time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		CompletedAt:   time.Date(2026, 10, 15, 9, 0, 5, 0, time.UTC),
	}
}

// recordingNotifier records each report it is given.
type recordingNotifier struct {
	reports []pipeline.Result
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, res pipeline.Result) error {
	n.reports = append(n.reports, res)
	return n.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeJobs(ids ...string) []model.Job {
	jobs := make([]model.Job, len(ids))
	for i, id := range ids {
		jobs[i] = model.NewJob(model.SourceGreenhouse, id, model.WorkRemote)
		jobs[i].Title = "Senior Engineer " + id
	}
	return jobs
}

func newSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// --- Tests ---

func TestPoll_NotifiesOnlyNewJobs(t *testing.T) {
	runner := &fakeRunner{jobs: makeJobs("1", "2")}
	st := newSQLite(t)
	n := &recordingNotifier{}
	p := New(runner, st, n, Options{Notify: true}, discardLogger())

	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	if len(n.reports) != 1 || len(n.reports[0].Jobs) != 2 {
		t.Fatalf("first report = %+v, want 2 jobs", n.reports)
	}

	runner.jobs = makeJobs("2", "3")
	res, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("second poll: %v", err)
	}
	if len(res.Jobs) != 2 {
		t.Errorf("returned result should keep every job, got %d", len(res.Jobs))
	}
	second := n.reports[1]
	if len(second.Jobs) != 1 || second.Jobs[0].SourceID != "3" {
		t.Errorf("second report jobs = %+v, want only 3", second.Jobs)
	}
	if second.TotalFiltered != 2 {
		t.Errorf("report totals should describe the whole run, got %d", second.TotalFiltered)
	}
}

func TestPoll_SavesSnapshot(t *testing.T) {
	st := newSQLite(t)
	p := New(&fakeRunner{jobs: makeJobs("1")}, st, nil, Options{Save: true}, discardLogger())

	if _, err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	snap, err := st.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if snap.RunID != "run-1" || len(snap.Result.Jobs) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPoll_NopStoreReportsEverything(t *testing.T) {
	n := &recordingNotifier{}
	p := New(&fakeRunner{jobs: makeJobs("1", "2")}, store.NewNopStore(), n, Options{Notify: true}, discardLogger())

	for range 2 {
		if _, err := p.Poll(context.Background()); err != nil {
			t.Fatalf("Poll: %v", err)
		}
	}
	if len(n.reports) != 2 || len(n.reports[1].Jobs) != 2 {
		t.Errorf("without a store every run reports all jobs, got %+v", n.reports)
	}
}

func TestPoll_NotifierErrorDoesNotMarkSeen(t *testing.T) {
	st := newSQLite(t)
	n := &recordingNotifier{err: errors.New("webhook down")}
	p := New(&fakeRunner{jobs: makeJobs("1")}, st, n, Options{Notify: true}, discardLogger())

	if _, err := p.Poll(context.Background()); err == nil {
		t.Fatal("expected notifier error")
	}

	unseen, err := st.Unseen(context.Background(), makeJobs("1"))
	if err != nil {
		t.Fatalf("Unseen: %v", err)
	}
	if len(unseen) != 1 {
		t.Error("a failed report must leave its jobs unseen for the next cycle")
	}
}

func TestPoll_RunOnly(t *testing.T) {
	runner := &fakeRunner{jobs: makeJobs("1")}
	p := New(runner, store.NewNopStore(), nil, Options{}, discardLogger())

	res, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if runner.runs != 1 || !res.Success || res.TotalFound != 3 {
		t.Errorf("runs=%d result=%+v", runner.runs, res)
	}
}
