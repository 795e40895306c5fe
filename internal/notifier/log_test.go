package notifier

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
)

func TestLogNotifier_Notify_zeroJobs(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := n.Notify(context.Background(), pipeline.Result{}); err != nil {
		t.Errorf("Notify(empty) = %v, want nil", err)
	}
	if !strings.Contains(buf.String(), "run report") {
		t.Errorf("expected summary line, got %q", buf.String())
	}
}

func TestLogNotifier_Notify_logsJobsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	res := pipeline.Result{
		Jobs: []model.Job{
			sampleJob("Senior Backend Engineer", "Acme", model.Float64Ptr(7.2)),
			sampleJob("Staff Engineer", "Beta", nil),
		},
		TotalFound:    10,
		TotalFiltered: 2,
		Errors:        []string{"Remotive API error: timeout"},
	}
	if err := n.Notify(context.Background(), res); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{"commutable=2", "Remotive API error: timeout", "company=Acme", `commute="7.2 mi"`, "company=Beta"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
