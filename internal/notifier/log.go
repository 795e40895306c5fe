package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobradar/internal/pipeline"
)

// Ensure LogNotifier implements Notifier.
var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes a run summary and each job to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one summary line, one line per source error and one per job.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, res pipeline.Result) error {
	n.logger.Info("run report",
		"found", res.TotalFound,
		"commutable", res.TotalFiltered,
		"errors", len(res.Errors),
	)
	for _, e := range res.Errors {
		n.logger.Warn("source error", "error", e)
	}
	for _, j := range res.Jobs {
		args := []any{
			"company", j.Company,
			"title", j.Title,
			"location", j.Location,
			"commute", j.DistanceLabel(),
			"url", j.URL,
		}
		if j.PostedAt != nil {
			args = append(args, "posted_at", *j.PostedAt)
		}
		n.logger.Info("job", args...)
	}
	return nil
}
