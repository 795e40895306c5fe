package store

import (
	"context"
	"errors"
	"time"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
)

// ErrNoRuns is returned by LatestRun when no run has been saved.
var ErrNoRuns = errors.New("no saved runs")

// Snapshot is a saved run read back from the store.
type Snapshot struct {
	RunID   string
	SavedAt time.Time
	Result  pipeline.Result
}

// Store persists run results and remembers which jobs were already reported.
type Store interface {
	SaveRun(ctx context.Context, res pipeline.Result, runID string) error
	LatestRun(ctx context.Context) (*Snapshot, error)
	Unseen(ctx context.Context, jobs []model.Job) ([]model.Job, error)
	MarkSeen(ctx context.Context, jobs []model.Job) error
	Close() error
}
