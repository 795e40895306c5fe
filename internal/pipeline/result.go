package pipeline

import (
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// Result is the public projection of a finished run.
type Result struct {
	Success          bool        `json:"success"`
	Jobs             []model.Job `json:"jobs"`
	TotalFound       int         `json:"total_found"`
	TotalFiltered    int         `json:"total_filtered"`
	Progress         []string    `json:"progress"`
	Errors           []string    `json:"errors"`
	FetchStartedAt   string      `json:"fetch_started_at"`
	FetchCompletedAt string      `json:"fetch_completed_at"`
}

// NewResult projects a State. Source errors do not clear Success; they are
// reported alongside whatever jobs were gathered.
func NewResult(s State) Result {
	return Result{
		Success:          true,
		Jobs:             orEmpty(s.FilteredJobs),
		TotalFound:       s.TotalFound,
		TotalFiltered:    s.TotalFiltered,
		Progress:         orEmpty(s.Progress),
		Errors:           orEmpty(s.Errors),
		FetchStartedAt:   timestamp(s.StartedAt),
		FetchCompletedAt: timestamp(s.CompletedAt),
	}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
