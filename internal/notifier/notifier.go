package notifier

import (
	"context"

	"github.com/amishk599/jobradar/internal/pipeline"
)

// Notifier reports a finished run.
type Notifier interface {
	Notify(ctx context.Context, res pipeline.Result) error
}
