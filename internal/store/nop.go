package store

import (
	"context"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
)

// NopStore is used when no store path is configured. It saves nothing and
// treats every job as unseen.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) SaveRun(context.Context, pipeline.Result, string) error { return nil }
func (s *NopStore) LatestRun(context.Context) (*Snapshot, error)           { return nil, ErrNoRuns }
func (s *NopStore) MarkSeen(context.Context, []model.Job) error            { return nil }
func (s *NopStore) Close() error                                           { return nil }

func (s *NopStore) Unseen(_ context.Context, jobs []model.Job) ([]model.Job, error) {
	return jobs, nil
}
