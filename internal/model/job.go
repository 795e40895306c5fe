package model

import (
	"context"
	"fmt"
	"strings"
)

// Source identifies the job board a posting came from.
type Source string

const (
	SourceRemotive   Source = "remotive"
	SourceGreenhouse Source = "greenhouse"
	SourceLever      Source = "lever"
)

// KnownSources lists the boards in pipeline order.
var KnownSources = []Source{SourceRemotive, SourceGreenhouse, SourceLever}

// IsKnownSource reports whether name is one of KnownSources.
func IsKnownSource(name string) bool {
	for _, s := range KnownSources {
		if string(s) == name {
			return true
		}
	}
	return false
}

// WorkType is the remote/hybrid/onsite classification of a posting.
type WorkType string

const (
	WorkRemote WorkType = "remote"
	WorkHybrid WorkType = "hybrid"
	WorkOnsite WorkType = "onsite"
)

// InferWorkType classifies free-text location: "remote" wins over "hybrid",
// anything else is onsite.
func InferWorkType(location string) WorkType {
	lower := strings.ToLower(location)
	switch {
	case strings.Contains(lower, "remote"):
		return WorkRemote
	case strings.Contains(lower, "hybrid"):
		return WorkHybrid
	default:
		return WorkOnsite
	}
}

// MaxSkills caps the skills list on a Job.
const MaxSkills = 10

// Job is the normalized representation of a posting from any board.
type Job struct {
	Source      Source   `json:"source"`
	SourceID    string   `json:"source_id"` // unique per source
	Company     string   `json:"company"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"` // free text, as the board reports it
	WorkType    WorkType `json:"work_type"`
	SalaryMin   *int     `json:"salary_min"`
	SalaryMax   *int     `json:"salary_max"`
	URL         string   `json:"url"`
	PostedAt    *string  `json:"posted_at"` // raw board timestamp
	Skills      []string `json:"skills"`
	Summary     *string  `json:"summary"`

	// Computed by the distance stage.
	DistanceMiles *float64 `json:"distance_miles"`
	IsCommutable  bool     `json:"is_commutable"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

// Key is the dedup key of a Job.
type Key struct {
	Source   Source
	SourceID string
}

// Key returns the (source, source_id) pair.
func (j Job) Key() Key {
	return Key{Source: j.Source, SourceID: j.SourceID}
}

// NewJob returns a Job with an empty (non-nil) skills list and the
// provisional commutable flag set for remote postings.
func NewJob(source Source, sourceID string, workType WorkType) Job {
	return Job{
		Source:       source,
		SourceID:     sourceID,
		WorkType:     workType,
		Skills:       []string{},
		IsCommutable: workType == WorkRemote,
	}
}

// SetSkills copies at most MaxSkills entries, keeping order.
func (j *Job) SetSkills(skills []string) {
	n := min(len(skills), MaxSkills)
	out := make([]string, n)
	copy(out, skills[:n])
	j.Skills = out
}

// DistanceLabel renders the commute for display: "Remote", "7.2 mi", or
// "distance unknown (hybrid)".
func (j Job) DistanceLabel() string {
	switch {
	case j.WorkType == WorkRemote:
		return "Remote"
	case j.DistanceMiles != nil:
		return fmt.Sprintf("%.1f mi", *j.DistanceMiles)
	default:
		return fmt.Sprintf("distance unknown (%s)", j.WorkType)
	}
}

// JobFetcher fetches raw listings from one board endpoint (one company or one feed).
type JobFetcher interface {
	FetchJobs(ctx context.Context) ([]Job, error)
}

// JobFilter decides whether a job belongs in the result set.
type JobFilter interface {
	Match(job Job) bool
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 { return &f }
