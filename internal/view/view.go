// Package view refines a run's commutable jobs for display: work-type and
// distance filters, free-text search, and a sort order.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/amishk599/jobradar/internal/model"
)

// SortBy names a display order.
type SortBy string

const (
	SortDistance SortBy = "distance"
	SortCompany  SortBy = "company"
	SortRecent   SortBy = "recent"
	SortNone     SortBy = "none"
)

// Sorts lists the orders in the sequence the browser cycles through them.
var Sorts = []SortBy{SortDistance, SortCompany, SortRecent, SortNone}

// ParseSort maps a query value to a SortBy. Empty means distance.
func ParseSort(s string) (SortBy, error) {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDistance:
		return SortDistance, nil
	case SortCompany:
		return SortCompany, nil
	case SortRecent:
		return SortRecent, nil
	case SortNone:
		return SortNone, nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// ParseWorkTypes parses a comma-separated list such as "remote,hybrid".
func ParseWorkTypes(csv string) ([]model.WorkType, error) {
	var out []model.WorkType
	for _, part := range strings.Split(csv, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		wt := model.WorkType(part)
		switch wt {
		case model.WorkRemote, model.WorkHybrid, model.WorkOnsite:
			out = append(out, wt)
		default:
			return nil, fmt.Errorf("unknown work type %q", part)
		}
	}
	return out, nil
}

// Criteria selects and orders jobs. The zero value keeps everything in its
// original order.
type Criteria struct {
	WorkTypes   []model.WorkType // empty means all
	MaxDistance float64          // <= 0 disables the distance check
	Query       string
	SortBy      SortBy
}

// Default mirrors the dashboard defaults: all work types, the run's commute
// threshold, distance order.
func Default(maxDistance float64) Criteria {
	return Criteria{MaxDistance: maxDistance, SortBy: SortDistance}
}

// Match reports whether job passes the filters in c.
func (c Criteria) Match(job model.Job) bool {
	if len(c.WorkTypes) > 0 && !slices.Contains(c.WorkTypes, job.WorkType) {
		return false
	}
	if c.MaxDistance > 0 && job.WorkType != model.WorkRemote &&
		job.DistanceMiles != nil && *job.DistanceMiles > c.MaxDistance {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" {
		if !strings.Contains(searchText(job), q) {
			return false
		}
	}
	return true
}

// Apply returns a new slice of the jobs that match c, sorted by c.SortBy.
func (c Criteria) Apply(jobs []model.Job) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if c.Match(job) {
			out = append(out, job)
		}
	}

	switch c.SortBy {
	case SortDistance:
		slices.SortStableFunc(out, func(a, b model.Job) int {
			return cmp.Compare(sortDistance(a), sortDistance(b))
		})
	case SortCompany:
		slices.SortStableFunc(out, func(a, b model.Job) int {
			return strings.Compare(strings.ToLower(a.Company), strings.ToLower(b.Company))
		})
	case SortRecent:
		slices.SortStableFunc(out, func(a, b model.Job) int {
			return cmp.Compare(postedUnix(b), postedUnix(a))
		})
	}
	return out
}

// sortDistance puts remote jobs first and unknown distances last.
func sortDistance(j model.Job) float64 {
	if j.WorkType == model.WorkRemote {
		return -1
	}
	if j.DistanceMiles == nil {
		return 999
	}
	return *j.DistanceMiles
}

var postedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// PostedTime parses a job's posted_at in any of the formats the boards use.
func PostedTime(j model.Job) (time.Time, bool) {
	if j.PostedAt == nil {
		return time.Time{}, false
	}
	for _, layout := range postedLayouts {
		if t, err := time.Parse(layout, *j.PostedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func postedUnix(j model.Job) int64 {
	t, ok := PostedTime(j)
	if !ok {
		return 0
	}
	return t.Unix()
}

func searchText(j model.Job) string {
	parts := append([]string{j.Title, j.Company, j.Description}, j.Skills...)
	return strings.ToLower(strings.Join(parts, " "))
}
