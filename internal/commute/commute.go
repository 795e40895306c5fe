// Package commute annotates jobs with distance from home, decides which are
// commutable, and ranks the commutable ones.
package commute

import (
	"slices"

	"github.com/amishk599/jobradar/internal/geo"
	"github.com/amishk599/jobradar/internal/model"
)

// Estimator classifies jobs against a fixed home and commute threshold.
type Estimator struct {
	home      geo.Point
	maxMiles  float64
	gazetteer *geo.Gazetteer
}

// NewEstimator creates an estimator for the given home point and threshold.
func NewEstimator(home geo.Point, maxMiles float64, gazetteer *geo.Gazetteer) *Estimator {
	return &Estimator{
		home:      home,
		maxMiles:  maxMiles,
		gazetteer: gazetteer,
	}
}

// MaxMiles returns the commute threshold.
func (e *Estimator) MaxMiles() float64 {
	return e.maxMiles
}

// Classify returns a copy of job with the computed fields filled in.
func (e *Estimator) Classify(job model.Job) model.Job {
	if job.WorkType == model.WorkRemote {
		job.DistanceMiles = model.Float64Ptr(0)
		job.IsCommutable = true
		return job
	}

	res := e.gazetteer.Lookup(job.Location)
	if !res.Found {
		// Unknown location: keep hybrid roles, drop onsite ones.
		job.DistanceMiles = nil
		job.IsCommutable = job.WorkType == model.WorkHybrid
		return job
	}

	d := geo.RoundTenth(geo.Haversine(e.home, res.Point))
	job.Latitude = model.Float64Ptr(res.Point.Lat)
	job.Longitude = model.Float64Ptr(res.Point.Lng)
	job.DistanceMiles = model.Float64Ptr(d)
	job.IsCommutable = e.within(d)
	return job
}

func (e *Estimator) within(miles float64) bool {
	return miles <= e.maxMiles
}

// Estimate classifies every job and returns all of them (processed) plus the
// commutable subset ranked by Rank (filtered). Input jobs are not modified.
func (e *Estimator) Estimate(jobs []model.Job) (processed, filtered []model.Job) {
	processed = make([]model.Job, 0, len(jobs))
	filtered = make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		c := e.Classify(j)
		processed = append(processed, c)
		if c.IsCommutable {
			filtered = append(filtered, c)
		}
	}
	Rank(filtered)
	return processed, filtered
}

// Rank sorts jobs in place: known distances first, ascending, then unknown
// distances. Equal keys keep their input order.
func Rank(jobs []model.Job) {
	slices.SortStableFunc(jobs, func(a, b model.Job) int {
		switch {
		case a.DistanceMiles == nil && b.DistanceMiles == nil:
			return 0
		case a.DistanceMiles == nil:
			return 1
		case b.DistanceMiles == nil:
			return -1
		}
		switch {
		case *a.DistanceMiles < *b.DistanceMiles:
			return -1
		case *a.DistanceMiles > *b.DistanceMiles:
			return 1
		}
		return 0
	})
}
