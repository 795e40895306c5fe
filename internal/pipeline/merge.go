package pipeline

import "github.com/amishk599/jobradar/internal/model"

// Merge concatenates the per-source lists in the given order and keeps the
// first occurrence of each (source, source_id).
func Merge(lists ...[]model.Job) []model.Job {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	seen := make(map[model.Key]struct{}, total)
	out := make([]model.Job, 0, total)
	for _, l := range lists {
		for _, job := range l {
			k := job.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, job)
		}
	}
	return out
}
