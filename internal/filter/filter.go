package filter

import (
	"strings"

	"github.com/amishk599/jobradar/internal/model"
)

// RoleSeniorityFilter matches jobs whose title contains any role keyword and
// any seniority keyword. Matching is case-insensitive substring. Empty keyword
// lists are treated as "match all".
type RoleSeniorityFilter struct {
	roleKeywords      []string
	seniorityKeywords []string
}

// NewRoleSeniorityFilter returns a filter that requires both a role keyword
// match and a seniority keyword match on the job title.
func NewRoleSeniorityFilter(roleKeywords []string, seniorityKeywords []string) *RoleSeniorityFilter {
	return &RoleSeniorityFilter{
		roleKeywords:      lowerAll(roleKeywords),
		seniorityKeywords: lowerAll(seniorityKeywords),
	}
}

// Match returns true if the title passes both the role and seniority checks.
func (f *RoleSeniorityFilter) Match(job model.Job) bool {
	return f.MatchTitle(job.Title)
}

// MatchTitle applies the filter to a raw listing title.
func (f *RoleSeniorityFilter) MatchTitle(title string) bool {
	titleLower := strings.ToLower(title)
	return containsAny(titleLower, f.roleKeywords) && containsAny(titleLower, f.seniorityKeywords)
}

func containsAny(s string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
