package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amishk599/jobradar/internal/model"
)

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	ID                        int64    `json:"id"`
	URL                       string   `json:"url"`
	Title                     string   `json:"title"`
	CompanyName               string   `json:"company_name"`
	Tags                      []string `json:"tags"`
	PublicationDate           string   `json:"publication_date"`
	CandidateRequiredLocation *string  `json:"candidate_required_location"`
	Salary                    string   `json:"salary"`
	Description               string   `json:"description"`
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches the remote-only Remotive feed.
type RemotiveAdapter struct {
	endpoint string
	category string
	limit    int
	client   *http.Client
}

// NewRemotiveAdapter creates an adapter for the Remotive feed at endpoint.
func NewRemotiveAdapter(endpoint, category string, limit int, client *http.Client) *RemotiveAdapter {
	return &RemotiveAdapter{
		endpoint: endpoint,
		category: category,
		limit:    limit,
		client:   client,
	}
}

// FetchJobs retrieves one page of the category feed and normalizes it. Every
// Remotive job is remote regardless of its location text.
func (a *RemotiveAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	q := url.Values{}
	if a.category != "" {
		q.Set("category", a.category)
	}
	if a.limit > 0 {
		q.Set("limit", strconv.Itoa(a.limit))
	}
	u := a.endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rr remotiveResponse
	if err := getJSON(ctx, a.client, u, "remotive fetch", &rr); err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(rr.Jobs))
	for _, rj := range rr.Jobs {
		job := model.NewJob(model.SourceRemotive, strconv.FormatInt(rj.ID, 10), model.WorkRemote)
		job.Company = rj.CompanyName
		job.Title = rj.Title
		job.Description = rj.Description
		job.Location = "Worldwide"
		if rj.CandidateRequiredLocation != nil {
			job.Location = *rj.CandidateRequiredLocation
		}
		job.URL = rj.URL
		job.PostedAt = model.StringPtr(rj.PublicationDate)
		if rj.Salary != "" {
			job.Summary = model.StringPtr("Salary: " + rj.Salary)
		}
		if len(rj.Tags) > 0 {
			job.SetSkills(rj.Tags)
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
