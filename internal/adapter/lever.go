package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobradar/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team       string `json:"team"`
	Location   string `json:"location"`
	Commitment string `json:"commitment"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	HostedURL        string          `json:"hostedUrl"`
}

// LeverAdapter fetches jobs from one company's Lever postings.
type LeverAdapter struct {
	companySlug string
	companyName string
	client      *http.Client
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(companySlug string, companyName string, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
	}
}

// Company returns the display name of the board's company.
func (a *LeverAdapter) Company() string { return a.companyName }

// FetchJobs retrieves all postings from the board and normalizes them into
// the unified Job model. Lever's list endpoint carries no posting date.
func (a *LeverAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	url := fmt.Sprintf("%s/%s", leverBaseURL, a.companySlug)

	var leverJobs []leverJob
	if err := getJSON(ctx, a.client, url, "lever fetch for "+a.companySlug, &leverJobs); err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(leverJobs))
	for _, lj := range leverJobs {
		location := lj.Categories.Location
		job := model.NewJob(model.SourceLever, lj.ID, model.InferWorkType(location))
		job.Company = a.companyName
		job.Title = lj.Text
		job.Description = lj.DescriptionPlain
		if job.Description == "" {
			job.Description = lj.Description
		}
		job.Location = location
		job.URL = lj.HostedURL
		if lj.Categories.Team != "" {
			job.Summary = model.StringPtr("Team: " + lj.Categories.Team)
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
