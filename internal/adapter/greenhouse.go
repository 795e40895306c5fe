package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/amishk599/jobradar/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Content     string             `json:"content"`
}

// greenhouseLocation is usually {"name": "..."}, but some boards send a bare
// string.
type greenhouseLocation struct {
	Name string
}

func (l *greenhouseLocation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		l.Name = name
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("greenhouse location: %w", err)
	}
	l.Name = obj.Name
	return nil
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from one company's Greenhouse board.
type GreenhouseAdapter struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(boardToken string, companyName string, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

// Company returns the display name of the board's company.
func (a *GreenhouseAdapter) Company() string { return a.companyName }

// FetchJobs retrieves all jobs (with content) from the board and normalizes
// them into the unified Job model.
func (a *GreenhouseAdapter) FetchJobs(ctx context.Context) ([]model.Job, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, "greenhouse fetch for "+a.boardToken, &ghResp); err != nil {
		return nil, err
	}

	jobs := make([]model.Job, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		location := gj.Location.Name
		job := model.NewJob(model.SourceGreenhouse, strconv.FormatInt(gj.ID, 10), model.InferWorkType(location))
		job.Company = a.companyName
		job.Title = gj.Title
		job.Description = gj.Content
		job.Location = location
		job.URL = gj.AbsoluteURL
		job.PostedAt = model.StringPtr(gj.UpdatedAt)

		jobs = append(jobs, job)
	}

	return jobs, nil
}
