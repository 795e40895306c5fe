package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
)

// Ensure SlackNotifier implements Notifier.
var _ Notifier = (*SlackNotifier)(nil)

// SlackNotifier posts a run digest to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	topN       int
	homeLabel  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts the top topN jobs of each
// run as one Block Kit message.
func NewSlackNotifier(webhookURL string, topN int, homeLabel string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	if topN <= 0 {
		topN = 10
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		topN:       topN,
		homeLabel:  homeLabel,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends the digest. A run with no jobs sends nothing. A 429 is retried
// once after the Retry-After delay.
func (s *SlackNotifier) Notify(ctx context.Context, res pipeline.Result) error {
	if len(res.Jobs) == 0 {
		return nil
	}

	body, err := json.Marshal(buildPayload(res, s.topN, s.homeLabel))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return fmt.Errorf("post to slack: %w", ctx.Err())
		case <-time.After(retryAfter):
		}
		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack digest sent", "jobs", min(len(res.Jobs), s.topN), "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack digest sent", "jobs", min(len(res.Jobs), s.topN))
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string        `json:"type"`
	Text      *slackText    `json:"text,omitempty"`
	Fields    []slackText   `json:"fields,omitempty"`
	Elements  []slackText   `json:"elements,omitempty"`
	Accessory *slackElement `json:"accessory,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type string    `json:"type"`
	Text slackText `json:"text"`
	URL  string    `json:"url"`
}

// SendTestMessage sends a one-job digest to verify the integration works.
func SendTestMessage(ctx context.Context, n Notifier) error {
	job := model.NewJob("test", "test-001", model.WorkRemote)
	job.Company = "JobRadar Test"
	job.Title = "Test Notification: Integration Verified"
	job.Location = "Everywhere"
	job.URL = "https://remotive.com/remote-jobs"
	job.DistanceMiles = model.Float64Ptr(0)
	return n.Notify(ctx, pipeline.Result{
		Success:       true,
		Jobs:          []model.Job{job},
		TotalFound:    1,
		TotalFiltered: 1,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildPayload(res pipeline.Result, topN int, homeLabel string) slackPayload {
	shown := res.Jobs[:min(len(res.Jobs), topN)]

	headline := fmt.Sprintf("%d commutable jobs", res.TotalFiltered)
	if homeLabel != "" {
		headline += " near " + homeLabel
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "📡 " + headline},
		},
		{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("%d found, showing top %d", res.TotalFound, len(shown))},
			},
		},
		{Type: "divider"},
	}

	for _, j := range shown {
		text := fmt.Sprintf("*%s*\n%s · %s · %s", j.Title, capitalize(j.Company), j.DistanceLabel(), capitalize(string(j.Source)))
		if j.Location != "" {
			text += "\n" + j.Location
		}
		block := slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		}
		if j.URL != "" {
			block.Accessory = &slackElement{
				Type: "button",
				Text: slackText{Type: "plain_text", Text: "View"},
				URL:  j.URL,
			}
		}
		blocks = append(blocks, block)
	}

	if len(res.Errors) > 0 {
		blocks = append(blocks, slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: "⚠️ " + strings.Join(res.Errors, "; ")},
			},
		})
	}

	return slackPayload{Text: headline, Blocks: blocks}
}
