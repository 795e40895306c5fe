package pipeline

// EventType distinguishes stream events.
type EventType string

const (
	EventStageStart EventType = "stage_start"
	EventStageEnd   EventType = "stage_end"
	EventComplete   EventType = "complete"
)

// Event is one step of a streamed run. Node, JobsCount and Progress are set
// on stage events; Result only on the final complete event.
type Event struct {
	Type      EventType `json:"type"`
	Node      string    `json:"node,omitempty"`
	JobsCount int       `json:"jobs_count"`
	Progress  string    `json:"progress,omitempty"`
	Result    *Result   `json:"result,omitempty"`
}
