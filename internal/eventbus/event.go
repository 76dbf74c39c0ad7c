package eventbus

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeImportProgress EventType = "import.progress"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	JobID     string      `json:"job_id,omitempty"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	Retries   int         `json:"retries"`
}

// ProgressEvent reports how far an import job has got.
type ProgressEvent struct {
	JobID     string `json:"job_id"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

func NewProgressEvent(jobID string, processed, total int) Event {
	return Event{
		ID:    uuid.New().String(),
		Type:  EventTypeImportProgress,
		JobID: jobID,
		Payload: ProgressEvent{
			JobID:     jobID,
			Processed: processed,
			Total:     total,
		},
		Timestamp: time.Now(),
	}
}
