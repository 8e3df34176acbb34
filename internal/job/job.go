package job

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the job state machine: queued -> processing -> completed or
// failed. Terminal states never transition back.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	ErrNotFound            = errors.New("job not found")
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("job description is required")
	ErrQueueFull           = errors.New("scoring queue is full")
)

// Job is one resume-screening run. TokensUsed and Cost stay zero until the
// job completes; they record what the scorer reported.
type Job struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"jd_text"`
	Status      Status    `json:"status"`
	TokensUsed  int       `json:"tokens_used"`
	Cost        float64   `json:"cost"`
	CreatedAt   time.Time `json:"created_at"`
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
