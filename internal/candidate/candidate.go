package candidate

import (
	"time"

	"github.com/google/uuid"
)

// Status tiers assigned by the scorer.
const (
	StatusShortlisted  = "shortlisted"
	StatusUnderReview  = "under_review"
	StatusNotQualified = "not_qualified"
)

// Summary is one ranked candidate for a screening job. Summaries are
// created in a batch when scoring completes and are immutable afterwards.
type Summary struct {
	ID              uuid.UUID `json:"id"`
	JobID           uuid.UUID `json:"job_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	ExperienceYears int       `json:"experience_years"`
	Skills          string    `json:"skills"`
	MatchScore      float64   `json:"match_score"`
	Status          string    `json:"status"`
	Reasoning       string    `json:"reasoning"`
	CreatedAt       time.Time `json:"created_at"`
}
