package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database model for user accounts and credit balances.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                 uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Username           string    `bun:"username,notnull,unique"`
	Email              string    `bun:"email,notnull,unique"`
	PasswordHash       string    `bun:"password_hash,notnull"`
	Verified           bool      `bun:"verified,notnull,default:false"`
	FreeTrialRemaining int       `bun:"free_trial_remaining,notnull,default:50"`
	PaidCredits        int       `bun:"paid_credits,notnull,default:0"`
	BillingCustomerID  *string   `bun:"billing_customer_id"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Job is the database model for screening jobs.
type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID      uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"jd_text,notnull"`
	Status      string    `bun:"status,notnull,default:'queued'"`
	TokensUsed  int       `bun:"tokens_used,notnull,default:0"`
	Cost        float64   `bun:"cost,notnull,type:numeric(10,2),default:0"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// CandidateSummary is the database model for ranked candidates.
type CandidateSummary struct {
	bun.BaseModel `bun:"table:candidate_summaries,alias:cs"`

	ID              uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	JobID           uuid.UUID `bun:"job_id,notnull,type:uuid"`
	Name            string    `bun:"name,notnull"`
	Email           string    `bun:"email"`
	Phone           string    `bun:"phone"`
	ExperienceYears int       `bun:"experience_years,notnull,default:0"`
	Skills          string    `bun:"skills"`
	MatchScore      float64   `bun:"match_score,notnull,type:numeric(5,2)"`
	Status          string    `bun:"status,notnull,default:'under_review'"`
	Reasoning       string    `bun:"reasoning"`
	// Rank preserves insertion order within a batch so that equal scores
	// keep a stable ordering across reads.
	Rank      int       `bun:"rank,notnull,default:0"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// JobStats is the database model for per-user usage aggregates.
type JobStats struct {
	bun.BaseModel `bun:"table:job_stats,alias:js"`

	ID              uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID          uuid.UUID `bun:"user_id,notnull,unique,type:uuid"`
	TotalJobs       int       `bun:"total_jobs,notnull,default:0"`
	TotalCandidates int       `bun:"total_candidates,notnull,default:0"`
	TotalTokensUsed int       `bun:"total_tokens_used,notnull,default:0"`
	TotalCost       float64   `bun:"total_cost,notnull,type:numeric(10,2),default:0"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
