package user

import (
	"time"

	"github.com/google/uuid"
)

// DefaultFreeTrialCredits is the free-trial balance granted on signup.
const DefaultFreeTrialCredits = 50

type User struct {
	ID                 uuid.UUID `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"` // Never expose password hash in JSON
	Verified           bool      `json:"verified"`
	FreeTrialRemaining int       `json:"free_trial_remaining"`
	PaidCredits        int       `json:"paid_credits"`
	BillingCustomerID  *string   `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}
