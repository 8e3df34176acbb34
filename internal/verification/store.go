package verification

import (
	"context"

	"github.com/google/uuid"
)

// Store persists one-time codes. Lookup matches on the (email, code)
// pair; several codes may be outstanding for the same email at once.
// Find does not delete: validation and consumption are separate steps,
// the registry deletes after a successful claim.
type Store interface {
	Create(ctx context.Context, code *Code) error
	Find(ctx context.Context, email, code string) (*Code, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
