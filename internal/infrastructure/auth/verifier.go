package auth

import (
	"context"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
)

// Principal is the authenticated identity behind a bearer token. ID keys
// metadata tagging, Email keys billing customer lookups.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier turns a bearer token into a Principal or domain.ErrUnauthorized.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// ErrUnauthorized re-exported for handler convenience
var ErrUnauthorized = domain.ErrUnauthorized
