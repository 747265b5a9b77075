package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthorized missing or invalid bearer token
var ErrUnauthorized = errors.New("Missing or invalid credentials")

// ErrNoCustomer no billing customer exists for the user's email
var ErrNoCustomer = errors.New("No billing customer for this account")

// RemoteError wraps a failed data store query. The progress store keeps its
// last-known-good snapshot when it sees one of these.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("data store: %s: %s", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ProviderError wraps a failed billing provider call.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("billing provider: %s: %s", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// InitializationError bulk seeding of lesson records failed. The user may
// hold zero or partial records; retrying Initialize is safe because it only
// inserts catalog lessons with no existing row.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialize progress: %s", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }
