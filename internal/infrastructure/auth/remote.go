package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
)

// RemoteVerifier verifies bearer tokens against the auth service's user
// endpoint. Any non-2xx response means the token is invalid.
type RemoteVerifier struct {
	endpoint string
	client   *http.Client
}

var _ Verifier = &RemoteVerifier{}

// NewRemoteVerifier create a RemoteVerifier instance, timeout bounds every
// verification round trip
func NewRemoteVerifier(endpoint string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Verify call the auth endpoint with the token
func (rv *RemoteVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rv.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := rv.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, domain.ErrUnauthorized
	}

	principal := new(Principal)
	if err := json.NewDecoder(res.Body).Decode(principal); err != nil {
		return nil, err
	}
	if principal.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return principal, nil
}
