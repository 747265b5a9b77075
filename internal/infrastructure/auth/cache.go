package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/driver"
)

// CachedVerifier wraps another Verifier with a KV cache so hot tokens skip
// repeated verification. Keys are token digests, never raw tokens.
type CachedVerifier struct {
	next Verifier
	kv   driver.KeyValueDB
	ttl  time.Duration
}

var _ Verifier = &CachedVerifier{}

// NewCachedVerifier create a CachedVerifier instance
func NewCachedVerifier(next Verifier, kv driver.KeyValueDB, ttl time.Duration) *CachedVerifier {
	return &CachedVerifier{next: next, kv: kv, ttl: ttl}
}

// Verify check the cache first, fall back to the wrapped verifier. Cache
// failures degrade to a plain verification, they never fail the request.
func (cv *CachedVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	key := cacheKey(token)
	if cached, err := cv.kv.Get(key); err == nil {
		principal := new(Principal)
		if err := json.Unmarshal([]byte(cached), principal); err == nil {
			return principal, nil
		}
	}

	principal, err := cv.next.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(principal); err == nil {
		cv.kv.SetEX(key, string(encoded), cv.ttl)
	}
	return principal, nil
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:token:" + hex.EncodeToString(sum[:])
}
