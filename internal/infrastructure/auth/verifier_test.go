package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, subject, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.TokenClaims{
		Email: email,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTVerifierAcceptsValidToken(t *testing.T) {
	verifier := auth.NewJWTVerifier("project-secret")
	token := signToken(t, "project-secret", "user-1", "student@example.com")

	principal, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.ID)
	assert.Equal(t, "student@example.com", principal.Email)
}

func TestJWTVerifierRejectsWrongSecret(t *testing.T) {
	verifier := auth.NewJWTVerifier("project-secret")
	token := signToken(t, "other-secret", "user-1", "student@example.com")

	_, err := verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTVerifierRejectsMissingSubject(t *testing.T) {
	verifier := auth.NewJWTVerifier("project-secret")
	token := signToken(t, "project-secret", "", "student@example.com")

	_, err := verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRemoteVerifierForwardsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(&auth.Principal{ID: "user-1", Email: "student@example.com"})
	}))
	defer server.Close()

	verifier := auth.NewRemoteVerifier(server.URL, time.Second)
	principal, err := verifier.Verify(context.Background(), "token-abc")
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, "user-1", principal.ID)
}

func TestRemoteVerifierRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	verifier := auth.NewRemoteVerifier(server.URL, time.Second)
	_, err := verifier.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRemoteVerifierRejectsEmptyPrincipal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&auth.Principal{})
	}))
	defer server.Close()

	verifier := auth.NewRemoteVerifier(server.URL, time.Second)
	_, err := verifier.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	fail bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) SetEX(key string, value string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("kv down")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("kv down")
	}
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (f *fakeKV) Exists(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeKV) Ping() error { return nil }

type countingVerifier struct {
	calls     int
	principal *auth.Principal
	err       error
}

func (c *countingVerifier) Verify(ctx context.Context, token string) (*auth.Principal, error) {
	c.calls++
	return c.principal, c.err
}

func TestCachedVerifierHitsCacheOnSecondCall(t *testing.T) {
	next := &countingVerifier{principal: &auth.Principal{ID: "user-1", Email: "student@example.com"}}
	verifier := auth.NewCachedVerifier(next, newFakeKV(), time.Minute)
	ctx := context.Background()

	first, err := verifier.Verify(ctx, "token-abc")
	require.NoError(t, err)
	second, err := verifier.Verify(ctx, "token-abc")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.ID, second.ID)
}

func TestCachedVerifierDegradesWhenCacheDown(t *testing.T) {
	next := &countingVerifier{principal: &auth.Principal{ID: "user-1"}}
	kv := newFakeKV()
	kv.fail = true
	verifier := auth.NewCachedVerifier(next, kv, time.Minute)

	principal, err := verifier.Verify(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.ID)
}

func TestCachedVerifierDoesNotCacheFailures(t *testing.T) {
	next := &countingVerifier{err: domain.ErrUnauthorized}
	kv := newFakeKV()
	verifier := auth.NewCachedVerifier(next, kv, time.Minute)

	_, err := verifier.Verify(context.Background(), "token-abc")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, kv.data)
}
