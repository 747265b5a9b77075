package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kartuli-app/kartuli-backend/internal/billing"
	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/auth"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/validate"
	ihttp "github.com/kartuli-app/kartuli-backend/internal/interfaces/http"
	"github.com/kartuli-app/kartuli-backend/internal/interfaces/http/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingProvider struct {
	calls        int
	subscription *domain.SubscriptionView
}

func (r *recordingProvider) FindCustomer(ctx context.Context, email string) (string, error) {
	r.calls++
	return "cus_1", nil
}

func (r *recordingProvider) EnsureCustomer(ctx context.Context, email, userID string) (string, bool, error) {
	r.calls++
	return "cus_1", false, nil
}

func (r *recordingProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*domain.CheckoutSession, error) {
	r.calls++
	return &domain.CheckoutSession{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil
}

func (r *recordingProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*domain.PortalSession, error) {
	r.calls++
	return &domain.PortalSession{URL: "https://portal.example.com/cus_1"}, nil
}

func (r *recordingProvider) ActiveSubscription(ctx context.Context, customerID string) (*domain.SubscriptionView, error) {
	r.calls++
	return r.subscription, nil
}

func (r *recordingProvider) ListPrices(ctx context.Context) (map[string][]domain.PlanPrice, error) {
	r.calls++
	return map[string][]domain.PlanPrice{}, nil
}

type nopProfileRepo struct{}

func (nopProfileRepo) Get(ctx context.Context, userID string) (*domain.ProfileAggregate, error) {
	return nil, nil
}
func (nopProfileRepo) SaveAggregate(ctx context.Context, userID string, lessonsCompleted, totalStudyTime int) error {
	return nil
}
func (nopProfileRepo) ResetCounters(ctx context.Context, userID string) error { return nil }
func (nopProfileRepo) SaveCustomerID(ctx context.Context, userID, customerID string) error {
	return nil
}

func newBillingContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetPrincipal(c, &auth.Principal{ID: "user-1", Email: "student@example.com"})
	return c, rec
}

func newBillingHandler(provider billing.Provider) *ihttp.BillingHandler {
	svc := billing.NewService(provider, billing.NewCatalog("price_monthly", "price_annual"), nopProfileRepo{}, zap.NewNop())
	return ihttp.NewBillingHandler(svc, validate.NewValidator())
}

func TestCheckoutSessionValidatesBeforeProviderCall(t *testing.T) {
	provider := &recordingProvider{}
	handler := newBillingHandler(provider)

	c, rec := newBillingContext(t, http.MethodPost, "/api/v1/billing/checkout-session",
		`{"price_id":"premium","cancel_url":"https://app.example.com/cancel"}`)
	require.NoError(t, handler.HandleCreateCheckoutSession(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, provider.calls)
	assert.Contains(t, rec.Body.String(), "success_url")
}

func TestCheckoutSessionReturnsSession(t *testing.T) {
	provider := &recordingProvider{}
	handler := newBillingHandler(provider)

	c, rec := newBillingContext(t, http.MethodPost, "/api/v1/billing/checkout-session",
		`{"price_id":"premium","success_url":"https://app.example.com/ok","cancel_url":"https://app.example.com/cancel"}`)
	require.NoError(t, handler.HandleCreateCheckoutSession(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cs_1")
}

func TestPortalSessionRequiresReturnURL(t *testing.T) {
	provider := &recordingProvider{}
	handler := newBillingHandler(provider)

	c, rec := newBillingContext(t, http.MethodPost, "/api/v1/billing/portal-session", `{}`)
	require.NoError(t, handler.HandleCreatePortalSession(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, provider.calls)
}

func TestGetSubscriptionNullWhenNone(t *testing.T) {
	provider := &recordingProvider{}
	handler := newBillingHandler(provider)

	c, rec := newBillingContext(t, http.MethodGet, "/api/v1/billing/subscription", "")
	require.NoError(t, handler.HandleGetSubscription(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subscription":null}`, rec.Body.String())
}

func TestListPlansAlwaysReturnsCatalog(t *testing.T) {
	provider := &recordingProvider{}
	handler := newBillingHandler(provider)

	c, rec := newBillingContext(t, http.MethodGet, "/api/v1/billing/plans", "")
	require.NoError(t, handler.HandleListPlans(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"free"`)
	assert.Contains(t, rec.Body.String(), `"premium"`)
}
