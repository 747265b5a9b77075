package billing

import (
	"context"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
)

// CheckoutRequest contains everything needed to open a hosted checkout.
type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Mode       string
	UserID     string // tagged into session metadata
}

// Provider is the minimal billing backend surface the gateway needs. The
// abstraction keeps handlers testable and the vendor swappable.
type Provider interface {
	// FindCustomer returns the customer id for an email, or
	// domain.ErrNoCustomer when none exists.
	FindCustomer(ctx context.Context, email string) (string, error)

	// EnsureCustomer returns the customer id for an email, creating the
	// customer when absent. created reports whether a new customer was made.
	EnsureCustomer(ctx context.Context, email, userID string) (id string, created bool, err error)

	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*domain.CheckoutSession, error)

	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*domain.PortalSession, error)

	// ActiveSubscription returns the flattened view of the customer's first
	// active subscription, or nil when there is none.
	ActiveSubscription(ctx context.Context, customerID string) (*domain.SubscriptionView, error)

	// ListPrices returns live prices grouped by the plan_id tag carried in
	// product metadata. Untagged products are skipped.
	ListPrices(ctx context.Context) (map[string][]domain.PlanPrice, error)
}
