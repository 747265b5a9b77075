package billing

import (
	"context"
	"time"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/auth"
	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// persistTimeout bounds the best-effort customer-id write-back.
const persistTimeout = 10 * time.Second

// ModeSubscription default checkout mode
const ModeSubscription = "subscription"

// Service bridges an authenticated principal to billing provider
// operations. It holds no per-request state, every call stands alone.
type Service struct {
	Provider          Provider
	Catalog           *Catalog
	ProfileRepository domain.ProfileRepository
	logger            *zap.Logger
}

// NewService ...
func NewService(
	Provider Provider,
	Catalog *Catalog,
	ProfileRepository domain.ProfileRepository,
	logger *zap.Logger,
) *Service {
	return &Service{Provider, Catalog, ProfileRepository, logger}
}

// CreateCheckoutSession open a hosted checkout for the principal, creating
// the billing customer on first purchase. Persisting the customer mapping
// is best-effort and never aborts session creation.
func (s *Service) CreateCheckoutSession(ctx context.Context, principal *auth.Principal, priceID, successURL, cancelURL, mode string) (*domain.CheckoutSession, error) {
	apmSpan, _ := apm.StartSpan(ctx, "billing.Service.CreateCheckoutSession", "service")
	defer apmSpan.End()

	if mode == "" {
		mode = ModeSubscription
	}

	customerID, created, err := s.Provider.EnsureCustomer(ctx, principal.Email, principal.ID)
	if err != nil {
		return nil, err
	}
	if created {
		s.persistCustomerIDAsync(principal.ID, customerID)
	}

	return s.Provider.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		PriceID:    s.Catalog.ResolvePriceID(priceID),
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Mode:       mode,
		UserID:     principal.ID,
	})
}

// CreatePortalSession open the billing portal for an existing customer,
// domain.ErrNoCustomer when the principal never purchased
func (s *Service) CreatePortalSession(ctx context.Context, principal *auth.Principal, returnURL string) (*domain.PortalSession, error) {
	apmSpan, _ := apm.StartSpan(ctx, "billing.Service.CreatePortalSession", "service")
	defer apmSpan.End()

	customerID, err := s.Provider.FindCustomer(ctx, principal.Email)
	if err != nil {
		return nil, err
	}
	return s.Provider.CreatePortalSession(ctx, customerID, returnURL)
}

// GetUserSubscription fetch the principal's active subscription, nil when
// there is no customer or no active subscription. Always a fresh round
// trip, never cached.
func (s *Service) GetUserSubscription(ctx context.Context, principal *auth.Principal) (*domain.SubscriptionView, error) {
	apmSpan, _ := apm.StartSpan(ctx, "billing.Service.GetUserSubscription", "service")
	defer apmSpan.End()

	customerID, err := s.Provider.FindCustomer(ctx, principal.Email)
	if err == domain.ErrNoCustomer {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Provider.ActiveSubscription(ctx, customerID)
}

// ListPlans merge the static plan catalog with live provider prices
func (s *Service) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	apmSpan, _ := apm.StartSpan(ctx, "billing.Service.ListPlans", "service")
	defer apmSpan.End()

	live, err := s.Provider.ListPrices(ctx)
	if err != nil {
		return nil, err
	}
	return s.Catalog.Merge(live), nil
}

// persistCustomerIDAsync write the new customer id back to the profile row,
// failure is logged and never propagated
func (s *Service) persistCustomerIDAsync(userID, customerID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		ctx = logging.SetLoggerInContext(ctx, s.logger)
		if err := s.ProfileRepository.SaveCustomerID(ctx, userID, customerID); err != nil {
			s.logger.Warn("Failed to persist billing customer id",
				zap.String("user.id", userID),
				zap.Error(err),
			)
		}
	}()
}
