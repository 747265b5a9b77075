package billing

import (
	"context"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeProvider implements Provider on the official Stripe SDK. Customers
// are keyed by email, the user id travels in metadata only.
type StripeProvider struct {
	sc *client.API
}

var _ Provider = &StripeProvider{}

// NewStripeProvider create a provider bound to one API secret
func NewStripeProvider(secretKey string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProvider{sc: sc}
}

func (p *StripeProvider) FindCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := p.sc.Customers.List(params)
	for it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", &domain.ProviderError{Op: "list customers", Err: err}
	}
	return "", domain.ErrNoCustomer
}

func (p *StripeProvider) EnsureCustomer(ctx context.Context, email, userID string) (string, bool, error) {
	id, err := p.FindCustomer(ctx, email)
	if err == nil {
		return id, false, nil
	}
	if err != domain.ErrNoCustomer {
		return "", false, err
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.AddMetadata("user_id", userID)
	customer, err := p.sc.Customers.New(params)
	if err != nil {
		return "", false, &domain.ProviderError{Op: "create customer", Err: err}
	}
	return customer.ID, true, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(req.CustomerID),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Mode:       stripe.String(req.Mode),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)

	session, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, &domain.ProviderError{Op: "create checkout session", Err: err}
	}
	return &domain.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*domain.PortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := p.sc.BillingPortalSessions.New(params)
	if err != nil {
		return nil, &domain.ProviderError{Op: "create portal session", Err: err}
	}
	return &domain.PortalSession{URL: session.URL}, nil
}

func (p *StripeProvider) ActiveSubscription(ctx context.Context, customerID string) (*domain.SubscriptionView, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := p.sc.Subscriptions.List(params)
	for it.Next() {
		sub := it.Subscription()
		view := &domain.SubscriptionView{
			ID:                sub.ID,
			Status:            string(sub.Status),
			CurrentPeriodEnd:  sub.CurrentPeriodEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 {
			price := sub.Items.Data[0].Price
			if price != nil {
				view.PriceID = price.ID
				if price.Product != nil {
					view.ProductID = price.Product.ID
				}
			}
		}
		return view, nil
	}
	if err := it.Err(); err != nil {
		return nil, &domain.ProviderError{Op: "list subscriptions", Err: err}
	}
	return nil, nil
}

func (p *StripeProvider) ListPrices(ctx context.Context) (map[string][]domain.PlanPrice, error) {
	productParams := &stripe.ProductListParams{Active: stripe.Bool(true)}
	productParams.Context = ctx

	prices := make(map[string][]domain.PlanPrice)
	it := p.sc.Products.List(productParams)
	for it.Next() {
		product := it.Product()
		planID, ok := product.Metadata["plan_id"]
		if !ok || planID == "" {
			continue
		}

		priceParams := &stripe.PriceListParams{
			Product: stripe.String(product.ID),
			Active:  stripe.Bool(true),
		}
		priceParams.Context = ctx
		priceIt := p.sc.Prices.List(priceParams)
		for priceIt.Next() {
			price := priceIt.Price()
			planPrice := domain.PlanPrice{
				ID:         price.ID,
				UnitAmount: price.UnitAmount,
				Currency:   string(price.Currency),
			}
			if price.Recurring != nil {
				planPrice.Interval = string(price.Recurring.Interval)
			}
			prices[planID] = append(prices[planID], planPrice)
		}
		if err := priceIt.Err(); err != nil {
			return nil, &domain.ProviderError{Op: "list prices", Err: err}
		}
	}
	if err := it.Err(); err != nil {
		return nil, &domain.ProviderError{Op: "list products", Err: err}
	}
	return prices, nil
}
