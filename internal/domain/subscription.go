package domain

// SubscriptionView is the flattened view of a user's active subscription,
// built from the billing provider's first active subscription and its first
// line item. Never cached, always a fresh round trip.
type SubscriptionView struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	PriceID           string `json:"price_id"`
	ProductID         string `json:"product_id"`
}

// PlanPrice is one live price attached to a plan.
type PlanPrice struct {
	ID         string `json:"id"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
	Interval   string `json:"interval"`
}

// Plan merges the static local plan metadata with live provider prices. A
// plan with no matching provider product keeps an empty price list.
type Plan struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Features    []string    `json:"features"`
	Prices      []PlanPrice `json:"prices"`
}

// CheckoutSession is the provider-hosted checkout flow handle.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PortalSession is the provider-hosted billing portal flow handle.
type PortalSession struct {
	URL string `json:"url"`
}
