package billing

import "github.com/kartuli-app/kartuli-backend/internal/domain"

// Catalog holds the static plan metadata and the alias-to-price mapping,
// injected from config instead of living as module-level state.
type Catalog struct {
	aliases map[string]string
	plans   []domain.Plan
}

// NewCatalog create the plan catalog. Alias values left empty in config are
// simply not registered, the alias then passes through unresolved.
func NewCatalog(premiumPriceID, premiumAnnualPriceID string) *Catalog {
	aliases := make(map[string]string)
	if premiumPriceID != "" {
		aliases["premium"] = premiumPriceID
	}
	if premiumAnnualPriceID != "" {
		aliases["premium_annual"] = premiumAnnualPriceID
	}
	return &Catalog{
		aliases: aliases,
		plans: []domain.Plan{
			{
				ID:          "free",
				Name:        "Free",
				Description: "Start learning Georgian at no cost",
				Features: []string{
					"Alphabet and pronunciation lessons",
					"Basic vocabulary drills",
					"Progress tracking",
				},
			},
			{
				ID:          "premium",
				Name:        "Premium",
				Description: "The full Georgian course, from greetings to literature",
				Features: []string{
					"All lessons including idioms, proverbs and literature",
					"Grammar deep dives with case drills",
					"Quizzes with scoring and streaks",
					"Priority email support",
				},
			},
		},
	}
}

// ResolvePriceID map a logical alias to the provider price id. Unknown
// aliases pass through unchanged, they are assumed to already be provider
// identifiers.
func (c *Catalog) ResolvePriceID(alias string) string {
	if id, ok := c.aliases[alias]; ok {
		return id
	}
	return alias
}

// Merge attach live prices to the static plans. Plans with no live match
// keep an empty price list rather than being omitted.
func (c *Catalog) Merge(live map[string][]domain.PlanPrice) []domain.Plan {
	merged := make([]domain.Plan, len(c.plans))
	for i, plan := range c.plans {
		plan.Prices = []domain.PlanPrice{}
		if prices, ok := live[plan.ID]; ok {
			plan.Prices = prices
		}
		merged[i] = plan
	}
	return merged
}
