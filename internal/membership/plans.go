package membership

import "time"

type Plan struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Price         int           `json:"price"`
	Description   string        `json:"description"`
	Features      []string      `json:"features"`
	BillingCycle  string        `json:"billingCycle"`
	OriginalPrice int           `json:"originalPrice,omitempty"`
	Popular       bool          `json:"popular,omitempty"`
	Validity      time.Duration `json:"-"`
}

const DefaultPlanID = "annual"

const day = 24 * time.Hour

var baseFeatures = []string{
	"Access to all workshops",
	"Unlimited workshop registrations",
	"Advanced analytics",
}

func withFeatures(extra ...string) []string {
	out := make([]string, 0, len(baseFeatures)+len(extra))
	out = append(out, baseFeatures...)
	return append(out, extra...)
}

var catalog = []Plan{
	{
		ID:           "monthly",
		Name:         "Monthly",
		Price:        99,
		Description:  "Perfect for trying out premium features",
		Features:     withFeatures("Priority support", "Certificate generation", "Ad-free experience"),
		BillingCycle: "/month",
		Validity:     30 * day,
	},
	{
		ID:            "quarterly",
		Name:          "Quarterly",
		Price:         249,
		Description:   "Save 16% compared to monthly",
		Features:      withFeatures("Priority support", "Certificate generation", "Ad-free experience", "Exclusive quarterly webinars"),
		BillingCycle:  "/3 months",
		OriginalPrice: 297,
		Validity:      90 * day,
	},
	{
		ID:          "annual",
		Name:        "Annual",
		Price:       999,
		Description: "Best value - Save 17% annually",
		Features: withFeatures(
			"Priority 24/7 support",
			"Certificate generation",
			"Ad-free experience",
			"Exclusive monthly webinars",
			"Personal learning coach access",
			"Early access to new courses",
		),
		BillingCycle:  "/year",
		OriginalPrice: 1188,
		Popular:       true,
		Validity:      365 * day,
	},
}

// Plans returns the catalog in display order.
func Plans() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

func FindPlan(id string) (Plan, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
