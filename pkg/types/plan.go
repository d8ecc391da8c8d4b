package types

// PlanInterval is the billing interval shown to users, e.g. "month" or "3-months".
type PlanInterval string

const PlanIntervalUnknown PlanInterval = "unknown"

// Plan holds the display attributes of a provider plan.
type Plan struct {
	ID         string       `json:"id" mapstructure:"id"`
	Name       string       `json:"name" mapstructure:"name"`
	PriceCents int64        `json:"price_cents" mapstructure:"price_cents"`
	Interval   PlanInterval `json:"interval" mapstructure:"interval"`
}

// UnknownPlan is returned for plan ids missing from the catalog.
var UnknownPlan = Plan{Name: "Unknown Plan", PriceCents: 0, Interval: PlanIntervalUnknown}

// PlanCatalog maps provider plan ids to display attributes. It is read-only once built.
type PlanCatalog map[string]Plan

func NewPlanCatalog(plans []*Plan) PlanCatalog {
	c := make(PlanCatalog, len(plans))
	for _, p := range plans {
		if p == nil || p.ID == "" {
			continue
		}
		c[p.ID] = *p
	}
	return c
}

// Lookup never fails: unrecognized ids resolve to UnknownPlan.
func (c PlanCatalog) Lookup(planID string) Plan {
	if p, ok := c[planID]; ok {
		return p
	}
	p := UnknownPlan
	p.ID = planID
	return p
}

// DefaultPlans is the catalog used when the config does not declare one.
func DefaultPlans() []*Plan {
	return []*Plan{
		{ID: "plan_VWsf3Cik0o7Vj", Name: "4-Week Plan", PriceCents: 1999, Interval: "month"},
		{ID: "plan_CGt8PI0ipZ9vR", Name: "12-Week Plan", PriceCents: 3999, Interval: "3-months"},
		{ID: "plan_KJiJ7FZ8lj9OR", Name: "24-Week Plan", PriceCents: 5999, Interval: "6-months"},
	}
}
