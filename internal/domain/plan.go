package domain

import "errors"

// Plan identifies a subscription tier.
type Plan string

const (
	PlanTesting      Plan = "testing"
	PlanEssential    Plan = "essential"
	PlanAdvanced     Plan = "advanced"
	PlanProfessional Plan = "professional"
)

// ErrUnknownPlan is returned when a plan identifier is not in the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// planAllotments is the plan catalog: the monthly credit allotment granted
// to each tier on renewal. It is configuration, not data with a lifecycle.
var planAllotments = map[Plan]int{
	PlanTesting:      50,
	PlanEssential:    80,
	PlanAdvanced:     120,
	PlanProfessional: 200,
}

// ValidPlan reports whether p is a known catalog entry.
func ValidPlan(p Plan) bool {
	_, ok := planAllotments[p]
	return ok
}

// AllotmentFor resolves the monthly credit allotment for a plan.
func AllotmentFor(p Plan) (int, error) {
	allotment, ok := planAllotments[p]
	if !ok {
		return 0, ErrUnknownPlan
	}
	return allotment, nil
}

// Plans returns the catalog keys in ascending allotment order.
func Plans() []Plan {
	return []Plan{PlanTesting, PlanEssential, PlanAdvanced, PlanProfessional}
}
