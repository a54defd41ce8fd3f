package domain

// Status is the subscription lifecycle state.
type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
)

// statusTransitions is the explicit transition table for subscription
// status. Renewal and finance edits activate an inactive subscription,
// cancellation is recorded by an administrator, and a canceled customer
// can come back through a new subscription. Anything else is rejected.
var statusTransitions = map[Status][]Status{
	StatusInactive: {StatusActive},
	StatusActive:   {StatusCanceled},
	StatusCanceled: {StatusActive},
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusInactive, StatusActive, StatusCanceled:
		return true
	}
	return false
}

// CanTransition reports whether moving from one status to another is
// allowed. A self-transition is always allowed so that a finance edit
// touching only dates or the payment method does not have to special-case
// an unchanged status.
func CanTransition(from, to Status) bool {
	if from == to {
		return ValidStatus(to)
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
