package payroll

import "fmt"

// transitions is the full set of legal status moves. Anything absent is
// rejected; there is no way back out of posted or cancelled.
var transitions = map[Status][]Status{
	StatusDraft:       {StatusCalculating, StatusCancelled},
	StatusCalculating: {StatusCalculated, StatusDraft},
	StatusCalculated:  {StatusCalculating, StatusReviewing, StatusApproved, StatusCancelled},
	StatusReviewing:   {StatusCalculating, StatusApproved, StatusCancelled},
	StatusApproved:    {StatusPosting, StatusCancelled},
	StatusPosting:     {StatusPosted, StatusApproved},
	StatusPosted:      {},
	StatusCancelled:   {},
}

// StateError reports an attempted illegal transition with both endpoints, so
// handlers can surface the run's actual state to the caller.
type StateError struct {
	From Status
	To   Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot move payroll run from %s to %s", e.From, e.To)
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a StateError when from -> to is illegal.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &StateError{From: from, To: to}
	}
	return nil
}

// Terminal reports whether a run can never change status again.
func Terminal(status Status) bool {
	return len(transitions[status]) == 0
}
