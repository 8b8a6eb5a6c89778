package payroll

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusDraft, StatusCalculating},
		{StatusCalculating, StatusCalculated},
		{StatusCalculating, StatusDraft},
		{StatusCalculated, StatusCalculating},
		{StatusCalculated, StatusReviewing},
		{StatusCalculated, StatusApproved},
		{StatusReviewing, StatusApproved},
		{StatusApproved, StatusPosting},
		{StatusPosting, StatusPosted},
		{StatusPosting, StatusApproved},
		{StatusDraft, StatusCancelled},
		{StatusApproved, StatusCancelled},
	}
	for _, move := range allowed {
		if !CanTransition(move.from, move.to) {
			t.Fatalf("%s -> %s should be allowed", move.from, move.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusDraft, StatusApproved},
		{StatusDraft, StatusPosted},
		{StatusCalculated, StatusPosted},
		{StatusPosted, StatusDraft},
		{StatusPosted, StatusCancelled},
		{StatusCancelled, StatusDraft},
		{StatusPosting, StatusCancelled},
	}
	for _, move := range denied {
		if CanTransition(move.from, move.to) {
			t.Fatalf("%s -> %s should be denied", move.from, move.to)
		}
	}
}

func TestCheckTransitionError(t *testing.T) {
	err := CheckTransition(StatusPosted, StatusCancelled)
	if err == nil {
		t.Fatalf("expected error")
	}
	var stateErr *StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %T", err)
	}
	if stateErr.From != StatusPosted || stateErr.To != StatusCancelled {
		t.Fatalf("wrong endpoints: %+v", stateErr)
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(StatusPosted) || !Terminal(StatusCancelled) {
		t.Fatalf("posted and cancelled must be terminal")
	}
	if Terminal(StatusDraft) || Terminal(StatusApproved) {
		t.Fatalf("draft and approved must not be terminal")
	}
}
