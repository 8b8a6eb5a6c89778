package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound   = errors.New("journal entry not found")
	ErrAccountNotFound = errors.New("ledger account not found")
)

// UnbalancedError reports a debit/credit mismatch beyond rounding tolerance.
type UnbalancedError struct {
	Debits  string
	Credits string
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("journal entry does not balance: debits %s, credits %s", e.Debits, e.Credits)
}

// UnresolvedAccountError means a nonzero posting line has no account mapped
// and no fallback code matched.
type UnresolvedAccountError struct {
	MappingType string
}

func (e *UnresolvedAccountError) Error() string {
	return fmt.Sprintf("no ledger account resolves for %s", e.MappingType)
}
