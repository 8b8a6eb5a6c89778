package compensation

import "errors"

var (
	ErrNoCompensation         = errors.New("no compensation record effective for the period")
	ErrEffectiveBeforeCurrent = errors.New("effective date must be after the current record's effective date")
	ErrDuplicateEnrollment    = errors.New("an active enrollment of this deduction type already exists")
	ErrDeductionNotFound      = errors.New("deduction enrollment not found")
	ErrDeductionEnded         = errors.New("deduction enrollment is already ended")
)
