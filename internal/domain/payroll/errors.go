package payroll

import "errors"

var (
	ErrRunNotFound         = errors.New("payroll run not found")
	ErrPeriodNotFound      = errors.New("pay period not found")
	ErrScheduleNotFound    = errors.New("pay schedule not found")
	ErrDuplicateRun        = errors.New("a non-cancelled regular run already exists for this period")
	ErrRunNotCalculated    = errors.New("payroll run has no calculation results")
	ErrAnomaliesUnresolved = errors.New("payroll run has unacknowledged anomalies")
	ErrNoEligibleEmployees = errors.New("no active employees eligible for this run")
	ErrMissingHours        = errors.New("hourly employee has no hours input for this period")
	ErrUnknownPayType      = errors.New("unknown pay type on compensation record")
	ErrUnknownPayFrequency = errors.New("unknown pay frequency on compensation record")
)
