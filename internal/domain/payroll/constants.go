package payroll

// Status is the lifecycle state of a payroll run.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusCalculating Status = "calculating"
	StatusCalculated  Status = "calculated"
	StatusReviewing   Status = "reviewing"
	StatusApproved    Status = "approved"
	StatusPosting     Status = "posting"
	StatusPosted      Status = "posted"
	StatusCancelled   Status = "cancelled"
)

const (
	RunTypeRegular    = "regular"
	RunTypeOffCycle   = "off_cycle"
	RunTypeCorrection = "correction"
)

const (
	EarningRegular    = "regular"
	EarningOvertime   = "overtime"
	EarningCommission = "commission"
)

const (
	TaxFederalIncome    = "federal_income"
	TaxStateIncome      = "state_income"
	TaxSocialSecurity   = "social_security"
	TaxMedicare         = "medicare"
	TaxSocialSecurityER = "social_security_employer"
	TaxMedicareER       = "medicare_employer"
)

// Overtime hours beyond the standard are paid at time and a half.
const OvertimeMultiplier = 1.5
