package compensation

import "time"

const (
	PayTypeHourly     = "hourly"
	PayTypeSalary     = "salary"
	PayTypeCommission = "commission"

	FrequencyWeekly      = "weekly"
	FrequencyBiweekly    = "biweekly"
	FrequencySemimonthly = "semimonthly"
	FrequencyMonthly     = "monthly"

	MethodFixed        = "fixed"
	MethodPercentGross = "percent_gross"
	MethodPercentNet   = "percent_net"

	CategoryBenefit     = "benefit"
	CategoryGarnishment = "garnishment"
	CategoryOther       = "other"
)

// Record is an effective-dated snapshot of an employee's pay terms. At most
// one record per employee is open (EffectiveTo == nil).
type Record struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	PayType       string     `json:"payType"`
	PayRate       float64    `json:"payRate"`
	PayFrequency  string     `json:"payFrequency"`
	StandardHours float64    `json:"standardHours"`
	EffectiveFrom time.Time  `json:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Deduction is an enrollment in a deduction, benefit or garnishment type.
// Ending one is a one-way transition; a replacement requires a new enrollment.
type Deduction struct {
	ID                    string     `json:"id"`
	EmployeeID            string     `json:"employeeId"`
	DeductionType         string     `json:"deductionType"`
	Category              string     `json:"category"`
	CalculationMethod     string     `json:"calculationMethod"`
	Amount                float64    `json:"amount"`
	Rate                  float64    `json:"rate"`
	PerPeriodLimit        float64    `json:"perPeriodLimit"`
	AnnualLimit           float64    `json:"annualLimit"`
	YTDAmount             float64    `json:"ytdAmount"`
	EmployerMatchRate     float64    `json:"employerMatchRate"`
	GarnishmentCaseNumber string     `json:"garnishmentCaseNumber,omitempty"`
	GarnishmentPriority   int        `json:"garnishmentPriority,omitempty"`
	EffectiveFrom         time.Time  `json:"effectiveFrom"`
	EffectiveTo           *time.Time `json:"effectiveTo"`
	IsActive              bool       `json:"isActive"`
	CreatedAt             time.Time  `json:"createdAt"`
}
