package core

import "time"

const (
	EmployeeStatusActive     = "active"
	EmployeeStatusInactive   = "inactive"
	EmployeeStatusTerminated = "terminated"

	FilingSingle  = "single"
	FilingMarried = "married"
	FilingHead    = "head_of_household"

	PaymentMethodDirectDeposit = "direct_deposit"
	PaymentMethodCheck         = "check"
)

type Employee struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	EmploymentStatus string    `json:"employmentStatus"`
	PaymentMethod    string    `json:"paymentMethod"`
	BankAccount      string    `json:"bankAccount,omitempty"`
	StateCode        string    `json:"stateCode"`
	TaxProfile       TaxSetup  `json:"taxProfile"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TaxSetup holds the employee's withholding elections. Allowances apply to
// pre-2020 W-4 forms; the W4* fields to 2020 and later revisions.
type TaxSetup struct {
	FilingStatus       string  `json:"filingStatus"`
	Allowances         int     `json:"allowances"`
	W4Step2            bool    `json:"w4Step2"`
	W4DependentsAmount float64 `json:"w4DependentsAmount"`
	W4OtherIncome      float64 `json:"w4OtherIncome"`
	W4Deductions       float64 `json:"w4Deductions"`
	ExemptFederal      bool    `json:"isExemptFromFederal"`
	ExemptState        bool    `json:"isExemptFromState"`
	ExemptFICA         bool    `json:"isExemptFromFica"`
}
