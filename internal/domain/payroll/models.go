package payroll

import "time"

type Schedule struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Frequency string    `json:"frequency"`
	CreatedAt time.Time `json:"createdAt"`
}

type Period struct {
	ID          string    `json:"id"`
	ScheduleID  string    `json:"scheduleId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	PayDate     time.Time `json:"payDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Run struct {
	ID              string     `json:"id"`
	PeriodID        string     `json:"periodId"`
	RunType         string     `json:"runType"`
	Status          Status     `json:"status"`
	EmployeeCount   int        `json:"employeeCount"`
	TotalGrossPay   float64    `json:"totalGrossPay"`
	TotalNetPay     float64    `json:"totalNetPay"`
	TotalTaxes      float64    `json:"totalTaxes"`
	TotalDeductions float64    `json:"totalDeductions"`
	AnomalyCount    int        `json:"anomalyCount"`
	CalculatedAt    *time.Time `json:"calculatedAt"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt"`
	PostedAt        *time.Time `json:"postedAt"`
	JournalEntryID  string     `json:"journalEntryId,omitempty"`
	CreatedBy       string     `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// RunEmployee is one employee's calculated result inside a run, with its
// child earning, tax and deduction lines.
type RunEmployee struct {
	ID           string       `json:"id"`
	EmployeeID   string       `json:"employeeId"`
	EmployeeName string       `json:"employeeName"`
	GrossPay     float64      `json:"grossPay"`
	NetPay       float64      `json:"netPay"`
	EmployeeTax  float64      `json:"employeeTax"`
	EmployerTax  float64      `json:"employerTax"`
	Deductions   float64      `json:"deductions"`
	Anomalies    []string     `json:"anomalies,omitempty"`
	Earnings     []Earning    `json:"earnings"`
	Taxes        []Tax        `json:"taxes"`
	DeductionLns []DeductLine `json:"deductionLines"`
}

type Earning struct {
	Type   string  `json:"type"`
	Hours  float64 `json:"hours,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	Amount float64 `json:"amount"`
}

// Tax is one withholding line. Rate is the flat rate applied to the taxable
// wages; bracket-based taxes leave it zero.
type Tax struct {
	Type         string  `json:"type"`
	TaxableWages float64 `json:"taxableWages"`
	Rate         float64 `json:"rate,omitempty"`
	Amount       float64 `json:"amount"`
	EmployerPaid bool    `json:"employerPaid"`
}

type DeductLine struct {
	EnrollmentID  string  `json:"enrollmentId"`
	DeductionType string  `json:"deductionType"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	EmployerMatch float64 `json:"employerMatch"`
}

// HoursInput supplies worked hours for an hourly employee when calculating a
// run. Salaried and commission employees need no input.
type HoursInput struct {
	EmployeeID    string  `json:"employeeId"`
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
}

// RegisterRow is one line of the payroll register export.
type RegisterRow struct {
	EmployeeName string
	EmployeeID   string
	GrossPay     float64
	FederalTax   float64
	StateTax     float64
	FICA         float64
	Deductions   float64
	NetPay       float64
}
