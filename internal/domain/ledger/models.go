package ledger

import "time"

type Account struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AccountType string    `json:"accountType"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Mapping struct {
	ID          string    `json:"id"`
	MappingType string    `json:"mappingType"`
	AccountID   string    `json:"accountId"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type JournalEntry struct {
	ID               string        `json:"id"`
	TransactionSetID string        `json:"transactionSetId"`
	EntryDate        time.Time     `json:"entryDate"`
	Description      string        `json:"description"`
	SourceType       string        `json:"sourceType"`
	SourceID         string        `json:"sourceId"`
	Lines            []JournalLine `json:"lines"`
	CreatedAt        time.Time     `json:"createdAt"`
}

type JournalLine struct {
	ID          string  `json:"id,omitempty"`
	AccountID   string  `json:"accountId"`
	AccountCode string  `json:"accountCode,omitempty"`
	AccountName string  `json:"accountName,omitempty"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Memo        string  `json:"memo,omitempty"`
}

// Totals carries the run aggregates the posting lines are built from.
type Totals struct {
	Gross         float64
	EmployeeTaxes float64
	EmployerTaxes float64
	Deductions    float64
	EmployerMatch float64
	Net           float64
}
