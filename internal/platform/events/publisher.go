package events

import "context"

// Publisher is the outbound event boundary. Downstream consumers (payment
// file generation, reporting warehouses) subscribe to posted-run events;
// publishing failures are never allowed to fail the posting itself.
type Publisher interface {
	Publish(ctx context.Context, event any) error
	Close() error
}

type RunPosted struct {
	TenantID         string  `json:"tenantId"`
	RunID            string  `json:"runId"`
	PeriodID         string  `json:"periodId"`
	JournalEntryID   string  `json:"journalEntryId"`
	TransactionSetID string  `json:"transactionSetId"`
	TotalGrossPay    float64 `json:"totalGrossPay"`
	TotalNetPay      float64 `json:"totalNetPay"`
	EmployeeCount    int     `json:"employeeCount"`
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
