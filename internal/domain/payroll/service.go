package payroll

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"paycore/internal/domain/compensation"
	"paycore/internal/domain/ledger"
	"paycore/internal/platform/db"
	"paycore/internal/platform/events"
	"paycore/internal/platform/metrics"
)

type Service struct {
	store     *Store
	comp      *compensation.Store
	ledger    *ledger.Store
	publisher events.Publisher
	metrics   *metrics.Collector
	db        *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool, store *Store, comp *compensation.Store, ledgerStore *ledger.Store, publisher events.Publisher, collector *metrics.Collector) *Service {
	return &Service{
		store:     store,
		comp:      comp,
		ledger:    ledgerStore,
		publisher: publisher,
		metrics:   collector,
		db:        pool,
	}
}

// Anomaly markers attached to run employees during calculation.
const (
	AnomalyNegativeNet = "negative_net_pay"
	AnomalyZeroGross   = "zero_gross_pay"
)

// Calculate runs (or re-runs) the full calculation for a run. Previous
// results are destroyed and rebuilt inside one transaction under an advisory
// lock, so concurrent calculations of the same run serialize and a reader
// never sees a half-built result set. The run parks in calculating for the
// duration and reverts to its prior status if anything fails.
func (s *Service) Calculate(ctx context.Context, tenantID, runID string, hours []HoursInput) (Run, error) {
	run, err := s.store.GetRun(ctx, tenantID, runID)
	if err != nil {
		return Run{}, err
	}
	if err := CheckTransition(run.Status, StatusCalculating); err != nil {
		return Run{}, err
	}
	period, err := s.store.GetPeriod(ctx, tenantID, run.PeriodID)
	if err != nil {
		return Run{}, err
	}

	prior := run.Status
	if err := s.store.TransitionStatus(ctx, tenantID, runID, []Status{prior}, StatusCalculating); err != nil {
		return Run{}, err
	}

	if err := s.calculateLocked(ctx, tenantID, runID, period, hours); err != nil {
		if revertErr := s.store.TransitionStatus(ctx, tenantID, runID, []Status{StatusCalculating}, prior); revertErr != nil {
			log.Printf("payroll: failed to revert run %s to %s: %v", runID, prior, revertErr)
		}
		return Run{}, err
	}

	s.metrics.RecordCalculation()
	return s.store.GetRun(ctx, tenantID, runID)
}

func (s *Service) calculateLocked(ctx context.Context, tenantID, runID string, period Period, hours []HoursInput) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := db.AdvisoryLock(ctx, tx, "payroll_run:"+runID); err != nil {
		return err
	}
	if err := s.store.DeleteResults(ctx, tx, tenantID, runID); err != nil {
		return err
	}

	employees, err := s.store.ListActiveEmployees(ctx, tenantID, period.PeriodEnd)
	if err != nil {
		return err
	}

	hoursByEmployee := make(map[string]*HoursInput, len(hours))
	for i := range hours {
		hoursByEmployee[hours[i].EmployeeID] = &hours[i]
	}

	var totals Run
	for _, employee := range employees {
		result, ok, err := s.calculateEmployee(ctx, tenantID, employee, period, hoursByEmployee[employee.ID])
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := s.store.InsertResult(ctx, tx, tenantID, runID, result); err != nil {
			return err
		}
		totals.EmployeeCount++
		totals.TotalGrossPay = Round2(totals.TotalGrossPay + result.GrossPay)
		totals.TotalNetPay = Round2(totals.TotalNetPay + result.NetPay)
		totals.TotalTaxes = Round2(totals.TotalTaxes + result.EmployeeTax)
		totals.TotalDeductions = Round2(totals.TotalDeductions + result.Deductions)
		totals.AnomalyCount += len(result.Anomalies)
	}
	if totals.EmployeeCount == 0 {
		return ErrNoEligibleEmployees
	}

	if err := s.store.FinishCalculation(ctx, tx, tenantID, runID, totals); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// calculateEmployee computes one employee's result. Employees without a
// compensation record effective for the period are skipped rather than
// failed; they are simply not on this payroll.
func (s *Service) calculateEmployee(ctx context.Context, tenantID string, employee EmployeeSnapshot, period Period, hoursInput *HoursInput) (RunEmployee, bool, error) {
	comp, err := s.comp.ResolveForPeriod(ctx, tenantID, employee.ID, period.PeriodStart, period.PeriodEnd)
	if errors.Is(err, compensation.ErrNoCompensation) {
		return RunEmployee{}, false, nil
	}
	if err != nil {
		return RunEmployee{}, false, err
	}

	earnings, err := GrossPay(comp, hoursInput)
	if err != nil {
		return RunEmployee{}, false, fmt.Errorf("employee %s: %w", employee.ID, err)
	}
	gross := TotalEarnings(earnings)

	periodsPerYear, err := PeriodsPerYear(comp.PayFrequency)
	if err != nil {
		return RunEmployee{}, false, fmt.Errorf("employee %s: %w", employee.ID, err)
	}
	taxes := ComputeTaxes(employee.Profile, employee.StateCode, gross, periodsPerYear, employee.YTDGross)
	employeeTax := EmployeeTaxTotal(taxes)
	employerTax := EmployerTaxTotal(taxes)

	enrollments, err := s.comp.ActiveDeductionsForPeriod(ctx, tenantID, employee.ID, period.PeriodStart, period.PeriodEnd)
	if err != nil {
		return RunEmployee{}, false, err
	}
	deductionLines := ApplyDeductions(gross, employeeTax, enrollments)
	deductions := DeductionTotal(deductionLines)

	net := Round2(gross - employeeTax - deductions)

	var anomalies []string
	if gross == 0 {
		anomalies = append(anomalies, AnomalyZeroGross)
	}
	if net < 0 {
		anomalies = append(anomalies, AnomalyNegativeNet)
	}

	return RunEmployee{
		EmployeeID:   employee.ID,
		EmployeeName: employee.FirstName + " " + employee.LastName,
		GrossPay:     gross,
		NetPay:       net,
		EmployeeTax:  employeeTax,
		EmployerTax:  employerTax,
		Deductions:   deductions,
		Anomalies:    anomalies,
		Earnings:     earnings,
		Taxes:        taxes,
		DeductionLns: deductionLines,
	}, true, nil
}

// Approve moves a calculated run to approved. Runs carrying anomalies must be
// explicitly acknowledged by the approver.
func (s *Service) Approve(ctx context.Context, tenantID, runID, approvedBy string, acknowledgeAnomalies bool) (Run, error) {
	run, err := s.store.GetRun(ctx, tenantID, runID)
	if err != nil {
		return Run{}, err
	}
	if err := CheckTransition(run.Status, StatusApproved); err != nil {
		return Run{}, err
	}
	if run.CalculatedAt == nil {
		return Run{}, ErrRunNotCalculated
	}
	if run.AnomalyCount > 0 && !acknowledgeAnomalies {
		return Run{}, ErrAnomaliesUnresolved
	}

	if err := s.store.SetApproved(ctx, tenantID, runID, approvedBy, []Status{run.Status}); err != nil {
		return Run{}, err
	}
	return s.store.GetRun(ctx, tenantID, runID)
}

// Post writes the run's balanced journal entry to the general ledger and
// marks the run posted, all in one transaction. Posting an already-posted run
// returns the existing entry unchanged. On failure the run reverts to
// approved so posting can be retried.
func (s *Service) Post(ctx context.Context, tenantID, runID string) (ledger.JournalEntry, error) {
	run, err := s.store.GetRun(ctx, tenantID, runID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if run.Status == StatusPosted {
		return s.ledger.FindEntryForRun(ctx, tenantID, runID)
	}
	if err := CheckTransition(run.Status, StatusPosting); err != nil {
		return ledger.JournalEntry{}, err
	}

	if err := s.store.TransitionStatus(ctx, tenantID, runID, []Status{StatusApproved}, StatusPosting); err != nil {
		// Another request may have won the race and finished.
		if current, getErr := s.store.GetRun(ctx, tenantID, runID); getErr == nil && current.Status == StatusPosted {
			return s.ledger.FindEntryForRun(ctx, tenantID, runID)
		}
		return ledger.JournalEntry{}, err
	}

	entry, err := s.postLocked(ctx, tenantID, runID, run)
	if err != nil {
		if revertErr := s.store.TransitionStatus(ctx, tenantID, runID, []Status{StatusPosting}, StatusApproved); revertErr != nil {
			log.Printf("payroll: failed to revert run %s to approved: %v", runID, revertErr)
		}
		return ledger.JournalEntry{}, err
	}

	s.metrics.RecordPosting()
	s.publishPosted(ctx, tenantID, run, entry)
	return entry, nil
}

func (s *Service) postLocked(ctx context.Context, tenantID, runID string, run Run) (ledger.JournalEntry, error) {
	period, err := s.store.GetPeriod(ctx, tenantID, run.PeriodID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	totals, err := s.store.AggregateTotals(ctx, tenantID, runID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	accounts, err := s.ledger.ResolveAccounts(ctx, tenantID)
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	lines, err := ledger.BuildPostingLines(totals, accounts)
	if err != nil {
		return ledger.JournalEntry{}, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	defer tx.Rollback(ctx)

	entryID, err := s.ledger.InsertPosting(ctx, tx, tenantID, ledger.JournalEntry{
		EntryDate:   period.PayDate,
		Description: fmt.Sprintf("Payroll %s to %s", period.PeriodStart.Format("2006-01-02"), period.PeriodEnd.Format("2006-01-02")),
		SourceType:  ledger.SourcePayrollRun,
		SourceID:    runID,
		Lines:       lines,
	})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := s.store.MarkPosted(ctx, tx, tenantID, runID, entryID); err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := s.store.AdvanceDeductionYTD(ctx, tx, tenantID, runID); err != nil {
		return ledger.JournalEntry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.JournalEntry{}, err
	}

	return s.ledger.GetEntry(ctx, tenantID, entryID)
}

// publishPosted emits the run-posted event. Delivery is best effort; the
// ledger is already the source of truth.
func (s *Service) publishPosted(ctx context.Context, tenantID string, run Run, entry ledger.JournalEntry) {
	posted, err := s.store.GetRun(ctx, tenantID, run.ID)
	if err != nil {
		posted = run
	}
	event := events.RunPosted{
		TenantID:         tenantID,
		RunID:            run.ID,
		PeriodID:         run.PeriodID,
		JournalEntryID:   entry.ID,
		TransactionSetID: entry.TransactionSetID,
		TotalGrossPay:    posted.TotalGrossPay,
		TotalNetPay:      posted.TotalNetPay,
		EmployeeCount:    posted.EmployeeCount,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("payroll: failed to publish run posted event for %s: %v", run.ID, err)
	}
}

// Cancel abandons a run. Posted runs cannot be cancelled; a posted run's
// reversal is a correction run, not a cancellation.
func (s *Service) Cancel(ctx context.Context, tenantID, runID string) (Run, error) {
	run, err := s.store.GetRun(ctx, tenantID, runID)
	if err != nil {
		return Run{}, err
	}
	if err := CheckTransition(run.Status, StatusCancelled); err != nil {
		return Run{}, err
	}
	if err := s.store.TransitionStatus(ctx, tenantID, runID, []Status{run.Status}, StatusCancelled); err != nil {
		return Run{}, err
	}
	return s.store.GetRun(ctx, tenantID, runID)
}
