package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"paycore/internal/domain/core"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateSchedule(ctx context.Context, tenantID string, schedule Schedule) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO pay_schedules (tenant_id, name, frequency)
    VALUES ($1, $2, $3)
    RETURNING id
  `, tenantID, schedule.Name, schedule.Frequency).Scan(&id)
	return id, err
}

func (s *Store) ListSchedules(ctx context.Context, tenantID string) ([]Schedule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, frequency, created_at
    FROM pay_schedules
    WHERE tenant_id = $1
    ORDER BY created_at
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		var schedule Schedule
		if err := rows.Scan(&schedule.ID, &schedule.Name, &schedule.Frequency, &schedule.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, schedule)
	}
	return out, nil
}

func (s *Store) GetSchedule(ctx context.Context, tenantID, scheduleID string) (Schedule, error) {
	var schedule Schedule
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, frequency, created_at
    FROM pay_schedules
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, scheduleID).Scan(&schedule.ID, &schedule.Name, &schedule.Frequency, &schedule.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Schedule{}, ErrScheduleNotFound
	}
	return schedule, err
}

func (s *Store) CreatePeriod(ctx context.Context, tenantID string, period Period) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO pay_periods (tenant_id, schedule_id, period_start, period_end, pay_date)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, tenantID, period.ScheduleID, period.PeriodStart, period.PeriodEnd, period.PayDate).Scan(&id)
	return id, err
}

func (s *Store) GetPeriod(ctx context.Context, tenantID, periodID string) (Period, error) {
	var period Period
	err := s.DB.QueryRow(ctx, `
    SELECT id, schedule_id, period_start, period_end, pay_date, created_at
    FROM pay_periods
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, periodID).Scan(&period.ID, &period.ScheduleID, &period.PeriodStart,
		&period.PeriodEnd, &period.PayDate, &period.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return period, err
}

func (s *Store) ListPeriods(ctx context.Context, tenantID, scheduleID string) ([]Period, error) {
	query := `
    SELECT id, schedule_id, period_start, period_end, pay_date, created_at
    FROM pay_periods
    WHERE tenant_id = $1`
	args := []any{tenantID}
	if scheduleID != "" {
		query += ` AND schedule_id = $2`
		args = append(args, scheduleID)
	}
	query += ` ORDER BY period_start DESC`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Period
	for rows.Next() {
		var period Period
		if err := rows.Scan(&period.ID, &period.ScheduleID, &period.PeriodStart,
			&period.PeriodEnd, &period.PayDate, &period.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, period)
	}
	return out, nil
}

// CreateRun inserts a draft run. At most one non-cancelled regular run may
// exist per period; a partial unique index backs the check against races.
func (s *Store) CreateRun(ctx context.Context, tenantID, periodID, runType, createdBy string) (string, error) {
	if runType == RunTypeRegular {
		var exists bool
		if err := s.DB.QueryRow(ctx, `
      SELECT EXISTS (
        SELECT 1 FROM payroll_runs
        WHERE tenant_id = $1 AND period_id = $2 AND run_type = $3 AND status <> $4
      )
    `, tenantID, periodID, RunTypeRegular, StatusCancelled).Scan(&exists); err != nil {
			return "", err
		}
		if exists {
			return "", ErrDuplicateRun
		}
	}

	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_runs (tenant_id, period_id, run_type, status, created_by)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, tenantID, periodID, runType, StatusDraft, createdBy).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateRun
		}
		return "", err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const runColumns = `
    id, period_id, run_type, status, employee_count, total_gross_pay,
    total_net_pay, total_taxes, total_deductions, anomaly_count,
    calculated_at, COALESCE(approved_by::text, ''), approved_at, posted_at,
    COALESCE(journal_entry_id::text, ''), created_by, created_at`

func (s *Store) GetRun(ctx context.Context, tenantID, runID string) (Run, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+runColumns+" FROM payroll_runs WHERE tenant_id = $1 AND id = $2", tenantID, runID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

func (s *Store) ListRuns(ctx context.Context, tenantID string, status Status) ([]Run, error) {
	query := "SELECT" + runColumns + " FROM payroll_runs WHERE tenant_id = $1"
	args := []any{tenantID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.PeriodID, &run.RunType, &run.Status,
		&run.EmployeeCount, &run.TotalGrossPay, &run.TotalNetPay, &run.TotalTaxes,
		&run.TotalDeductions, &run.AnomalyCount, &run.CalculatedAt, &run.ApprovedBy,
		&run.ApprovedAt, &run.PostedAt, &run.JournalEntryID, &run.CreatedBy,
		&run.CreatedAt)
	return run, err
}

// TransitionStatus moves a run between statuses with a compare-and-set: the
// update succeeds only while the run is still in one of the expected states.
// On a miss the run's live status is folded into the StateError.
func (s *Store) TransitionStatus(ctx context.Context, tenantID, runID string, from []Status, to Status) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_runs SET status = $1
    WHERE tenant_id = $2 AND id = $3 AND status = ANY($4)
  `, to, tenantID, runID, statusStrings(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.transitionMiss(ctx, tenantID, runID, to)
	}
	return nil
}

// SetApproved records approval atomically with the status move.
func (s *Store) SetApproved(ctx context.Context, tenantID, runID, approvedBy string, from []Status) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_runs SET status = $1, approved_by = $2, approved_at = now()
    WHERE tenant_id = $3 AND id = $4 AND status = ANY($5)
  `, StatusApproved, approvedBy, tenantID, runID, statusStrings(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.transitionMiss(ctx, tenantID, runID, StatusApproved)
	}
	return nil
}

// FinishCalculation publishes the calculation totals and flips the run to
// calculated, guarded against a concurrent cancel.
func (s *Store) FinishCalculation(ctx context.Context, tx pgx.Tx, tenantID, runID string, run Run) error {
	tag, err := tx.Exec(ctx, `
    UPDATE payroll_runs
    SET status = $1, employee_count = $2, total_gross_pay = $3,
        total_net_pay = $4, total_taxes = $5, total_deductions = $6,
        anomaly_count = $7, calculated_at = now()
    WHERE tenant_id = $8 AND id = $9 AND status = $10
  `, StatusCalculated, run.EmployeeCount, run.TotalGrossPay, run.TotalNetPay,
		run.TotalTaxes, run.TotalDeductions, run.AnomalyCount, tenantID, runID,
		StatusCalculating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &StateError{From: StatusCalculating, To: StatusCalculated}
	}
	return nil
}

// MarkPosted stamps the run posted inside the posting transaction.
func (s *Store) MarkPosted(ctx context.Context, tx pgx.Tx, tenantID, runID, journalEntryID string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE payroll_runs SET status = $1, posted_at = now(), journal_entry_id = $2
    WHERE tenant_id = $3 AND id = $4 AND status = $5
  `, StatusPosted, journalEntryID, tenantID, runID, StatusPosting)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &StateError{From: StatusPosting, To: StatusPosted}
	}
	return nil
}

func (s *Store) transitionMiss(ctx context.Context, tenantID, runID string, to Status) error {
	var current Status
	err := s.DB.QueryRow(ctx, `
    SELECT status FROM payroll_runs WHERE tenant_id = $1 AND id = $2
  `, tenantID, runID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRunNotFound
	}
	if err != nil {
		return err
	}
	return &StateError{From: current, To: to}
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}

// EmployeeSnapshot is what the calculator needs to know about an employee.
type EmployeeSnapshot struct {
	ID        string
	FirstName string
	LastName  string
	StateCode string
	YTDGross  float64
	Profile   core.TaxSetup
}

// ListActiveEmployees returns the employees eligible for a run as of the
// period end, with their withholding profiles and posted YTD gross.
func (s *Store) ListActiveEmployees(ctx context.Context, tenantID string, periodEnd time.Time) ([]EmployeeSnapshot, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.first_name, e.last_name, e.state_code, e.filing_status,
           e.allowances, e.w4_step2, e.w4_dependents_amount, e.w4_other_income,
           e.w4_deductions, e.exempt_federal, e.exempt_state, e.exempt_fica,
           COALESCE((
             SELECT SUM(pre.gross_pay)
             FROM payroll_run_employees pre
             JOIN payroll_runs pr ON pr.id = pre.run_id
             JOIN pay_periods pp ON pp.id = pr.period_id
             WHERE pre.employee_id = e.id AND pr.status = 'posted'
               AND date_part('year', pp.pay_date) = date_part('year', $3::date)
           ), 0)
    FROM employees e
    WHERE e.tenant_id = $1 AND e.employment_status = $2
    ORDER BY e.last_name, e.first_name
  `, tenantID, core.EmployeeStatusActive, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmployeeSnapshot
	for rows.Next() {
		var e EmployeeSnapshot
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.StateCode,
			&e.Profile.FilingStatus, &e.Profile.Allowances, &e.Profile.W4Step2,
			&e.Profile.W4DependentsAmount, &e.Profile.W4OtherIncome,
			&e.Profile.W4Deductions, &e.Profile.ExemptFederal,
			&e.Profile.ExemptState, &e.Profile.ExemptFICA, &e.YTDGross); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
