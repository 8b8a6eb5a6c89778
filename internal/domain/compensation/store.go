package compensation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// ResolveForPeriod returns the compensation record effective on the period,
// preferring the most recent effectiveFrom. ErrNoCompensation means the
// employee is simply not yet compensated, not a failure.
func (s *Store) ResolveForPeriod(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) (Record, error) {
	var record Record
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, pay_type, pay_rate, pay_frequency, standard_hours,
           effective_from, effective_to, created_at
    FROM compensation_records
    WHERE tenant_id = $1 AND employee_id = $2
      AND effective_from <= $3
      AND (effective_to IS NULL OR effective_to >= $4)
    ORDER BY effective_from DESC
    LIMIT 1
  `, tenantID, employeeID, periodEnd, periodStart).Scan(
		&record.ID, &record.EmployeeID, &record.PayType, &record.PayRate,
		&record.PayFrequency, &record.StandardHours, &record.EffectiveFrom,
		&record.EffectiveTo, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNoCompensation
	}
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *Store) ListRecords(ctx context.Context, tenantID, employeeID string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, pay_type, pay_rate, pay_frequency, standard_hours,
           effective_from, effective_to, created_at
    FROM compensation_records
    WHERE tenant_id = $1 AND employee_id = $2
    ORDER BY effective_from DESC
  `, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(&record.ID, &record.EmployeeID, &record.PayType,
			&record.PayRate, &record.PayFrequency, &record.StandardHours,
			&record.EffectiveFrom, &record.EffectiveTo, &record.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// CreateRecord closes the currently open record the day before the new
// record's start and inserts the new open record, in one transaction. A
// reader never observes two open records or zero open records.
func (s *Store) CreateRecord(ctx context.Context, tenantID string, record Record) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var openID string
	var openFrom time.Time
	err = tx.QueryRow(ctx, `
    SELECT id, effective_from
    FROM compensation_records
    WHERE tenant_id = $1 AND employee_id = $2 AND effective_to IS NULL
    FOR UPDATE
  `, tenantID, record.EmployeeID).Scan(&openID, &openFrom)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	if openID != "" {
		if err := ValidateSuccession(openFrom, record.EffectiveFrom); err != nil {
			return "", err
		}
		if _, err := tx.Exec(ctx, `
      UPDATE compensation_records SET effective_to = $1 WHERE id = $2
    `, CloseDate(record.EffectiveFrom), openID); err != nil {
			return "", err
		}
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO compensation_records
      (tenant_id, employee_id, pay_type, pay_rate, pay_frequency, standard_hours, effective_from)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, tenantID, record.EmployeeID, record.PayType, record.PayRate,
		record.PayFrequency, record.StandardHours, record.EffectiveFrom).Scan(&id); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListDeductions(ctx context.Context, tenantID, employeeID string) ([]Deduction, error) {
	rows, err := s.DB.Query(ctx, deductionSelect+`
    WHERE tenant_id = $1 AND employee_id = $2
    ORDER BY created_at DESC
  `, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeductions(rows)
}

// ActiveDeductionsForPeriod returns the enrollments in effect for a pay
// period. Garnishments come first in ascending priority; voluntary deductions
// follow in enrollment order.
func (s *Store) ActiveDeductionsForPeriod(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) ([]Deduction, error) {
	rows, err := s.DB.Query(ctx, deductionSelect+`
    WHERE tenant_id = $1 AND employee_id = $2
      AND is_active = true
      AND effective_from <= $3
      AND (effective_to IS NULL OR effective_to >= $4)
    ORDER BY (category <> 'garnishment'), garnishment_priority, created_at
  `, tenantID, employeeID, periodEnd, periodStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeductions(rows)
}

// CreateDeduction rejects a second active enrollment of the same type for the
// employee. A partial unique index backs the check against concurrent creates.
func (s *Store) CreateDeduction(ctx context.Context, tenantID string, deduction Deduction) (string, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM employee_deductions
      WHERE tenant_id = $1 AND employee_id = $2 AND deduction_type = $3 AND is_active = true
    )
  `, tenantID, deduction.EmployeeID, deduction.DeductionType).Scan(&exists); err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicateEnrollment
	}

	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employee_deductions (
      tenant_id, employee_id, deduction_type, category, calculation_method,
      amount, rate, per_period_limit, annual_limit, employer_match_rate,
      garnishment_case_number, garnishment_priority, effective_from, is_active
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,true)
    RETURNING id
  `, tenantID, deduction.EmployeeID, deduction.DeductionType, deduction.Category,
		deduction.CalculationMethod, deduction.Amount, deduction.Rate,
		deduction.PerPeriodLimit, deduction.AnnualLimit, deduction.EmployerMatchRate,
		nullIfEmpty(deduction.GarnishmentCaseNumber), deduction.GarnishmentPriority,
		deduction.EffectiveFrom).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicateEnrollment
		}
		return "", err
	}
	return id, nil
}

// EndDeduction terminates an enrollment. Termination is one-way; the row is
// kept for the audit trail and YTD history.
func (s *Store) EndDeduction(ctx context.Context, tenantID, employeeID, deductionID string, effectiveTo time.Time) error {
	var isActive bool
	err := s.DB.QueryRow(ctx, `
    SELECT is_active
    FROM employee_deductions
    WHERE tenant_id = $1 AND employee_id = $2 AND id = $3
  `, tenantID, employeeID, deductionID).Scan(&isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDeductionNotFound
	}
	if err != nil {
		return err
	}
	if !isActive {
		return ErrDeductionEnded
	}

	_, err = s.DB.Exec(ctx, `
    UPDATE employee_deductions
    SET effective_to = $1, is_active = false
    WHERE tenant_id = $2 AND id = $3 AND is_active = true
  `, effectiveTo, tenantID, deductionID)
	return err
}

const deductionSelect = `
    SELECT id, employee_id, deduction_type, category, calculation_method,
           amount, rate, per_period_limit, annual_limit, ytd_amount,
           employer_match_rate, COALESCE(garnishment_case_number, ''),
           garnishment_priority, effective_from, effective_to, is_active, created_at
    FROM employee_deductions`

func scanDeductions(rows pgx.Rows) ([]Deduction, error) {
	var out []Deduction
	for rows.Next() {
		var d Deduction
		if err := rows.Scan(&d.ID, &d.EmployeeID, &d.DeductionType, &d.Category,
			&d.CalculationMethod, &d.Amount, &d.Rate, &d.PerPeriodLimit,
			&d.AnnualLimit, &d.YTDAmount, &d.EmployerMatchRate,
			&d.GarnishmentCaseNumber, &d.GarnishmentPriority,
			&d.EffectiveFrom, &d.EffectiveTo, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
