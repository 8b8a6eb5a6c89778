package payroll

import (
	"context"

	"github.com/jackc/pgx/v5"

	"paycore/internal/domain/ledger"
)

// DeleteResults wipes a run's per-employee results ahead of a recalculation.
// Child earning, tax and deduction rows cascade.
func (s *Store) DeleteResults(ctx context.Context, tx pgx.Tx, tenantID, runID string) error {
	_, err := tx.Exec(ctx, `
    DELETE FROM payroll_run_employees WHERE tenant_id = $1 AND run_id = $2
  `, tenantID, runID)
	return err
}

// InsertResult writes one employee's calculated result and its child lines.
func (s *Store) InsertResult(ctx context.Context, tx pgx.Tx, tenantID, runID string, result RunEmployee) error {
	anomalies := result.Anomalies
	if anomalies == nil {
		anomalies = []string{}
	}

	var id string
	err := tx.QueryRow(ctx, `
    INSERT INTO payroll_run_employees (
      tenant_id, run_id, employee_id, gross_pay, net_pay,
      employee_taxes, employer_taxes, total_deductions, anomalies
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, tenantID, runID, result.EmployeeID, result.GrossPay, result.NetPay,
		result.EmployeeTax, result.EmployerTax, result.Deductions,
		anomalies).Scan(&id)
	if err != nil {
		return err
	}

	for _, earning := range result.Earnings {
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_earnings (tenant_id, run_employee_id, earning_type, hours, rate, amount)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, tenantID, id, earning.Type, earning.Hours, earning.Rate, earning.Amount); err != nil {
			return err
		}
	}
	for _, tax := range result.Taxes {
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_taxes (tenant_id, run_employee_id, tax_type, taxable_wages, rate, amount, employer_paid)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, tenantID, id, tax.Type, tax.TaxableWages, tax.Rate, tax.Amount, tax.EmployerPaid); err != nil {
			return err
		}
	}
	for _, line := range result.DeductionLns {
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_deductions (tenant_id, run_employee_id, enrollment_id, deduction_type, category, amount, employer_match)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, tenantID, id, line.EnrollmentID, line.DeductionType, line.Category, line.Amount, line.EmployerMatch); err != nil {
			return err
		}
	}
	return nil
}

// ListResults returns a run's per-employee results with their child lines.
func (s *Store) ListResults(ctx context.Context, tenantID, runID string) ([]RunEmployee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT pre.id, pre.employee_id, e.first_name || ' ' || e.last_name,
           pre.gross_pay, pre.net_pay, pre.employee_taxes, pre.employer_taxes,
           pre.total_deductions, pre.anomalies
    FROM payroll_run_employees pre
    JOIN employees e ON e.id = pre.employee_id
    WHERE pre.tenant_id = $1 AND pre.run_id = $2
    ORDER BY e.last_name, e.first_name
  `, tenantID, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RunEmployee
	index := map[string]int{}
	for rows.Next() {
		var r RunEmployee
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.GrossPay,
			&r.NetPay, &r.EmployeeTax, &r.EmployerTax, &r.Deductions,
			&r.Anomalies); err != nil {
			return nil, err
		}
		index[r.ID] = len(results)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return results, nil
	}

	if err := s.attachEarnings(ctx, tenantID, runID, results, index); err != nil {
		return nil, err
	}
	if err := s.attachTaxes(ctx, tenantID, runID, results, index); err != nil {
		return nil, err
	}
	if err := s.attachDeductions(ctx, tenantID, runID, results, index); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) attachEarnings(ctx context.Context, tenantID, runID string, results []RunEmployee, index map[string]int) error {
	rows, err := s.DB.Query(ctx, `
    SELECT pe.run_employee_id, pe.earning_type, pe.hours, pe.rate, pe.amount
    FROM payroll_earnings pe
    JOIN payroll_run_employees pre ON pre.id = pe.run_employee_id
    WHERE pe.tenant_id = $1 AND pre.run_id = $2
    ORDER BY pe.id
  `, tenantID, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var parentID string
		var earning Earning
		if err := rows.Scan(&parentID, &earning.Type, &earning.Hours, &earning.Rate, &earning.Amount); err != nil {
			return err
		}
		if i, ok := index[parentID]; ok {
			results[i].Earnings = append(results[i].Earnings, earning)
		}
	}
	return rows.Err()
}

func (s *Store) attachTaxes(ctx context.Context, tenantID, runID string, results []RunEmployee, index map[string]int) error {
	rows, err := s.DB.Query(ctx, `
    SELECT pt.run_employee_id, pt.tax_type, pt.taxable_wages, pt.rate, pt.amount, pt.employer_paid
    FROM payroll_taxes pt
    JOIN payroll_run_employees pre ON pre.id = pt.run_employee_id
    WHERE pt.tenant_id = $1 AND pre.run_id = $2
    ORDER BY pt.id
  `, tenantID, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var parentID string
		var tax Tax
		if err := rows.Scan(&parentID, &tax.Type, &tax.TaxableWages, &tax.Rate, &tax.Amount, &tax.EmployerPaid); err != nil {
			return err
		}
		if i, ok := index[parentID]; ok {
			results[i].Taxes = append(results[i].Taxes, tax)
		}
	}
	return rows.Err()
}

func (s *Store) attachDeductions(ctx context.Context, tenantID, runID string, results []RunEmployee, index map[string]int) error {
	rows, err := s.DB.Query(ctx, `
    SELECT pd.run_employee_id, pd.enrollment_id, pd.deduction_type, pd.category, pd.amount, pd.employer_match
    FROM payroll_deductions pd
    JOIN payroll_run_employees pre ON pre.id = pd.run_employee_id
    WHERE pd.tenant_id = $1 AND pre.run_id = $2
    ORDER BY pd.id
  `, tenantID, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var parentID string
		var line DeductLine
		if err := rows.Scan(&parentID, &line.EnrollmentID, &line.DeductionType, &line.Category, &line.Amount, &line.EmployerMatch); err != nil {
			return err
		}
		if i, ok := index[parentID]; ok {
			results[i].DeductionLns = append(results[i].DeductionLns, line)
		}
	}
	return rows.Err()
}

// RegisterRows flattens a run into the payroll register export layout.
func (s *Store) RegisterRows(ctx context.Context, tenantID, runID string) ([]RegisterRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.first_name || ' ' || e.last_name, pre.employee_id, pre.gross_pay,
           COALESCE(SUM(pt.amount) FILTER (WHERE pt.tax_type = 'federal_income'), 0),
           COALESCE(SUM(pt.amount) FILTER (WHERE pt.tax_type = 'state_income'), 0),
           COALESCE(SUM(pt.amount) FILTER (WHERE pt.tax_type IN ('social_security', 'medicare')), 0),
           pre.total_deductions, pre.net_pay
    FROM payroll_run_employees pre
    JOIN employees e ON e.id = pre.employee_id
    LEFT JOIN payroll_taxes pt ON pt.run_employee_id = pre.id AND NOT pt.employer_paid
    WHERE pre.tenant_id = $1 AND pre.run_id = $2
    GROUP BY pre.id, e.first_name, e.last_name, pre.employee_id, pre.gross_pay,
             pre.total_deductions, pre.net_pay
    ORDER BY e.last_name, e.first_name
  `, tenantID, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RegisterRow
	for rows.Next() {
		var row RegisterRow
		if err := rows.Scan(&row.EmployeeName, &row.EmployeeID, &row.GrossPay,
			&row.FederalTax, &row.StateTax, &row.FICA, &row.Deductions,
			&row.NetPay); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// AggregateTotals sums a run's results into the figures a ledger posting is
// built from.
func (s *Store) AggregateTotals(ctx context.Context, tenantID, runID string) (ledger.Totals, error) {
	var totals ledger.Totals
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(pre.gross_pay), 0), COALESCE(SUM(pre.employee_taxes), 0),
           COALESCE(SUM(pre.employer_taxes), 0), COALESCE(SUM(pre.total_deductions), 0),
           COALESCE((
             SELECT SUM(pd.employer_match)
             FROM payroll_deductions pd
             JOIN payroll_run_employees x ON x.id = pd.run_employee_id
             WHERE pd.tenant_id = $1 AND x.run_id = $2
           ), 0),
           COALESCE(SUM(pre.net_pay), 0)
    FROM payroll_run_employees pre
    WHERE pre.tenant_id = $1 AND pre.run_id = $2
  `, tenantID, runID).Scan(&totals.Gross, &totals.EmployeeTaxes,
		&totals.EmployerTaxes, &totals.Deductions, &totals.EmployerMatch,
		&totals.Net)
	return totals, err
}

// AdvanceDeductionYTD rolls each enrollment's YTD total forward by the
// amounts withheld in the run. Called once, inside the posting transaction,
// so recalculating an unposted run never moves YTD state.
func (s *Store) AdvanceDeductionYTD(ctx context.Context, tx pgx.Tx, tenantID, runID string) error {
	_, err := tx.Exec(ctx, `
    UPDATE employee_deductions ed
    SET ytd_amount = ed.ytd_amount + w.amount
    FROM (
      SELECT pd.enrollment_id, SUM(pd.amount) AS amount
      FROM payroll_deductions pd
      JOIN payroll_run_employees pre ON pre.id = pd.run_employee_id
      WHERE pd.tenant_id = $1 AND pre.run_id = $2
      GROUP BY pd.enrollment_id
    ) w
    WHERE ed.id = w.enrollment_id
  `, tenantID, runID)
	return err
}
