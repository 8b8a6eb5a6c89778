package core

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "paycore/internal/platform/crypto"
)

type Store struct {
	DB     *pgxpool.Pool
	crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, crypto: crypto}
}

const employeeColumns = `
    id, first_name, last_name, email, employment_status, payment_method,
    bank_account_enc, state_code, filing_status, allowances, w4_step2,
    w4_dependents_amount, w4_other_income, w4_deductions,
    exempt_federal, exempt_state, exempt_fica, created_at`

func (s *Store) CreateEmployee(ctx context.Context, tenantID string, employee Employee) (string, error) {
	bankEnc, err := s.crypto.Encrypt([]byte(employee.BankAccount))
	if err != nil {
		return "", err
	}

	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      tenant_id, first_name, last_name, email, employment_status,
      payment_method, bank_account_enc, state_code, filing_status, allowances,
      w4_step2, w4_dependents_amount, w4_other_income, w4_deductions,
      exempt_federal, exempt_state, exempt_fica
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
    RETURNING id
  `, tenantID, employee.FirstName, employee.LastName, employee.Email,
		employee.EmploymentStatus, employee.PaymentMethod, bankEnc,
		employee.StateCode, employee.TaxProfile.FilingStatus, employee.TaxProfile.Allowances,
		employee.TaxProfile.W4Step2, employee.TaxProfile.W4DependentsAmount,
		employee.TaxProfile.W4OtherIncome, employee.TaxProfile.W4Deductions,
		employee.TaxProfile.ExemptFederal, employee.TaxProfile.ExemptState,
		employee.TaxProfile.ExemptFICA).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+employeeColumns+" FROM employees WHERE tenant_id = $1 AND id = $2", tenantID, employeeID)
	return s.scanEmployee(row)
}

func (s *Store) ListEmployees(ctx context.Context, tenantID string, limit, offset int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+employeeColumns+`
    FROM employees
    WHERE tenant_id = $1
    ORDER BY last_name, first_name
    LIMIT $2 OFFSET $3
  `, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		employee, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, employee)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanEmployee(row rowScanner) (Employee, error) {
	var employee Employee
	var bankEnc []byte
	if err := row.Scan(
		&employee.ID, &employee.FirstName, &employee.LastName, &employee.Email,
		&employee.EmploymentStatus, &employee.PaymentMethod, &bankEnc,
		&employee.StateCode, &employee.TaxProfile.FilingStatus, &employee.TaxProfile.Allowances,
		&employee.TaxProfile.W4Step2, &employee.TaxProfile.W4DependentsAmount,
		&employee.TaxProfile.W4OtherIncome, &employee.TaxProfile.W4Deductions,
		&employee.TaxProfile.ExemptFederal, &employee.TaxProfile.ExemptState,
		&employee.TaxProfile.ExemptFICA, &employee.CreatedAt,
	); err != nil {
		return Employee{}, err
	}
	if len(bankEnc) > 0 {
		plain, err := s.crypto.Decrypt(bankEnc)
		if err != nil {
			return Employee{}, err
		}
		employee.BankAccount = maskAccount(string(plain))
	}
	return employee, nil
}

// maskAccount keeps the last four digits only; full numbers never leave the
// store layer.
func maskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	return "****" + account[len(account)-4:]
}
