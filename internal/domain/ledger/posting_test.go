package ledger

import (
	"errors"
	"testing"
)

func fullAccounts() map[string]Account {
	return map[string]Account{
		MappingPayrollExpense:    {ID: "a1", Code: "6000", Name: "Payroll Expense"},
		MappingTaxesPayable:      {ID: "a2", Code: "2100", Name: "Payroll Taxes Payable"},
		MappingDeductionsPayable: {ID: "a3", Code: "2300", Name: "Payroll Deductions Payable"},
		MappingNetPayPayable:     {ID: "a4", Code: "2000", Name: "Net Pay Payable"},
	}
}

func TestBuildPostingLinesBalanced(t *testing.T) {
	totals := Totals{
		Gross:         10000,
		EmployeeTaxes: 2000,
		EmployerTaxes: 800,
		Deductions:    500,
		EmployerMatch: 100,
		Net:           7500,
	}
	lines, err := BuildPostingLines(totals, fullAccounts())
	if err != nil {
		t.Fatalf("BuildPostingLines: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[0].Debit != 10900 || lines[0].Credit != 0 {
		t.Fatalf("expense line wrong: %+v", lines[0])
	}
	if lines[1].Credit != 2800 {
		t.Fatalf("taxes payable = %.2f, want 2800.00", lines[1].Credit)
	}
	if lines[2].Credit != 600 {
		t.Fatalf("deductions payable = %.2f, want 600.00", lines[2].Credit)
	}
	if lines[3].Credit != 7500 {
		t.Fatalf("net pay payable = %.2f, want 7500.00", lines[3].Credit)
	}
}

func TestBuildPostingLinesDropsZeroLines(t *testing.T) {
	totals := Totals{
		Gross:         1000,
		EmployeeTaxes: 200,
		Net:           800,
	}
	lines, err := BuildPostingLines(totals, fullAccounts())
	if err != nil {
		t.Fatalf("BuildPostingLines: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines without deductions, got %d", len(lines))
	}
}

func TestBuildPostingLinesUnresolvedAccount(t *testing.T) {
	accounts := fullAccounts()
	delete(accounts, MappingDeductionsPayable)

	totals := Totals{Gross: 1000, EmployeeTaxes: 100, Deductions: 50, Net: 850}
	_, err := BuildPostingLines(totals, accounts)
	var unresolved *UnresolvedAccountError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedAccountError, got %v", err)
	}
	if unresolved.MappingType != MappingDeductionsPayable {
		t.Fatalf("wrong mapping type: %s", unresolved.MappingType)
	}

	// A zero amount for the unmapped slot is fine.
	okTotals := Totals{Gross: 1000, EmployeeTaxes: 100, Net: 900}
	if _, err := BuildPostingLines(okTotals, accounts); err != nil {
		t.Fatalf("zero line should not need an account: %v", err)
	}
}

func TestBuildPostingLinesRejectsNonPositiveNet(t *testing.T) {
	// Deductions exceed gross minus taxes. No net-pay line is posted, so the
	// entry cannot balance and the build fails instead of writing a negative
	// credit.
	totals := Totals{
		Gross:         1000,
		EmployeeTaxes: 300,
		Deductions:    800,
		Net:           -100,
	}
	_, err := BuildPostingLines(totals, fullAccounts())
	var ub *UnbalancedError
	if !errors.As(err, &ub) {
		t.Fatalf("expected UnbalancedError, got %v", err)
	}
	if ub.Debits != "1000.00" || ub.Credits != "1100.00" {
		t.Fatalf("wrong totals in error: %+v", ub)
	}
}

func TestVerifyBalance(t *testing.T) {
	balanced := []JournalLine{
		{Debit: 100.005},
		{Credit: 100.01},
	}
	if err := VerifyBalance(balanced); err != nil {
		t.Fatalf("within tolerance should pass: %v", err)
	}

	unbalanced := []JournalLine{
		{Debit: 100},
		{Credit: 99.90},
	}
	err := VerifyBalance(unbalanced)
	var ub *UnbalancedError
	if !errors.As(err, &ub) {
		t.Fatalf("expected UnbalancedError, got %v", err)
	}
	if ub.Debits != "100.00" || ub.Credits != "99.90" {
		t.Fatalf("wrong totals in error: %+v", ub)
	}
}

func TestBuildPostingLinesManyEmployeesRounding(t *testing.T) {
	// Per-employee cent rounding accumulates; the decimal check still sees
	// the books balance because the totals are built from the same figures.
	totals := Totals{
		Gross:         33333.33,
		EmployeeTaxes: 7407.41,
		EmployerTaxes: 2550.01,
		Deductions:    1234.56,
		EmployerMatch: 617.28,
		Net:           24691.36,
	}
	if _, err := BuildPostingLines(totals, fullAccounts()); err != nil {
		t.Fatalf("BuildPostingLines: %v", err)
	}
}
