package ledger

import "github.com/shopspring/decimal"

// balanceTolerance absorbs cent rounding across many employees.
var balanceTolerance = decimal.NewFromFloat(0.01)

// BuildPostingLines assembles the payroll journal entry: one expense debit
// for total employer cost, offset by liability credits for taxes withheld,
// deductions withheld and net pay owed. Zero-amount lines are dropped and a
// non-positive net total posts no net-pay line, so the balance check rejects
// the entry. A nonzero line whose mapping type has no resolved account fails
// the build. Debits and credits are compared exactly in decimal before
// returning.
func BuildPostingLines(totals Totals, accounts map[string]Account) ([]JournalLine, error) {
	expense := totals.Gross + totals.EmployerTaxes + totals.EmployerMatch
	taxes := totals.EmployeeTaxes + totals.EmployerTaxes
	deductions := totals.Deductions + totals.EmployerMatch

	var lines []JournalLine
	add := func(mappingType string, debit, credit float64, memo string) error {
		if debit == 0 && credit == 0 {
			return nil
		}
		account, ok := accounts[mappingType]
		if !ok {
			return &UnresolvedAccountError{MappingType: mappingType}
		}
		lines = append(lines, JournalLine{
			AccountID:   account.ID,
			AccountCode: account.Code,
			AccountName: account.Name,
			Debit:       debit,
			Credit:      credit,
			Memo:        memo,
		})
		return nil
	}

	if err := add(MappingPayrollExpense, expense, 0, "payroll expense"); err != nil {
		return nil, err
	}
	if err := add(MappingTaxesPayable, 0, taxes, "payroll taxes withheld"); err != nil {
		return nil, err
	}
	if err := add(MappingDeductionsPayable, 0, deductions, "deductions withheld"); err != nil {
		return nil, err
	}
	if totals.Net > 0 {
		if err := add(MappingNetPayPayable, 0, totals.Net, "net pay owed"); err != nil {
			return nil, err
		}
	}

	if err := VerifyBalance(lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// VerifyBalance checks that total debits equal total credits within the
// rounding tolerance, summing in decimal so float drift cannot mask a real
// imbalance.
func VerifyBalance(lines []JournalLine) error {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		debits = debits.Add(decimal.NewFromFloat(line.Debit).Round(2))
		credits = credits.Add(decimal.NewFromFloat(line.Credit).Round(2))
	}
	if debits.Sub(credits).Abs().GreaterThan(balanceTolerance) {
		return &UnbalancedError{
			Debits:  debits.StringFixed(2),
			Credits: credits.StringFixed(2),
		}
	}
	return nil
}
