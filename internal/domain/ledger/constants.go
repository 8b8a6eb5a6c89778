package ledger

const (
	AccountTypeAsset     = "asset"
	AccountTypeLiability = "liability"
	AccountTypeEquity    = "equity"
	AccountTypeRevenue   = "revenue"
	AccountTypeExpense   = "expense"
)

const (
	MappingPayrollExpense    = "payroll_expense"
	MappingTaxesPayable      = "taxes_payable"
	MappingDeductionsPayable = "deductions_payable"
	MappingNetPayPayable     = "net_pay_payable"
)

const SourcePayrollRun = "payroll_run"

// fallbackCodes are probed in order when a tenant has no explicit account
// mapping for a type. Conventional chart-of-accounts numbering.
var fallbackCodes = map[string][]string{
	MappingPayrollExpense:    {"6000", "6100", "5000"},
	MappingTaxesPayable:      {"2100", "2110", "2200"},
	MappingDeductionsPayable: {"2300", "2310", "2400"},
	MappingNetPayPayable:     {"2000", "2010", "1000"},
}

// MappingTypes lists the four slots a payroll posting needs resolved.
var MappingTypes = []string{
	MappingPayrollExpense,
	MappingTaxesPayable,
	MappingDeductionsPayable,
	MappingNetPayPayable,
}
