package payroll

import (
	"testing"

	"paycore/internal/domain/core"
)

func taxByType(taxes []Tax, taxType string) (Tax, bool) {
	for _, tax := range taxes {
		if tax.Type == taxType {
			return tax, true
		}
	}
	return Tax{}, false
}

func TestComputeTaxesBiweeklySalary(t *testing.T) {
	profile := core.TaxSetup{FilingStatus: core.FilingSingle}
	taxes := ComputeTaxes(profile, "CA", 2000, 26, 0)

	federal, ok := taxByType(taxes, TaxFederalIncome)
	if !ok {
		t.Fatalf("no federal income tax line")
	}
	if federal.Amount != 163.69 {
		t.Fatalf("federal withholding = %.2f, want 163.69", federal.Amount)
	}

	ss, _ := taxByType(taxes, TaxSocialSecurity)
	if ss.Amount != 124 {
		t.Fatalf("social security = %.2f, want 124.00", ss.Amount)
	}
	medicare, _ := taxByType(taxes, TaxMedicare)
	if medicare.Amount != 29 {
		t.Fatalf("medicare = %.2f, want 29.00", medicare.Amount)
	}

	ssER, _ := taxByType(taxes, TaxSocialSecurityER)
	if ssER.Amount != 124 || !ssER.EmployerPaid {
		t.Fatalf("employer social security wrong: %+v", ssER)
	}

	if EmployeeTaxTotal(taxes) >= 2000 {
		t.Fatalf("employee taxes %.2f should be below gross", EmployeeTaxTotal(taxes))
	}
}

func TestFederalWithholdingStep2Checkbox(t *testing.T) {
	base := core.TaxSetup{FilingStatus: core.FilingSingle}
	checked := core.TaxSetup{FilingStatus: core.FilingSingle, W4Step2: true}

	plain := federalWithholding(base, 2000, 26)
	withStep2 := federalWithholding(checked, 2000, 26)
	if withStep2 <= plain {
		t.Fatalf("step 2 withholding %.2f should exceed base %.2f", withStep2, plain)
	}
	if withStep2 != 283.10 {
		t.Fatalf("step 2 withholding = %.2f, want 283.10", withStep2)
	}
}

func TestFederalWithholdingAllowancesAndDependents(t *testing.T) {
	profile := core.TaxSetup{FilingStatus: core.FilingSingle, Allowances: 2}
	reduced := federalWithholding(profile, 2000, 26)
	base := federalWithholding(core.TaxSetup{FilingStatus: core.FilingSingle}, 2000, 26)
	if reduced >= base {
		t.Fatalf("allowances should reduce withholding: %.2f >= %.2f", reduced, base)
	}

	credited := core.TaxSetup{FilingStatus: core.FilingSingle, W4DependentsAmount: 2000}
	got := federalWithholding(credited, 2000, 26)
	want := Round2((4256.0 - 2000.0) / 26.0)
	if got != want {
		t.Fatalf("dependents credit withholding = %.2f, want %.2f", got, want)
	}

	// Credit larger than the annual tax floors at zero.
	zeroed := core.TaxSetup{FilingStatus: core.FilingSingle, W4DependentsAmount: 100000}
	if got := federalWithholding(zeroed, 2000, 26); got != 0 {
		t.Fatalf("withholding should floor at zero, got %.2f", got)
	}
}

func TestSocialSecurityWageBaseCap(t *testing.T) {
	profile := core.TaxSetup{FilingStatus: core.FilingSingle}

	taxes := ComputeTaxes(profile, "TX", 10000, 26, 168000)
	ss, _ := taxByType(taxes, TaxSocialSecurity)
	want := Round2(600 * socialSecurityRate)
	if ss.Amount != want {
		t.Fatalf("capped social security = %.2f, want %.2f", ss.Amount, want)
	}

	over := ComputeTaxes(profile, "TX", 10000, 26, 200000)
	ssOver, _ := taxByType(over, TaxSocialSecurity)
	if ssOver.Amount != 0 {
		t.Fatalf("social security past wage base = %.2f, want 0", ssOver.Amount)
	}
}

func TestAdditionalMedicare(t *testing.T) {
	profile := core.TaxSetup{FilingStatus: core.FilingSingle}
	taxes := ComputeTaxes(profile, "TX", 10000, 26, 0)

	medicare, _ := taxByType(taxes, TaxMedicare)
	base := Round2(10000 * medicareRate)
	if medicare.Amount <= base {
		t.Fatalf("additional medicare missing: %.2f <= %.2f", medicare.Amount, base)
	}

	// The employer half never carries the additional rate.
	medicareER, _ := taxByType(taxes, TaxMedicareER)
	if medicareER.Amount != base {
		t.Fatalf("employer medicare = %.2f, want %.2f", medicareER.Amount, base)
	}
}

func TestStateTaxRates(t *testing.T) {
	profile := core.TaxSetup{FilingStatus: core.FilingSingle}

	texas := ComputeTaxes(profile, "TX", 2000, 26, 0)
	state, _ := taxByType(texas, TaxStateIncome)
	if state.Amount != 0 {
		t.Fatalf("TX state tax = %.2f, want 0", state.Amount)
	}

	pennsylvania := ComputeTaxes(profile, "PA", 2000, 26, 0)
	state, _ = taxByType(pennsylvania, TaxStateIncome)
	if state.Amount != 61.40 {
		t.Fatalf("PA state tax = %.2f, want 61.40", state.Amount)
	}

	unknown := ComputeTaxes(profile, "ZZ", 2000, 26, 0)
	state, _ = taxByType(unknown, TaxStateIncome)
	if state.Amount != 100 {
		t.Fatalf("default state tax = %.2f, want 100.00", state.Amount)
	}
}

func TestComputeTaxesRecordsWagesAndRates(t *testing.T) {
	profile := core.TaxSetup{FilingStatus: core.FilingSingle}
	taxes := ComputeTaxes(profile, "PA", 2000, 26, 0)

	federal, _ := taxByType(taxes, TaxFederalIncome)
	if federal.TaxableWages != 2000 || federal.Rate != 0 {
		t.Fatalf("federal line metadata wrong: %+v", federal)
	}

	state, _ := taxByType(taxes, TaxStateIncome)
	if state.TaxableWages != 2000 || state.Rate != 0.0307 {
		t.Fatalf("state line metadata wrong: %+v", state)
	}

	ss, _ := taxByType(taxes, TaxSocialSecurity)
	if ss.TaxableWages != 2000 || ss.Rate != socialSecurityRate {
		t.Fatalf("social security line metadata wrong: %+v", ss)
	}
	medicare, _ := taxByType(taxes, TaxMedicare)
	if medicare.TaxableWages != 2000 || medicare.Rate != medicareRate {
		t.Fatalf("medicare line metadata wrong: %+v", medicare)
	}

	// The wage-base cap shrinks the recorded taxable wages, not the rate.
	capped := ComputeTaxes(profile, "PA", 10000, 26, 168000)
	ssCapped, _ := taxByType(capped, TaxSocialSecurity)
	if ssCapped.TaxableWages != 600 || ssCapped.Rate != socialSecurityRate {
		t.Fatalf("capped social security metadata wrong: %+v", ssCapped)
	}
}

func TestExemptionsSuppressTaxes(t *testing.T) {
	profile := core.TaxSetup{
		FilingStatus:  core.FilingSingle,
		ExemptFederal: true,
		ExemptState:   true,
		ExemptFICA:    true,
	}
	taxes := ComputeTaxes(profile, "CA", 2000, 26, 0)
	if len(taxes) != 0 {
		t.Fatalf("expected no tax lines for fully exempt profile, got %d", len(taxes))
	}
}

func TestUnknownFilingStatusFallsBackToSingle(t *testing.T) {
	odd := federalWithholding(core.TaxSetup{FilingStatus: "widowed"}, 2000, 26)
	single := federalWithholding(core.TaxSetup{FilingStatus: core.FilingSingle}, 2000, 26)
	if odd != single {
		t.Fatalf("unknown filing status = %.2f, want single's %.2f", odd, single)
	}
}
