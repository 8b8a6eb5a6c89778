package payroll

import "paycore/internal/domain/core"

// 2024 federal withholding figures, percentage method.
const (
	socialSecurityRate     = 0.062
	socialSecurityWageBase = 168600.0
	medicareRate           = 0.0145
	medicareAdditionalRate = 0.009
	medicareAdditionalOver = 200000.0

	allowanceValue = 4300.0

	defaultStateRate = 0.05
)

var standardDeduction = map[string]float64{
	core.FilingSingle:  14600,
	core.FilingMarried: 29200,
	core.FilingHead:    21900,
}

type bracket struct {
	over float64
	rate float64
}

// Taxable-income brackets; each entry applies its rate to income above its
// threshold up to the next entry's threshold.
var federalBrackets = map[string][]bracket{
	core.FilingSingle: {
		{0, 0.10}, {11600, 0.12}, {47150, 0.22}, {100525, 0.24},
		{191950, 0.32}, {243725, 0.35}, {609350, 0.37},
	},
	core.FilingMarried: {
		{0, 0.10}, {23200, 0.12}, {94300, 0.22}, {201050, 0.24},
		{383900, 0.32}, {487450, 0.35}, {731200, 0.37},
	},
	core.FilingHead: {
		{0, 0.10}, {16550, 0.12}, {63100, 0.22}, {100500, 0.24},
		{191950, 0.32}, {243725, 0.35}, {609350, 0.37},
	},
}

// Flat state income tax rates. Absent states use the default rate; a zero
// entry means the state levies no income tax.
var stateRates = map[string]float64{
	"AK": 0, "FL": 0, "NV": 0, "NH": 0, "SD": 0, "TN": 0, "TX": 0, "WA": 0, "WY": 0,
	"CO": 0.044, "IL": 0.0495, "IN": 0.0305, "KY": 0.04, "MA": 0.05,
	"MI": 0.0425, "NC": 0.045, "PA": 0.0307, "UT": 0.0465,
}

// ComputeTaxes withholds one period's taxes for a gross amount. Federal
// income tax annualizes the period wages, applies the W-4 adjustments and the
// percentage-method brackets, then apportions the annual tax back to the
// period. ytdGross caps the Social Security base at the annual wage base.
func ComputeTaxes(profile core.TaxSetup, stateCode string, gross, periodsPerYear, ytdGross float64) []Tax {
	var taxes []Tax

	if !profile.ExemptFederal {
		taxes = append(taxes, Tax{
			Type:         TaxFederalIncome,
			TaxableWages: gross,
			Amount:       federalWithholding(profile, gross, periodsPerYear),
		})
	}

	if !profile.ExemptState {
		rate, ok := stateRates[stateCode]
		if !ok {
			rate = defaultStateRate
		}
		taxes = append(taxes, Tax{
			Type:         TaxStateIncome,
			TaxableWages: gross,
			Rate:         rate,
			Amount:       Round2(gross * rate),
		})
	}

	if !profile.ExemptFICA {
		ssBase := gross
		if remaining := socialSecurityWageBase - ytdGross; remaining < ssBase {
			ssBase = remaining
		}
		if ssBase < 0 {
			ssBase = 0
		}
		ss := Round2(ssBase * socialSecurityRate)

		medicare := Round2(gross * medicareRate)
		annual := gross * periodsPerYear
		if annual > medicareAdditionalOver {
			medicare = Round2(medicare + (annual-medicareAdditionalOver)*medicareAdditionalRate/periodsPerYear)
		}

		taxes = append(taxes,
			Tax{Type: TaxSocialSecurity, TaxableWages: ssBase, Rate: socialSecurityRate, Amount: ss},
			Tax{Type: TaxMedicare, TaxableWages: gross, Rate: medicareRate, Amount: medicare},
			Tax{Type: TaxSocialSecurityER, TaxableWages: ssBase, Rate: socialSecurityRate, Amount: Round2(ssBase * socialSecurityRate), EmployerPaid: true},
			Tax{Type: TaxMedicareER, TaxableWages: gross, Rate: medicareRate, Amount: Round2(gross * medicareRate), EmployerPaid: true},
		)
	}

	return taxes
}

func federalWithholding(profile core.TaxSetup, gross, periodsPerYear float64) float64 {
	filing := profile.FilingStatus
	brackets, ok := federalBrackets[filing]
	if !ok {
		filing = core.FilingSingle
		brackets = federalBrackets[filing]
	}

	deduction := standardDeduction[filing]
	scale := 1.0
	if profile.W4Step2 {
		// The step 2 checkbox halves the brackets and the standard
		// deduction to account for a second income.
		deduction /= 2
		scale = 0.5
	}

	annual := gross*periodsPerYear + profile.W4OtherIncome
	annual -= profile.W4Deductions
	annual -= deduction
	annual -= float64(profile.Allowances) * allowanceValue
	if annual <= 0 {
		return 0
	}

	var tax float64
	for i, b := range brackets {
		lower := b.over * scale
		if annual <= lower {
			break
		}
		upper := annual
		if i+1 < len(brackets) {
			if next := brackets[i+1].over * scale; next < upper {
				upper = next
			}
		}
		tax += (upper - lower) * b.rate
	}

	tax -= profile.W4DependentsAmount
	if tax <= 0 {
		return 0
	}
	return Round2(tax / periodsPerYear)
}

// EmployeeTaxTotal sums the employee-paid tax lines.
func EmployeeTaxTotal(taxes []Tax) float64 {
	var total float64
	for _, t := range taxes {
		if !t.EmployerPaid {
			total += t.Amount
		}
	}
	return Round2(total)
}

// EmployerTaxTotal sums the employer-paid tax lines.
func EmployerTaxTotal(taxes []Tax) float64 {
	var total float64
	for _, t := range taxes {
		if t.EmployerPaid {
			total += t.Amount
		}
	}
	return Round2(total)
}
