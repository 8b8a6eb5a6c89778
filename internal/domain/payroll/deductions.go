package payroll

import (
	"sort"

	"paycore/internal/domain/compensation"
)

// ApplyDeductions computes the period's deduction lines from the active
// enrollments. Garnishments are taken first, in ascending priority, and each
// is capped at the net remaining after taxes and higher-priority
// garnishments, so garnishments alone can never push net pay negative.
// Voluntary deductions follow in enrollment order and are not net-capped; a
// resulting negative net is surfaced as a run anomaly instead of silently
// shorting the enrollment.
//
// Percentage rates are fractions (0.05 withholds five percent). The
// percent_net base is gross less employee taxes.
func ApplyDeductions(gross, employeeTaxes float64, enrollments []compensation.Deduction) []DeductLine {
	ordered := make([]compensation.Deduction, len(enrollments))
	copy(ordered, enrollments)
	sort.SliceStable(ordered, func(i, j int) bool {
		gi := ordered[i].Category == compensation.CategoryGarnishment
		gj := ordered[j].Category == compensation.CategoryGarnishment
		if gi != gj {
			return gi
		}
		if gi {
			return ordered[i].GarnishmentPriority < ordered[j].GarnishmentPriority
		}
		return false
	})

	netBase := Round2(gross - employeeTaxes)
	remaining := netBase

	var lines []DeductLine
	for _, enrollment := range ordered {
		amount := baseAmount(enrollment, gross, netBase)
		if enrollment.PerPeriodLimit > 0 && amount > enrollment.PerPeriodLimit {
			amount = enrollment.PerPeriodLimit
		}
		if enrollment.AnnualLimit > 0 {
			if room := enrollment.AnnualLimit - enrollment.YTDAmount; amount > room {
				amount = room
			}
		}
		if enrollment.Category == compensation.CategoryGarnishment && amount > remaining {
			amount = remaining
		}
		if amount < 0 {
			amount = 0
		}
		amount = Round2(amount)

		var match float64
		if enrollment.EmployerMatchRate > 0 {
			match = Round2(amount * enrollment.EmployerMatchRate)
		}

		lines = append(lines, DeductLine{
			EnrollmentID:  enrollment.ID,
			DeductionType: enrollment.DeductionType,
			Category:      enrollment.Category,
			Amount:        amount,
			EmployerMatch: match,
		})
		remaining = Round2(remaining - amount)
	}
	return lines
}

func baseAmount(enrollment compensation.Deduction, gross, netBase float64) float64 {
	switch enrollment.CalculationMethod {
	case compensation.MethodPercentGross:
		return gross * enrollment.Rate
	case compensation.MethodPercentNet:
		return netBase * enrollment.Rate
	default:
		return enrollment.Amount
	}
}

// DeductionTotal sums the employee-paid deduction amounts.
func DeductionTotal(lines []DeductLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Amount
	}
	return Round2(total)
}
