package payroll

import (
	"math"

	"paycore/internal/domain/compensation"
)

// Round2 rounds to cents, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PeriodsPerYear maps a pay frequency to the number of pay periods in a year.
func PeriodsPerYear(frequency string) (float64, error) {
	switch frequency {
	case compensation.FrequencyWeekly:
		return 52, nil
	case compensation.FrequencyBiweekly:
		return 26, nil
	case compensation.FrequencySemimonthly:
		return 24, nil
	case compensation.FrequencyMonthly:
		return 12, nil
	default:
		return 0, ErrUnknownPayFrequency
	}
}

// GrossPay computes an employee's gross earnings for one period from the
// compensation record effective for that period. Hourly pay defaults to the
// record's standard hours; a caller-supplied hours input overrides the split,
// with overtime hours paid at the premium rate. Commission records carry the
// per-period basis as the pay rate.
func GrossPay(comp compensation.Record, hours *HoursInput) ([]Earning, error) {
	switch comp.PayType {
	case compensation.PayTypeSalary:
		periods, err := PeriodsPerYear(comp.PayFrequency)
		if err != nil {
			return nil, err
		}
		return []Earning{{
			Type:   EarningRegular,
			Amount: Round2(comp.PayRate / periods),
		}}, nil

	case compensation.PayTypeHourly:
		regular := comp.StandardHours
		var overtime float64
		if hours != nil {
			regular = hours.RegularHours
			overtime = hours.OvertimeHours
		} else if regular <= 0 {
			return nil, ErrMissingHours
		}
		earnings := []Earning{{
			Type:   EarningRegular,
			Hours:  regular,
			Rate:   comp.PayRate,
			Amount: Round2(regular * comp.PayRate),
		}}
		if overtime > 0 {
			earnings = append(earnings, Earning{
				Type:   EarningOvertime,
				Hours:  overtime,
				Rate:   Round2(comp.PayRate * OvertimeMultiplier),
				Amount: Round2(overtime * comp.PayRate * OvertimeMultiplier),
			})
		}
		return earnings, nil

	case compensation.PayTypeCommission:
		return []Earning{{
			Type:   EarningCommission,
			Amount: Round2(comp.PayRate),
		}}, nil

	default:
		return nil, ErrUnknownPayType
	}
}

// TotalEarnings sums earning line amounts.
func TotalEarnings(earnings []Earning) float64 {
	var total float64
	for _, e := range earnings {
		total += e.Amount
	}
	return Round2(total)
}
