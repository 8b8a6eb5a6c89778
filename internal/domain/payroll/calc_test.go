package payroll

import (
	"errors"
	"testing"

	"paycore/internal/domain/compensation"
)

func TestGrossPaySalary(t *testing.T) {
	comp := compensation.Record{
		PayType:      compensation.PayTypeSalary,
		PayRate:      52000,
		PayFrequency: compensation.FrequencyBiweekly,
	}
	earnings, err := GrossPay(comp, nil)
	if err != nil {
		t.Fatalf("GrossPay: %v", err)
	}
	if len(earnings) != 1 {
		t.Fatalf("expected 1 earning line, got %d", len(earnings))
	}
	if earnings[0].Type != EarningRegular {
		t.Fatalf("expected regular earning, got %s", earnings[0].Type)
	}
	if earnings[0].Amount != 2000 {
		t.Fatalf("expected 2000.00 per period, got %.2f", earnings[0].Amount)
	}
}

func TestGrossPayHourlyWithOvertime(t *testing.T) {
	comp := compensation.Record{
		PayType:       compensation.PayTypeHourly,
		PayRate:       20,
		PayFrequency:  compensation.FrequencyBiweekly,
		StandardHours: 80,
	}
	earnings, err := GrossPay(comp, &HoursInput{RegularHours: 80, OvertimeHours: 5})
	if err != nil {
		t.Fatalf("GrossPay: %v", err)
	}
	if len(earnings) != 2 {
		t.Fatalf("expected 2 earning lines, got %d", len(earnings))
	}
	if earnings[0].Amount != 1600 {
		t.Fatalf("expected 1600.00 regular, got %.2f", earnings[0].Amount)
	}
	if earnings[1].Type != EarningOvertime || earnings[1].Amount != 150 {
		t.Fatalf("expected 150.00 overtime, got %s %.2f", earnings[1].Type, earnings[1].Amount)
	}
	if total := TotalEarnings(earnings); total != 1750 {
		t.Fatalf("expected 1750.00 gross, got %.2f", total)
	}
}

func TestGrossPayHourlyDefaultsToStandardHours(t *testing.T) {
	comp := compensation.Record{
		PayType:       compensation.PayTypeHourly,
		PayRate:       25,
		PayFrequency:  compensation.FrequencyBiweekly,
		StandardHours: 80,
	}

	earnings, err := GrossPay(comp, nil)
	if err != nil {
		t.Fatalf("GrossPay: %v", err)
	}
	if len(earnings) != 1 {
		t.Fatalf("expected 1 earning line, got %d", len(earnings))
	}
	if earnings[0].Hours != 80 || earnings[0].Amount != 2000 {
		t.Fatalf("expected 80h at 2000.00, got %.1fh %.2f", earnings[0].Hours, earnings[0].Amount)
	}

	// A caller-supplied hours input overrides the standard hours.
	earnings, err = GrossPay(comp, &HoursInput{RegularHours: 60})
	if err != nil {
		t.Fatalf("GrossPay with override: %v", err)
	}
	if earnings[0].Hours != 60 || earnings[0].Amount != 1500 {
		t.Fatalf("expected 60h at 1500.00, got %.1fh %.2f", earnings[0].Hours, earnings[0].Amount)
	}
}

func TestGrossPayHourlyRequiresHours(t *testing.T) {
	// A record without standard hours has nothing to fall back on.
	comp := compensation.Record{
		PayType:      compensation.PayTypeHourly,
		PayRate:      20,
		PayFrequency: compensation.FrequencyWeekly,
	}
	if _, err := GrossPay(comp, nil); !errors.Is(err, ErrMissingHours) {
		t.Fatalf("expected ErrMissingHours, got %v", err)
	}
}

func TestGrossPayCommission(t *testing.T) {
	comp := compensation.Record{
		PayType:      compensation.PayTypeCommission,
		PayRate:      3250.505,
		PayFrequency: compensation.FrequencyMonthly,
	}
	earnings, err := GrossPay(comp, nil)
	if err != nil {
		t.Fatalf("GrossPay: %v", err)
	}
	if earnings[0].Type != EarningCommission || earnings[0].Amount != 3250.51 {
		t.Fatalf("expected rounded commission line, got %s %.2f", earnings[0].Type, earnings[0].Amount)
	}
}

func TestPeriodsPerYear(t *testing.T) {
	cases := map[string]float64{
		compensation.FrequencyWeekly:      52,
		compensation.FrequencyBiweekly:    26,
		compensation.FrequencySemimonthly: 24,
		compensation.FrequencyMonthly:     12,
	}
	for frequency, want := range cases {
		got, err := PeriodsPerYear(frequency)
		if err != nil {
			t.Fatalf("PeriodsPerYear(%s): %v", frequency, err)
		}
		if got != want {
			t.Fatalf("PeriodsPerYear(%s) = %.0f, want %.0f", frequency, got, want)
		}
	}
	if _, err := PeriodsPerYear("fortnightly"); !errors.Is(err, ErrUnknownPayFrequency) {
		t.Fatalf("expected ErrUnknownPayFrequency, got %v", err)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(163.6923); got != 163.69 {
		t.Fatalf("Round2(163.6923) = %v", got)
	}
	if got := Round2(0.005); got != 0.01 {
		t.Fatalf("Round2(0.005) = %v", got)
	}
	if got := Round2(-0.005); got != -0.01 {
		t.Fatalf("Round2(-0.005) = %v", got)
	}
}
