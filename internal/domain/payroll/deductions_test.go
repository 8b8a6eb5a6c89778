package payroll

import (
	"testing"

	"paycore/internal/domain/compensation"
)

func TestApplyDeductionsGarnishmentOrderAndCap(t *testing.T) {
	enrollments := []compensation.Deduction{
		{ID: "vol", DeductionType: "401k", Category: compensation.CategoryBenefit,
			CalculationMethod: compensation.MethodFixed, Amount: 100},
		{ID: "g2", DeductionType: "garnishment_b", Category: compensation.CategoryGarnishment,
			CalculationMethod: compensation.MethodFixed, Amount: 1300, GarnishmentPriority: 2},
		{ID: "g1", DeductionType: "garnishment_a", Category: compensation.CategoryGarnishment,
			CalculationMethod: compensation.MethodFixed, Amount: 500, GarnishmentPriority: 1},
	}

	lines := ApplyDeductions(2000, 316.69, enrollments)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].EnrollmentID != "g1" || lines[1].EnrollmentID != "g2" || lines[2].EnrollmentID != "vol" {
		t.Fatalf("wrong order: %s, %s, %s", lines[0].EnrollmentID, lines[1].EnrollmentID, lines[2].EnrollmentID)
	}
	if lines[0].Amount != 500 {
		t.Fatalf("first garnishment = %.2f, want 500.00", lines[0].Amount)
	}
	// Net after taxes and the first garnishment is 1183.31; the second
	// garnishment is capped there instead of overdrawing.
	if lines[1].Amount != 1183.31 {
		t.Fatalf("capped garnishment = %.2f, want 1183.31", lines[1].Amount)
	}
	// The voluntary deduction still applies in full and drives net negative.
	if lines[2].Amount != 100 {
		t.Fatalf("voluntary deduction = %.2f, want 100.00", lines[2].Amount)
	}

	net := Round2(2000 - 316.69 - DeductionTotal(lines))
	if net != -100 {
		t.Fatalf("net = %.2f, want -100.00", net)
	}
}

func TestApplyDeductionsPercentMethods(t *testing.T) {
	enrollments := []compensation.Deduction{
		{ID: "gross", Category: compensation.CategoryBenefit,
			CalculationMethod: compensation.MethodPercentGross, Rate: 0.05},
		{ID: "net", Category: compensation.CategoryBenefit,
			CalculationMethod: compensation.MethodPercentNet, Rate: 0.10},
	}

	lines := ApplyDeductions(2000, 300, enrollments)
	if lines[0].Amount != 100 {
		t.Fatalf("percent_gross = %.2f, want 100.00", lines[0].Amount)
	}
	if lines[1].Amount != 170 {
		t.Fatalf("percent_net = %.2f, want 170.00", lines[1].Amount)
	}
}

func TestApplyDeductionsLimits(t *testing.T) {
	enrollments := []compensation.Deduction{
		{ID: "period", Category: compensation.CategoryBenefit,
			CalculationMethod: compensation.MethodFixed, Amount: 400, PerPeriodLimit: 250},
		{ID: "annual", Category: compensation.CategoryBenefit,
			CalculationMethod: compensation.MethodFixed, Amount: 200, AnnualLimit: 1000, YTDAmount: 900},
		{ID: "done", Category: compensation.CategoryBenefit,
			CalculationMethod: compensation.MethodFixed, Amount: 200, AnnualLimit: 1000, YTDAmount: 1000},
	}

	lines := ApplyDeductions(5000, 0, enrollments)
	if lines[0].Amount != 250 {
		t.Fatalf("per-period limited = %.2f, want 250.00", lines[0].Amount)
	}
	if lines[1].Amount != 100 {
		t.Fatalf("annual limited = %.2f, want 100.00", lines[1].Amount)
	}
	if lines[2].Amount != 0 {
		t.Fatalf("exhausted annual limit = %.2f, want 0.00", lines[2].Amount)
	}
}

func TestApplyDeductionsEmployerMatch(t *testing.T) {
	enrollments := []compensation.Deduction{
		{ID: "401k", Category: compensation.CategoryBenefit,
			CalculationMethod: compensation.MethodFixed, Amount: 100, EmployerMatchRate: 0.5},
	}
	lines := ApplyDeductions(2000, 0, enrollments)
	if lines[0].EmployerMatch != 50 {
		t.Fatalf("employer match = %.2f, want 50.00", lines[0].EmployerMatch)
	}
}

func TestApplyDeductionsDoesNotMutateInput(t *testing.T) {
	enrollments := []compensation.Deduction{
		{ID: "b", Category: compensation.CategoryGarnishment, GarnishmentPriority: 2,
			CalculationMethod: compensation.MethodFixed, Amount: 10},
		{ID: "a", Category: compensation.CategoryGarnishment, GarnishmentPriority: 1,
			CalculationMethod: compensation.MethodFixed, Amount: 10},
	}
	ApplyDeductions(1000, 0, enrollments)
	if enrollments[0].ID != "b" {
		t.Fatalf("input slice reordered")
	}
}
