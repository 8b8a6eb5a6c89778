package compensation

import (
	"errors"
	"testing"
	"time"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestCloseDate(t *testing.T) {
	if got := CloseDate(day("2024-03-01")); !got.Equal(day("2024-02-29")) {
		t.Fatalf("CloseDate = %s, want 2024-02-29", got.Format("2006-01-02"))
	}
}

func TestValidateSuccession(t *testing.T) {
	if err := ValidateSuccession(day("2024-01-01"), day("2024-06-01")); err != nil {
		t.Fatalf("later date should pass: %v", err)
	}
	if err := ValidateSuccession(day("2024-06-01"), day("2024-06-01")); !errors.Is(err, ErrEffectiveBeforeCurrent) {
		t.Fatalf("same date should fail, got %v", err)
	}
	if err := ValidateSuccession(day("2024-06-01"), day("2024-01-01")); !errors.Is(err, ErrEffectiveBeforeCurrent) {
		t.Fatalf("earlier date should fail, got %v", err)
	}
}

func TestSelectEffective(t *testing.T) {
	old := day("2023-12-31")
	records := []Record{
		{ID: "r1", EffectiveFrom: day("2023-01-01"), EffectiveTo: &old},
		{ID: "r2", EffectiveFrom: day("2024-01-01")},
	}

	record, found := SelectEffective(records, day("2024-03-01"), day("2024-03-14"))
	if !found || record.ID != "r2" {
		t.Fatalf("expected r2, got %+v found=%v", record, found)
	}

	// A period fully inside the closed record picks the closed one.
	record, found = SelectEffective(records, day("2023-06-01"), day("2023-06-14"))
	if !found || record.ID != "r1" {
		t.Fatalf("expected r1, got %+v found=%v", record, found)
	}

	// No record covers a period before any effective date.
	if _, found = SelectEffective(records, day("2022-01-01"), day("2022-01-14")); found {
		t.Fatalf("expected no effective record")
	}

	// A raise mid-period: the most recent effectiveFrom wins.
	records = append(records, Record{ID: "r3", EffectiveFrom: day("2024-03-10")})
	record, found = SelectEffective(records, day("2024-03-01"), day("2024-03-14"))
	if !found || record.ID != "r3" {
		t.Fatalf("expected r3, got %+v found=%v", record, found)
	}
}
