package compensation

import "time"

// CloseDate is the effectiveTo assigned to the previously open record when a
// new record starts: the day before, so intervals never overlap and leave no
// gap for an actively employed worker.
func CloseDate(newFrom time.Time) time.Time {
	return newFrom.AddDate(0, 0, -1)
}

// ValidateSuccession checks that a new record can legally supersede the
// currently open one.
func ValidateSuccession(openFrom, newFrom time.Time) error {
	if !newFrom.After(openFrom) {
		return ErrEffectiveBeforeCurrent
	}
	return nil
}

// SelectEffective picks the record effective for [start, end]: effectiveFrom
// on or before the period end, effectiveTo absent or on/after the period
// start, most recent effectiveFrom winning. The creation invariant prevents
// overlapping candidates; the most-recent rule is defensive.
func SelectEffective(records []Record, start, end time.Time) (Record, bool) {
	var best Record
	found := false
	for _, record := range records {
		if record.EffectiveFrom.After(end) {
			continue
		}
		if record.EffectiveTo != nil && record.EffectiveTo.Before(start) {
			continue
		}
		if !found || record.EffectiveFrom.After(best.EffectiveFrom) {
			best = record
			found = true
		}
	}
	return best, found
}
