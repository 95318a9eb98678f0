package entitlement

import "time"

// MaxDomainChangesPerMonth caps custom-domain edits per calendar month.
const MaxDomainChangesPerMonth = 2

// effectiveCount resets the stored counter when the last change happened in
// another calendar month than now.
func effectiveCount(count int, last *time.Time, now time.Time) int {
	if last == nil {
		return 0
	}
	ly, lm, _ := last.In(now.Location()).Date()
	ny, nm, _ := now.Date()
	if ly != ny || lm != nm {
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}

// CanChangeDomain reports whether another custom-domain change is allowed.
func CanChangeDomain(count int, last *time.Time, now time.Time) bool {
	return effectiveCount(count, last, now) < MaxDomainChangesPerMonth
}

// RecordChange returns the counter and timestamp to store after a change at now.
func RecordChange(count int, last *time.Time, now time.Time) (int, time.Time) {
	return effectiveCount(count, last, now) + 1, now
}

// DomainChangesLeft is how many changes remain in now's month.
func DomainChangesLeft(count int, last *time.Time, now time.Time) int {
	left := MaxDomainChangesPerMonth - effectiveCount(count, last, now)
	if left < 0 {
		return 0
	}
	return left
}
