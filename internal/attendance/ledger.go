package attendance

import (
	"time"

	"github.com/pkg/errors"
)

// ErrDuplicateDay reports a ledger holding more than one record for a day.
var ErrDuplicateDay = errors.New("ledger holds duplicate days")

// Outcome is the effect of a toggle.
type Outcome string

const (
	OutcomeMarked   Outcome = "marked"
	OutcomeUnmarked Outcome = "unmarked"
	OutcomeRejected Outcome = "rejected"
)

// Ledger is one user's attendance records, newest mark first.
type Ledger []Record

// Toggle marks date when it is not yet marked and unmarks it otherwise.
// Dates on a later calendar day than now are rejected and l is returned as is.
// l itself is never modified.
func (l Ledger) Toggle(date, now time.Time) (Ledger, Outcome) {
	if DayOf(date).After(DayOf(now.In(date.Location()))) {
		return l, OutcomeRejected
	}

	if i := l.index(DayOf(date)); i >= 0 {
		next := make(Ledger, 0, len(l)-1)
		next = append(next, l[:i]...)
		return append(next, l[i+1:]...), OutcomeUnmarked
	}

	next := make(Ledger, 0, len(l)+1)
	next = append(next, Record{Date: date, Time: now.Format(TimeLayout)})
	return append(next, l...), OutcomeMarked
}

// IsMarked reports whether some record falls on date's calendar day.
func (l Ledger) IsMarked(date time.Time) bool {
	return l.index(DayOf(date)) >= 0
}

// CountDistinctDays returns the number of unique calendar days in l.
func (l Ledger) CountDistinctDays() int {
	seen := make(map[Day]struct{}, len(l))
	for _, r := range l {
		seen[r.Day()] = struct{}{}
	}
	return len(seen)
}

// Verify returns ErrDuplicateDay when two records share a calendar day.
func (l Ledger) Verify() error {
	if n := l.CountDistinctDays(); n != len(l) {
		return errors.Wrapf(ErrDuplicateDay, "%d records over %d days", len(l), n)
	}
	return nil
}

// Dedup keeps the first record of every calendar day.
func (l Ledger) Dedup() Ledger {
	seen := make(map[Day]struct{}, len(l))
	out := make(Ledger, 0, len(l))
	for _, r := range l {
		if _, ok := seen[r.Day()]; ok {
			continue
		}
		seen[r.Day()] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (l Ledger) index(d Day) int {
	for i, r := range l {
		if r.Day() == d {
			return i
		}
	}
	return -1
}
