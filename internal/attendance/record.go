package attendance

import (
	"time"
)

const (
	// TimeLayout is the HH:MM:SS form of the marking time.
	TimeLayout = "15:04:05"
	// DateLayout is the calendar date form used for export and input.
	DateLayout = "2006-01-02"
)

// Record marks one calendar day as present.
type Record struct {
	Date time.Time
	Time string
}

// Day returns the calendar day of the record in its own location.
func (r Record) Day() Day {
	return DayOf(r.Date)
}

// DisplayDate renders the day for history listings, e.g. "March 10, 2024".
func (r Record) DisplayDate() string {
	return r.Date.Format("January 2, 2006")
}

// Day is a (year, month, day) tuple. Two instants are the same day when
// their tuples match, regardless of time-of-day.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day of t in t's location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// After reports whether d is a later calendar day than o.
func (d Day) After(o Day) bool {
	if d.Year != o.Year {
		return d.Year > o.Year
	}
	if d.Month != o.Month {
		return d.Month > o.Month
	}
	return d.Day > o.Day
}

func (d Day) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// ParseDate parses a yyyy-MM-dd date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}
