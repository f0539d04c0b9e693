package attendance

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const yearMonthLayout = "2006-01"

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the month t falls in, in t's location.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses a yyyy-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, errors.Wrapf(err, "invalid month %q", s)
	}
	return YearMonthOf(t), nil
}

func (ym YearMonth) first() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String formats the month as yyyy-MM.
func (ym YearMonth) String() string {
	return ym.first().Format(yearMonthLayout)
}

// Title formats the month for headings, e.g. "March 2024".
func (ym YearMonth) Title() string {
	return ym.first().Format("January 2006")
}

// Days returns the number of days in the month.
func (ym YearMonth) Days() int {
	return DaysInMonth(ym.Year, ym.Month)
}

func (ym YearMonth) Next() YearMonth { return YearMonthOf(ym.first().AddDate(0, 1, 0)) }
func (ym YearMonth) Prev() YearMonth { return YearMonthOf(ym.first().AddDate(0, -1, 0)) }

// DaysInMonth follows the proleptic Gregorian calendar.
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the following month normalises to the last day of month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FilterByMonth keeps the records whose yyyy-MM matches ym, preserving order.
func (l Ledger) FilterByMonth(ym YearMonth) Ledger {
	want := ym.String()
	out := Ledger{}
	for _, r := range l {
		if r.Date.Format(yearMonthLayout) == want {
			out = append(out, r)
		}
	}
	return out
}

// SeriesName labels the per-day attendance series.
const SeriesName = "Attendance Days"

// Series is one named run of values.
type Series struct {
	Name   string `json:"name"`
	Values []int  `json:"values"`
}

// Chart is the bar-chart input for one month.
type Chart struct {
	Title  string   `json:"title"`
	Month  string   `json:"month"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// Aggregate counts records per day of month. Index i holds day i+1.
func Aggregate(monthRecords Ledger, ym YearMonth) []int {
	counts := make([]int, ym.Days())
	for day := 1; day <= len(counts); day++ {
		for _, r := range monthRecords {
			if r.Date.Day() == day {
				counts[day-1]++
			}
		}
	}
	return counts
}

// BuildChart filters l to ym and aggregates it with day labels.
func BuildChart(l Ledger, ym YearMonth) Chart {
	counts := Aggregate(l.FilterByMonth(ym), ym)
	labels := make([]string, len(counts))
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	return Chart{
		Title:  ym.Title() + " Attendance Analytics",
		Month:  ym.String(),
		Labels: labels,
		Series: []Series{{Name: SeriesName, Values: counts}},
	}
}
