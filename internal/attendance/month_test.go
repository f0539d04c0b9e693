package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLedger(t *testing.T) Ledger {
	t.Helper()
	now := at(t, "2024-04-02T10:00:00")
	var l Ledger
	for _, d := range []string{"2024-03-05", "2024-03-20", "2024-04-01"} {
		l, _ = l.Toggle(day(t, d), now)
	}
	return l
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysInMonth(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
}

func TestParseYearMonth(t *testing.T) {
	ym, err := ParseYearMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, YearMonth{Year: 2024, Month: time.March}, ym)
	assert.Equal(t, "2024-03", ym.String())
	assert.Equal(t, "March 2024", ym.Title())
	assert.Equal(t, "2024-04", ym.Next().String())
	assert.Equal(t, "2023-12", YearMonth{Year: 2024, Month: time.January}.Prev().String())

	_, err = ParseYearMonth("2024-13")
	assert.Error(t, err)
}

func TestLedger_FilterByMonth(t *testing.T) {
	l := sampleLedger(t)

	march := l.FilterByMonth(YearMonth{Year: 2024, Month: time.March})
	require.Len(t, march, 2)
	assert.Equal(t, "2024-03-20", march[0].Day().String())
	assert.Equal(t, "2024-03-05", march[1].Day().String())

	assert.Empty(t, l.FilterByMonth(YearMonth{Year: 2023, Month: time.March}))
}

func TestAggregate_March(t *testing.T) {
	l := sampleLedger(t)
	ym := YearMonth{Year: 2024, Month: time.March}

	counts := Aggregate(l.FilterByMonth(ym), ym)

	require.Len(t, counts, 31)
	want := make([]int, 31)
	want[4] = 1
	want[19] = 1
	assert.Equal(t, want, counts)
}

func TestAggregate_SumsDuplicates(t *testing.T) {
	ym := YearMonth{Year: 2024, Month: time.February}
	l := Ledger{
		{Date: at(t, "2024-02-29T00:00:00")},
		{Date: at(t, "2024-02-29T18:00:00")},
	}

	counts := Aggregate(l, ym)

	require.Len(t, counts, 29)
	assert.Equal(t, 2, counts[28])
}

func TestBuildChart_SumMatchesFilter(t *testing.T) {
	l := sampleLedger(t)
	for _, ym := range []YearMonth{{2024, time.March}, {2024, time.April}, {2024, time.May}} {
		chart := BuildChart(l, ym)

		require.Len(t, chart.Series, 1)
		assert.Equal(t, SeriesName, chart.Series[0].Name)
		assert.Len(t, chart.Labels, ym.Days())
		assert.Equal(t, "1", chart.Labels[0])

		sum := 0
		for _, v := range chart.Series[0].Values {
			sum += v
		}
		assert.Equal(t, len(l.FilterByMonth(ym)), sum, ym.String())
	}
}
