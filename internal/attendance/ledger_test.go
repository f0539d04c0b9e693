package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	require.NoError(t, err)
	return v
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := ParseDate(s, time.UTC)
	require.NoError(t, err)
	return v
}

func TestLedger_Toggle_MarksEmptyLedger(t *testing.T) {
	l, outcome := Ledger{}.Toggle(day(t, "2024-03-10"), at(t, "2024-03-10T09:00:00"))

	assert.Equal(t, OutcomeMarked, outcome)
	require.Len(t, l, 1)
	assert.Equal(t, "2024-03-10", l[0].Day().String())
	assert.Equal(t, "09:00:00", l[0].Time)
}

func TestLedger_Toggle_SecondToggleUnmarks(t *testing.T) {
	now := at(t, "2024-03-10T09:00:00")
	l, _ := Ledger{}.Toggle(day(t, "2024-03-10"), now)

	l, outcome := l.Toggle(day(t, "2024-03-10"), now.Add(time.Minute))

	assert.Equal(t, OutcomeUnmarked, outcome)
	assert.Empty(t, l)
}

func TestLedger_Toggle_RejectsFutureDay(t *testing.T) {
	start, _ := Ledger{}.Toggle(day(t, "2024-03-01"), at(t, "2024-03-01T08:00:00"))

	l, outcome := start.Toggle(day(t, "2024-03-11"), at(t, "2024-03-10T23:59:59"))

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, start, l)
}

func TestLedger_Toggle_TodayLaterThanNowIsAllowed(t *testing.T) {
	l, outcome := Ledger{}.Toggle(at(t, "2024-03-10T22:00:00"), at(t, "2024-03-10T06:00:00"))

	assert.Equal(t, OutcomeMarked, outcome)
	assert.Len(t, l, 1)
}

func TestLedger_Toggle_MatchesByDayNotInstant(t *testing.T) {
	l, _ := Ledger{}.Toggle(at(t, "2024-03-05T00:00:00"), at(t, "2024-03-10T09:00:00"))

	l, outcome := l.Toggle(at(t, "2024-03-05T17:45:00"), at(t, "2024-03-10T09:01:00"))

	assert.Equal(t, OutcomeUnmarked, outcome)
	assert.Empty(t, l)
}

func TestLedger_Toggle_PrependsNewest(t *testing.T) {
	now := at(t, "2024-03-31T12:00:00")
	l, _ := Ledger{}.Toggle(day(t, "2024-03-05"), now)
	l, _ = l.Toggle(day(t, "2024-03-20"), now)
	l, _ = l.Toggle(day(t, "2024-03-12"), now)

	require.Len(t, l, 3)
	assert.Equal(t, "2024-03-12", l[0].Day().String())
	assert.Equal(t, "2024-03-20", l[1].Day().String())
	assert.Equal(t, "2024-03-05", l[2].Day().String())
}

func TestLedger_Toggle_DoesNotModifyReceiver(t *testing.T) {
	now := at(t, "2024-03-31T12:00:00")
	base, _ := Ledger{}.Toggle(day(t, "2024-03-05"), now)
	base, _ = base.Toggle(day(t, "2024-03-06"), now)
	snapshot := append(Ledger(nil), base...)

	_, _ = base.Toggle(day(t, "2024-03-05"), now)
	_, _ = base.Toggle(day(t, "2024-03-07"), now)

	assert.Equal(t, snapshot, base)
}

func TestLedger_Toggle_PairRestoresDays(t *testing.T) {
	now := at(t, "2024-03-31T12:00:00")
	var l Ledger
	for _, d := range []string{"2024-01-02", "2024-02-29", "2024-03-30"} {
		l, _ = l.Toggle(day(t, d), now)
	}

	for _, d := range []string{"2024-02-29", "2024-03-01", "2023-12-31"} {
		once, _ := l.Toggle(day(t, d), now)
		twice, _ := once.Toggle(day(t, d), now.Add(time.Hour))
		assert.ElementsMatch(t, days(l), days(twice), d)
	}
}

func TestLedger_IsMarked(t *testing.T) {
	l, _ := Ledger{}.Toggle(day(t, "2024-03-05"), at(t, "2024-03-10T09:00:00"))

	assert.True(t, l.IsMarked(at(t, "2024-03-05T23:00:00")))
	assert.False(t, l.IsMarked(day(t, "2024-03-06")))
	assert.False(t, Ledger{}.IsMarked(day(t, "2024-03-05")))
}

func TestLedger_VerifyReportsDuplicates(t *testing.T) {
	l := Ledger{
		{Date: at(t, "2024-03-05T00:00:00"), Time: "08:00:00"},
		{Date: at(t, "2024-03-05T13:00:00"), Time: "13:00:00"},
		{Date: at(t, "2024-03-06T00:00:00"), Time: "08:00:00"},
	}

	assert.Equal(t, 2, l.CountDistinctDays())
	assert.ErrorIs(t, l.Verify(), ErrDuplicateDay)

	deduped := l.Dedup()
	require.Len(t, deduped, 2)
	assert.Equal(t, "08:00:00", deduped[0].Time)
	assert.NoError(t, deduped.Verify())
}

func days(l Ledger) []Day {
	out := make([]Day, len(l))
	for i, r := range l {
		out[i] = r.Day()
	}
	return out
}
