package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfattend/internal/attendance"
	"selfattend/internal/queue"
	"selfattend/internal/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixedClock(s string) func() time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := attendance.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func newRepo(kv store.KV) *attendance.Repository {
	return attendance.NewRepository(kv, time.UTC, quiet)
}

func TestContext_RequiresIdentity(t *testing.T) {
	sc := New(newRepo(store.NewMemory()), WithLogger(quiet))

	_, err := sc.Toggle(context.Background(), date(t, "2024-03-10"))
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = sc.Records()
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = sc.ExportCSV()
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, ok := sc.Identity()
	assert.False(t, ok)

	assert.Error(t, sc.Login(context.Background(), Identity{DisplayName: "no id"}))
}

func TestContext_TogglePersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	repo := newRepo(kv)
	sc := New(repo, WithClock(fixedClock("2024-03-10T09:00:00")), WithLogger(quiet))
	require.NoError(t, sc.Login(ctx, Identity{ID: "alice", DisplayName: "Alice"}))

	outcome, err := sc.Toggle(ctx, date(t, "2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeMarked, outcome)

	stored, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "09:00:00", stored[0].Time)

	outcome, err = sc.Toggle(ctx, date(t, "2024-03-10"))
	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeUnmarked, outcome)

	stored, err = repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestContext_FutureToggleWritesNothing(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	q := queue.NewInMemory(1)
	sc := New(newRepo(kv), WithClock(fixedClock("2024-03-10T09:00:00")), WithPublisher(q), WithLogger(quiet))
	require.NoError(t, sc.Login(ctx, Identity{ID: "alice"}))

	outcome, err := sc.Toggle(ctx, date(t, "2024-03-11"))

	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeRejected, outcome)
	_, err = kv.Get(ctx, attendance.StorageKey("alice"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	total, err := sc.TotalDays()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestContext_PublishesLedgerEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := queue.NewInMemory(4)
	sc := New(newRepo(store.NewMemory()), WithClock(fixedClock("2024-03-10T09:00:00")), WithPublisher(q), WithLogger(quiet))
	require.NoError(t, sc.Login(ctx, Identity{ID: "alice"}))

	_, err := sc.Toggle(ctx, date(t, "2024-03-05"))
	require.NoError(t, err)

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	select {
	case msg := <-ch:
		assert.Equal(t, queue.TypeLedgerSaved, msg.Type)
		assert.Equal(t, "alice", msg.UserID)
		assert.Equal(t, "2024-03-05", msg.Date)
		assert.Equal(t, "marked", msg.Outcome)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestContext_LoginSwitchesLedger(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(store.NewMemory())
	sc := New(repo, WithClock(fixedClock("2024-03-31T12:00:00")), WithLogger(quiet))

	require.NoError(t, sc.Login(ctx, Identity{ID: "alice"}))
	_, err := sc.Toggle(ctx, date(t, "2024-03-05"))
	require.NoError(t, err)
	_, err = sc.Toggle(ctx, date(t, "2024-03-20"))
	require.NoError(t, err)

	require.NoError(t, sc.Login(ctx, Identity{ID: "bob"}))
	records, err := sc.Records()
	require.NoError(t, err)
	assert.Empty(t, records)

	sc.Logout()
	_, err = sc.Records()
	assert.ErrorIs(t, err, ErrNoActiveSession)

	require.NoError(t, sc.Login(ctx, Identity{ID: "alice"}))
	marked, err := sc.IsMarked(date(t, "2024-03-20"))
	require.NoError(t, err)
	assert.True(t, marked)
}

func TestContext_Projections(t *testing.T) {
	ctx := context.Background()
	sc := New(newRepo(store.NewMemory()), WithClock(fixedClock("2024-04-02T10:00:00")), WithLogger(quiet))
	require.NoError(t, sc.Login(ctx, Identity{ID: "alice"}))
	for _, d := range []string{"2024-03-05", "2024-03-20", "2024-04-01"} {
		_, err := sc.Toggle(ctx, date(t, d))
		require.NoError(t, err)
	}
	march := attendance.YearMonth{Year: 2024, Month: time.March}

	month, err := sc.Month(march)
	require.NoError(t, err)
	assert.Len(t, month, 2)

	chart, err := sc.Chart(march)
	require.NoError(t, err)
	assert.Equal(t, 1, chart.Series[0].Values[4])
	assert.Equal(t, 1, chart.Series[0].Values[19])

	total, err := sc.TotalDays()
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	csv, err := sc.ExportCSV()
	require.NoError(t, err)
	assert.Equal(t, "Date,Time\n2024-04-01,10:00:00\n2024-03-20,10:00:00\n2024-03-05,10:00:00", csv)
}

func TestContext_RecordsIsACopy(t *testing.T) {
	ctx := context.Background()
	sc := New(newRepo(store.NewMemory()), WithClock(fixedClock("2024-03-10T09:00:00")), WithLogger(quiet))
	require.NoError(t, sc.Login(ctx, Identity{ID: "alice"}))
	_, err := sc.Toggle(ctx, date(t, "2024-03-10"))
	require.NoError(t, err)

	records, err := sc.Records()
	require.NoError(t, err)
	records[0].Time = "00:00:00"

	again, err := sc.Records()
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", again[0].Time)
}

func TestContext_ToggleCapturesTimeInLedgerZone(t *testing.T) {
	ctx := context.Background()
	jst := time.FixedZone("JST", 9*60*60)
	repo := attendance.NewRepository(store.NewMemory(), jst, quiet)
	sc := New(repo, WithClock(fixedClock("2024-03-10T01:00:00")), WithLogger(quiet))
	require.NoError(t, sc.Login(ctx, Identity{ID: "alice"}))
	d, err := attendance.ParseDate("2024-03-10", jst)
	require.NoError(t, err)

	outcome, err := sc.Toggle(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, attendance.OutcomeMarked, outcome)

	records, err := sc.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "10:00:00", records[0].Time)
}
