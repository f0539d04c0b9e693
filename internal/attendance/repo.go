package attendance

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"selfattend/internal/metrics"
	"selfattend/internal/store"
)

// KeyPrefix is prepended to the user id to form a storage key.
const KeyPrefix = "attendanceData_"

// storedTimeLayout matches the millisecond ISO-8601 UTC form, e.g. 2024-03-10T00:00:00.000Z.
const storedTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// StorageKey derives the per-user storage key.
func StorageKey(userID string) string {
	return KeyPrefix + userID
}

type storedRecord struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Repository persists whole ledgers in a KV store, one entry per user.
type Repository struct {
	kv     store.KV
	loc    *time.Location
	logger *slog.Logger
}

// NewRepository creates a repo. Loaded dates are converted to loc.
func NewRepository(kv store.KV, loc *time.Location, logger *slog.Logger) *Repository {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{kv: kv, loc: loc, logger: logger}
}

// Location is the calendar location ledgers are compared in.
func (r *Repository) Location() *time.Location {
	return r.loc
}

// Load returns the saved ledger for userID. The returned ledger is always
// usable: a missing entry yields an empty ledger and a nil error, while a
// read or decode failure yields an empty ledger together with the error.
// Entries whose date or time does not parse are dropped. When two entries
// share a day only the first is kept.
func (r *Repository) Load(ctx context.Context, userID string) (Ledger, error) {
	key := StorageKey(userID)
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		metrics.LedgerLoads.WithLabelValues("missing").Inc()
		return Ledger{}, nil
	}
	if err != nil {
		metrics.LedgerLoads.WithLabelValues("read_error").Inc()
		return Ledger{}, errors.Wrapf(err, "load ledger %s", key)
	}

	var stored []storedRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		metrics.LedgerLoads.WithLabelValues("decode_error").Inc()
		return Ledger{}, errors.Wrapf(err, "decode ledger %s", key)
	}

	ledger := make(Ledger, 0, len(stored))
	for i, s := range stored {
		rec, err := r.decode(s)
		if err != nil {
			metrics.MalformedRecords.Inc()
			r.logger.Warn("skipping malformed attendance record",
				slog.String("key", key), slog.Int("index", i), slog.String("error", err.Error()))
			continue
		}
		ledger = append(ledger, rec)
	}

	if err := ledger.Verify(); err != nil {
		metrics.IntegrityViolations.Inc()
		r.logger.Error("attendance ledger failed integrity check",
			slog.String("key", key), slog.String("error", err.Error()))
		ledger = ledger.Dedup()
	}

	metrics.LedgerLoads.WithLabelValues("ok").Inc()
	return ledger, nil
}

// Save overwrites the stored ledger for userID.
func (r *Repository) Save(ctx context.Context, userID string, l Ledger) error {
	stored := make([]storedRecord, len(l))
	for i, rec := range l {
		stored[i] = storedRecord{
			Date: rec.Date.UTC().Format(storedTimeLayout),
			Time: rec.Time,
		}
	}
	key := StorageKey(userID)
	raw, err := json.Marshal(stored)
	if err != nil {
		metrics.LedgerSaves.WithLabelValues("error").Inc()
		return errors.Wrapf(err, "encode ledger %s", key)
	}
	if err := r.kv.Set(ctx, key, string(raw)); err != nil {
		metrics.LedgerSaves.WithLabelValues("error").Inc()
		return errors.Wrapf(err, "save ledger %s", key)
	}
	metrics.LedgerSaves.WithLabelValues("ok").Inc()
	return nil
}

func (r *Repository) decode(s storedRecord) (Record, error) {
	date, err := time.Parse(time.RFC3339, s.Date)
	if err != nil {
		return Record{}, errors.Wrap(err, "date")
	}
	t, err := time.Parse(TimeLayout, s.Time)
	if err != nil {
		return Record{}, errors.Wrap(err, "time")
	}
	// the layout also accepts one-digit hours
	if t.Format(TimeLayout) != s.Time {
		return Record{}, errors.Errorf("time %q is not HH:MM:SS", s.Time)
	}
	return Record{Date: date.In(r.loc), Time: s.Time}, nil
}
