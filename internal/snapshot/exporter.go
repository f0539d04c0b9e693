// Package snapshot keeps an attendance.csv per user in sync with the store.
package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"selfattend/internal/attendance"
	"selfattend/internal/metrics"
	"selfattend/internal/queue"
)

// Exporter rewrites a user's CSV export whenever their ledger is saved.
type Exporter struct {
	repo   *attendance.Repository
	dir    string
	logger *slog.Logger
}

// NewExporter writes snapshots under dir.
func NewExporter(repo *attendance.Repository, dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{repo: repo, dir: dir, logger: logger}
}

// Path is where userID's snapshot lives.
func (e *Exporter) Path(userID string) string {
	return filepath.Join(e.dir, safeName(userID), attendance.ExportFilename)
}

// Run consumes q until ctx is done or the queue closes.
func (e *Exporter) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return errors.Wrap(err, "consume")
	}
	e.logger.Info("snapshot exporter started", slog.String("dir", e.dir))
	for msg := range messages {
		if msg.Type != queue.TypeLedgerSaved {
			continue
		}
		if err := e.Handle(ctx, msg); err != nil {
			e.logger.Error("snapshot failed", slog.String("user_id", msg.UserID), slog.String("error", err.Error()))
		}
	}
	e.logger.Info("snapshot exporter stopped")
	return nil
}

// Handle reloads the ledger named by msg and writes its CSV.
func (e *Exporter) Handle(ctx context.Context, msg queue.Message) error {
	if msg.UserID == "" {
		return errors.New("message without user id")
	}
	ledger, err := e.repo.Load(ctx, msg.UserID)
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues("error").Inc()
		// an unreadable ledger must not replace a good snapshot with an empty one
		return errors.Wrap(err, "load ledger")
	}
	if err := writeAtomic(e.Path(msg.UserID), attendance.ExportCSV(ledger)); err != nil {
		metrics.SnapshotWrites.WithLabelValues("error").Inc()
		return err
	}
	metrics.SnapshotWrites.WithLabelValues("ok").Inc()
	e.logger.Debug("snapshot written", slog.String("user_id", msg.UserID), slog.Int("records", len(ledger)))
	return nil
}

func writeAtomic(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create snapshot dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".attendance-*.csv")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "rename snapshot")
}

// safeName keeps user ids from escaping the export directory.
func safeName(userID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '@', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.ReplaceAll(userID, "..", "__"))
}
