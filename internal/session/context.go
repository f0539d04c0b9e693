// Package session scopes ledger access to an authenticated identity.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"selfattend/internal/attendance"
	"selfattend/internal/metrics"
	"selfattend/internal/queue"
)

// ErrNoActiveSession is returned by ledger operations before Login or after Logout.
var ErrNoActiveSession = errors.New("no active session")

// Identity is the user as reported by the login provider.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Option configures a Context.
type Option func(*Context)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// WithPublisher publishes a queue message after every persisted mutation.
func WithPublisher(q queue.Queue) Option {
	return func(c *Context) { c.publisher = q }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// Context holds the current identity and its ledger.
type Context struct {
	mu        sync.Mutex
	repo      *attendance.Repository
	now       func() time.Time
	publisher queue.Queue
	logger    *slog.Logger

	identity *Identity
	ledger   attendance.Ledger
}

// New creates a logged-out context over repo.
func New(repo *attendance.Repository, opts ...Option) *Context {
	c := &Context{repo: repo, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login sets the identity and replaces the in-memory ledger with the stored one.
// A failed read leaves the session active with an empty ledger.
func (c *Context) Login(ctx context.Context, id Identity) error {
	if id.ID == "" {
		return errors.New("identity id required")
	}
	ledger, err := c.repo.Load(ctx, id.ID)
	if err != nil {
		c.logger.Warn("attendance ledger unavailable, starting empty",
			slog.String("user_id", id.ID), slog.String("error", err.Error()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = &id
	c.ledger = ledger
	return nil
}

// Logout drops identity and ledger. Stored data is untouched.
func (c *Context) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = nil
	c.ledger = nil
}

// Identity returns the logged-in identity.
func (c *Context) Identity() (Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return Identity{}, false
	}
	return *c.identity, true
}

// Toggle marks or unmarks date for the current user and saves the ledger
// when it changed. A future date yields OutcomeRejected and no write.
func (c *Context) Toggle(ctx context.Context, date time.Time) (attendance.Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return "", ErrNoActiveSession
	}

	now := c.Today()
	next, outcome := c.ledger.Toggle(date, now)
	metrics.Toggles.WithLabelValues(string(outcome)).Inc()
	if outcome == attendance.OutcomeRejected {
		return outcome, nil
	}
	c.ledger = next

	userID := c.identity.ID
	if err := c.repo.Save(ctx, userID, next); err != nil {
		return outcome, errors.Wrap(err, "save ledger")
	}
	c.logger.Debug("attendance toggled", slog.String("user_id", userID),
		slog.String("date", attendance.DayOf(date).String()), slog.String("outcome", string(outcome)))

	if c.publisher != nil {
		msg := queue.Message{
			Type:    queue.TypeLedgerSaved,
			UserID:  userID,
			Date:    attendance.DayOf(date).String(),
			Outcome: string(outcome),
			At:      now.UTC(),
		}
		if err := c.publisher.Publish(ctx, msg); err != nil {
			c.logger.Warn("ledger event publish failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		}
	}
	return outcome, nil
}

// Records returns a copy of the ledger, newest mark first.
func (c *Context) Records() (attendance.Ledger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil, ErrNoActiveSession
	}
	return append(attendance.Ledger{}, c.ledger...), nil
}

func (c *Context) IsMarked(date time.Time) (bool, error) {
	l, err := c.Records()
	if err != nil {
		return false, err
	}
	return l.IsMarked(date), nil
}

// TotalDays is the number of distinct days present.
func (c *Context) TotalDays() (int, error) {
	l, err := c.Records()
	if err != nil {
		return 0, err
	}
	return l.CountDistinctDays(), nil
}

func (c *Context) Month(ym attendance.YearMonth) (attendance.Ledger, error) {
	l, err := c.Records()
	if err != nil {
		return nil, err
	}
	return l.FilterByMonth(ym), nil
}

func (c *Context) Chart(ym attendance.YearMonth) (attendance.Chart, error) {
	l, err := c.Records()
	if err != nil {
		return attendance.Chart{}, err
	}
	return attendance.BuildChart(l, ym), nil
}

// ExportCSV renders the full ledger.
func (c *Context) ExportCSV() (string, error) {
	l, err := c.Records()
	if err != nil {
		return "", err
	}
	metrics.Exports.Inc()
	return attendance.ExportCSV(l), nil
}

// Today is the current time in the ledger's calendar location.
func (c *Context) Today() time.Time {
	return c.now().In(c.repo.Location())
}
