package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"selfattend/internal/metrics"
)

type entry struct {
	ctx       *Context
	expiresAt time.Time
}

// Manager holds the live sessions of the HTTP API, keyed by session id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	factory  func() *Context
	now      func() time.Time
}

// NewManager creates a manager. factory builds a fresh logged-out Context.
func NewManager(ttl time.Duration, factory func() *Context) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		sessions: make(map[string]entry),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
	}
}

// TTL is how long a session lives after Begin.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Begin logs id into a new Context and returns its session id.
func (m *Manager) Begin(ctx context.Context, id Identity) (string, *Context, error) {
	sc := m.factory()
	if err := sc.Login(ctx, id); err != nil {
		return "", nil, err
	}
	sid := uuid.NewString()

	m.mu.Lock()
	m.sessions[sid] = entry{ctx: sc, expiresAt: m.now().Add(m.ttl)}
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	return sid, sc, nil
}

// Get returns the live session for sid. Expired sessions are logged out and dropped.
func (m *Manager) Get(sid string) (*Context, bool) {
	m.mu.RLock()
	e, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		m.End(sid)
		return nil, false
	}
	return e.ctx, true
}

// End logs out and forgets sid.
func (m *Manager) End(sid string) {
	m.mu.Lock()
	e, ok := m.sessions[sid]
	delete(m.sessions, sid)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	if ok {
		e.ctx.Logout()
	}
}

// Sweep ends every expired session and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	var expired []string
	m.mu.RLock()
	for sid, e := range m.sessions {
		if now.After(e.expiresAt) {
			expired = append(expired, sid)
		}
	}
	m.mu.RUnlock()
	for _, sid := range expired {
		m.End(sid)
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
