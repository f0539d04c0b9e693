package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfattend/internal/store"
)

func newManager(ttl time.Duration) *Manager {
	repo := newRepo(store.NewMemory())
	return NewManager(ttl, func() *Context { return New(repo, WithLogger(quiet)) })
}

func TestManager_BeginGetEnd(t *testing.T) {
	m := newManager(time.Hour)

	sid, sc, err := m.Begin(context.Background(), Identity{ID: "alice", DisplayName: "Alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, sid)

	got, ok := m.Get(sid)
	require.True(t, ok)
	assert.Same(t, sc, got)

	m.End(sid)
	_, ok = m.Get(sid)
	assert.False(t, ok)
	_, ok = sc.Identity()
	assert.False(t, ok)
}

func TestManager_RejectsEmptyIdentity(t *testing.T) {
	_, _, err := newManager(time.Hour).Begin(context.Background(), Identity{})
	assert.Error(t, err)
}

func TestManager_Expiry(t *testing.T) {
	m := newManager(time.Minute)
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	sid, _, err := m.Begin(context.Background(), Identity{ID: "alice"})
	require.NoError(t, err)
	other, _, err := m.Begin(context.Background(), Identity{ID: "bob"})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, ok := m.Get(sid)
	assert.False(t, ok)

	assert.Equal(t, 1, m.Sweep())
	_, ok = m.Get(other)
	assert.False(t, ok)
}

func TestManager_DefaultTTL(t *testing.T) {
	assert.Equal(t, 12*time.Hour, newManager(0).TTL())
}
