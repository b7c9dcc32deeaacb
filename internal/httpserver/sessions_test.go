package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cardmatch/internal/game"
)

func TestRegistryHoldBlocksCommands(t *testing.T) {
	s := New(Options{})
	old := s.sessions.acquire("anon-1", s.newEngine)
	old.mu.Unlock()

	release := s.sessions.hold(s.newEngine, "anon-1", "user-1")
	got := make(chan *sessionEntry, 1)
	go func() {
		e := s.sessions.acquire("anon-1", s.newEngine)
		e.mu.Unlock()
		got <- e
	}()

	select {
	case <-got:
		t.Fatal("guest command ran while its save was being moved")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	fresh := <-got
	assert.NotSame(t, old, fresh)
	assert.True(t, old.retired)
	assert.NotSame(t, old.eng, fresh.eng)
}

func TestRegistryEvictIdle(t *testing.T) {
	s := New(Options{})
	idle := s.sessions.acquire("idle", s.newEngine)
	idle.mu.Unlock()
	busy := s.sessions.acquire("busy", s.newEngine)

	assert.Equal(t, 1, s.sessions.evictIdle(time.Now().Add(time.Minute)))
	assert.Equal(t, 1, s.sessions.size())
	assert.True(t, idle.retired)
	busy.mu.Unlock()

	assert.Equal(t, 0, s.sessions.evictIdle(time.Now().Add(-time.Hour)))
	assert.Equal(t, 1, s.sessions.size())
}

func TestEvictIdleSessionsStopsWithContext(t *testing.T) {
	s := New(Options{})
	e := s.sessions.acquire("p", s.newEngine)
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.EvictIdleSessions(ctx, time.Nanosecond, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.sessions.size() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestEvictedPlayerKeepsProgress(t *testing.T) {
	env := newTestEnv(t, game.DefaultConfig())
	p := env.player(t)
	p.command("/session/resume", nil)
	id := p.cookie(anonCookieName)
	for _, pr := range pairs(p.arrangement(id)) {
		pick(p, pr[0])
		pick(p, pr[1])
	}

	env.server.sessions.evictIdle(time.Now().Add(time.Minute))
	require.Equal(t, 0, env.server.sessions.size())

	out := p.command("/session/next", nil)
	assert.Equal(t, 2, out.State.Level)
	assert.Equal(t, 50, out.State.TotalScore)

	env.server.sessions.evictIdle(time.Now().Add(time.Minute))
	out = p.command("/session/restart", nil)
	assert.Equal(t, 2, out.State.Level)
	assert.Equal(t, 6, out.State.RemainingTurns)
	assert.Equal(t, 50, out.State.TotalScore)

	snap, err := env.store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.CurrentLevel)
	assert.Equal(t, 50, snap.TotalScore)
}

func TestSignupSurfacesDatabaseErrors(t *testing.T) {
	env := newTestEnv(t, game.DefaultConfig())
	p := env.player(t)
	require.NoError(t, env.db.Close())

	res := p.do(http.MethodPost, "/auth/signup", credentials{Username: "carol", Password: "password123"})
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestInsertUserDuplicateIsTaken(t *testing.T) {
	env := newTestEnv(t, game.DefaultConfig())
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, env.server.insertUser(ctx, &userRow{ID: "u1", Username: "dave", PasswordHash: "x", CreatedAt: now}))
	err := env.server.insertUser(ctx, &userRow{ID: "u2", Username: "DAVE", PasswordHash: "x", CreatedAt: now})
	assert.ErrorIs(t, err, errUsernameTaken)
}

func TestCreateUserLookupError(t *testing.T) {
	env := newTestEnv(t, game.DefaultConfig())
	require.NoError(t, env.db.Close())

	_, err := env.server.createUser(context.Background(), "erin", "password123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsernameTaken)
}
