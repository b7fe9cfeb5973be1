package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/traitors-backend/internal/engine"
	"github.com/DoyleJ11/traitors-backend/internal/session"
)

func newHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(context.Background(), Options{ReapAfter: time.Minute})
	t.Cleanup(h.Shutdown)
	return h
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()

	s1, err := h.Create(ctx, "host", 6)
	require.NoError(t, err)
	assert.Len(t, s1.ID(), 6)

	s2, err := h.Get(ctx, s1.ID())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestHub_CreateValidatesPlayerCount(t *testing.T) {
	h := newHub(t)
	for _, n := range []int{0, 5, 13} {
		_, err := h.Create(context.Background(), "host", n)
		assert.ErrorIs(t, err, ErrInvalidPlayerCount, n)
	}
}

func TestHub_GetUnknown(t *testing.T) {
	h := newHub(t)
	_, err := h.Get(context.Background(), "NOPE00")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = h.Join(context.Background(), "NOPE00", "p1", "Ann", make(chan session.Outgoing, 8))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHub_JoinFullSession(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	s, err := h.Create(ctx, "p0", 6)
	require.NoError(t, err)

	for i := range 6 {
		_, err := h.Join(ctx, s.ID(), string(rune('a'+i)), "player", make(chan session.Outgoing, 64))
		require.NoError(t, err)
	}
	_, err = h.Join(ctx, s.ID(), "late", "Late", make(chan session.Outgoing, 64))
	assert.ErrorIs(t, err, engine.ErrSessionFull)
}

func TestHub_SessionsAreIsolated(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	a, err := h.Create(ctx, "p1", 6)
	require.NoError(t, err)
	b, err := h.Create(ctx, "p1", 8)
	require.NoError(t, err)
	require.NotEqual(t, a.ID(), b.ID())

	_, err = h.Join(ctx, a.ID(), "p1", "Ann", make(chan session.Outgoing, 8))
	require.NoError(t, err)

	sumA, err := a.Summary(ctx)
	require.NoError(t, err)
	sumB, err := b.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sumA.Players)
	assert.Equal(t, 0, sumB.Players)

	list, err := h.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestHub_RemovesClosedSession(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	s, err := h.Create(ctx, "p1", 6)
	require.NoError(t, err)

	s.Close()
	<-s.Done()

	require.Eventually(t, func() bool {
		_, err := h.Get(ctx, s.ID())
		return err == ErrSessionNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestHub_ShutdownStopsSessions(t *testing.T) {
	h := NewHub(context.Background(), Options{})
	s, err := h.Create(context.Background(), "p1", 6)
	require.NoError(t, err)

	h.Shutdown()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session outlived hub")
	}
	_, err = h.Get(context.Background(), s.ID())
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		c, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, c, 6)
		seen[c] = true
	}
	assert.Greater(t, len(seen), 90)
}

func TestHub_LeaveAndReap(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	s, err := h.Create(ctx, "p1", 6)
	require.NoError(t, err)
	_, err = h.Join(ctx, s.ID(), "p1", "Ann", make(chan session.Outgoing, 8))
	require.NoError(t, err)
	_, err = h.Join(ctx, s.ID(), "p2", "Bo", make(chan session.Outgoing, 8))
	require.NoError(t, err)

	require.NoError(t, h.Leave(ctx, s.ID(), "p2"))
	require.Eventually(t, func() bool {
		sum, err := s.Summary(ctx)
		return err == nil && sum.Players == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, h.Reap(ctx, s.ID()))
	<-s.Done()
	require.Eventually(t, func() bool {
		_, err := h.Get(ctx, s.ID())
		return errors.Is(err, ErrSessionNotFound)
	}, time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, h.Leave(ctx, s.ID(), "p1"), ErrSessionNotFound)
	assert.ErrorIs(t, h.Reap(ctx, "NOPE00"), ErrSessionNotFound)
}
