package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/traitors-backend/internal/engine"
)

// helper: receive one frame with a timeout so tests never hang
func recvFrame(t *testing.T, ch <-chan Outgoing, within time.Duration) Outgoing {
	t.Helper()
	select {
	case out, ok := <-ch:
		require.True(t, ok, "outbox closed unexpectedly")
		return out
	case <-time.After(within):
		t.Fatalf("timed out waiting for frame")
		return Outgoing{} // unreachable
	}
}

func recvNoFrame(t *testing.T, ch <-chan Outgoing, within time.Duration) {
	t.Helper()
	select {
	case out, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected no frame within %v, got %+v", within, out)
	case <-time.After(within):
	}
}

func recvView(t *testing.T, s *Session) View {
	t.Helper()
	reply := make(chan View, 1)
	s.Inbox() <- GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for view")
		return View{}
	}
}

// waitPhase drains ch until a snapshot in phase p shows up.
func waitPhase(t *testing.T, ch <-chan Outgoing, p engine.Phase, within time.Duration) engine.View {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case out, ok := <-ch:
			require.True(t, ok, "outbox closed while waiting for %s", p)
			if out.View != nil && out.View.Phase == p {
				return *out.View
			}
		case <-deadline:
			t.Fatalf("never saw phase %s", p)
		}
	}
}

func newSession(t *testing.T, rules engine.Rules, opts Options) *Session {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, engine.NewState("s1", "p1", rules), opts)
}

func fill(t *testing.T, s *Session, n int) []chan Outgoing {
	t.Helper()
	outs := make([]chan Outgoing, n)
	for i := range outs {
		outs[i] = make(chan Outgoing, 128)
		require.NoError(t, s.Join(context.Background(), fmt.Sprintf("p%d", i+1), fmt.Sprintf("Player %d", i+1), outs[i]))
	}
	return outs
}

type recorder struct {
	mu      sync.Mutex
	results []engine.Result
	got     chan struct{}
}

func (r *recorder) Record(_ context.Context, res engine.Result) error {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	close(r.got)
	return nil
}

func TestSession_JoinBroadcastsSnapshot(t *testing.T) {
	s := newSession(t, engine.DefaultRules(6), Options{})

	out := make(chan Outgoing, 8)
	require.NoError(t, s.Join(context.Background(), "p1", "Ann", out))

	first := recvFrame(t, out, 100*time.Millisecond)
	require.NotNil(t, first.Event)
	assert.Equal(t, engine.EvtPlayerJoined, first.Event.Type)
	assert.Equal(t, 1, first.Version)

	snap := recvFrame(t, out, 100*time.Millisecond)
	require.NotNil(t, snap.View)
	assert.Equal(t, engine.PhaseLobby, snap.View.Phase)
	assert.True(t, snap.View.You.IsHost)

	err := s.Join(context.Background(), "p1", "Ann", make(chan Outgoing, 8))
	assert.ErrorIs(t, err, engine.ErrAlreadyJoined)
}

func TestSession_ErrorsGoToSenderOnly(t *testing.T) {
	s := newSession(t, engine.DefaultRules(6), Options{})
	outs := fill(t, s, 2)
	before := recvView(t, s).Version // every join frame is queued by now
	for _, out := range outs {
		for len(out) > 0 {
			<-out
		}
	}

	s.Send("p1", engine.Command{Type: engine.CmdCastVote, TargetID: "p2"})

	got := recvFrame(t, outs[0], 200*time.Millisecond)
	assert.ErrorIs(t, got.Err, engine.ErrWrongPhase)
	recvNoFrame(t, outs[1], 100*time.Millisecond)
	assert.Equal(t, before, recvView(t, s).Version)
}

func TestSession_DropSlowClient(t *testing.T) {
	s := newSession(t, engine.DefaultRules(6), Options{})

	// a join produces an event and a snapshot; one slot is not enough
	out := make(chan Outgoing, 1)
	require.NoError(t, s.Join(context.Background(), "p1", "Ann", out))

	assert.Equal(t, 0, recvView(t, s).NumClients)
}

func TestSession_TimerAdvancesPhase(t *testing.T) {
	rules := engine.DefaultRules(6)
	rules.RoleAssignment = 20 * time.Millisecond
	s := newSession(t, rules, Options{})

	outs := fill(t, s, 6)
	v := waitPhase(t, outs[0], engine.PhaseTraitorMeeting, time.Second)
	assert.Equal(t, 1, v.Round)
	require.NotNil(t, v.Deadline)
}

func TestSession_StaleTimerDropped(t *testing.T) {
	s := newSession(t, engine.DefaultRules(6), Options{})
	fill(t, s, 6)

	before := recvView(t, s)
	require.Equal(t, engine.PhaseRoleAssignment, before.Summary.Phase)

	s.Inbox() <- TimerFired{Seq: before.PhaseSeq - 1}
	after := recvView(t, s)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, engine.PhaseRoleAssignment, after.Summary.Phase)

	s.Inbox() <- TimerFired{Seq: before.PhaseSeq}
	assert.Equal(t, engine.PhaseTraitorMeeting, recvView(t, s).Summary.Phase)
}

func TestSession_EarlyPhaseChangeCancelsOldDeadline(t *testing.T) {
	rules := engine.DefaultRules(6)
	rules.RoleAssignment = 20 * time.Millisecond
	rules.TraitorMeeting = 300 * time.Millisecond
	rules.GroupDiscussion = time.Hour
	s := newSession(t, rules, Options{})
	ctx := context.Background()

	outs := fill(t, s, 6)
	waitPhase(t, outs[0], engine.PhaseTraitorMeeting, time.Second)

	var traitors []string
	victim := ""
	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("p%d", i)
		v, err := s.Snapshot(ctx, id)
		require.NoError(t, err)
		switch {
		case v.You.Role == engine.RoleTraitor:
			traitors = append(traitors, id)
		case victim == "":
			victim = id
		}
	}
	require.Len(t, traitors, 2)

	for _, id := range traitors {
		s.Send(id, engine.Command{Type: engine.CmdNightKillVote, TargetID: victim})
	}
	waitPhase(t, outs[0], engine.PhaseGroupDiscussion, time.Second)
	entered := recvView(t, s)
	require.Equal(t, engine.PhaseGroupDiscussion, entered.Summary.Phase)

	v, err := s.Snapshot(ctx, victim)
	require.NoError(t, err)
	require.True(t, v.You.IsEliminated)

	// the meeting's deadline passes while discussion is underway
	time.Sleep(2 * rules.TraitorMeeting)
	later := recvView(t, s)
	assert.Equal(t, engine.PhaseGroupDiscussion, later.Summary.Phase)
	assert.Equal(t, entered.PhaseSeq, later.PhaseSeq)
	assert.Equal(t, entered.Version, later.Version)
}

func TestSession_SnapshotAndSummary(t *testing.T) {
	s := newSession(t, engine.DefaultRules(6), Options{})
	fill(t, s, 3)

	v, err := s.Snapshot(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", v.You.ID)
	assert.Len(t, v.Players, 3)

	_, err = s.Snapshot(context.Background(), "nobody")
	assert.ErrorIs(t, err, engine.ErrUnknownPlayer)

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Players)
	assert.Equal(t, 6, sum.PlayerCount)
}

func TestSession_AbandonedLobbyCloses(t *testing.T) {
	closed := make(chan string, 1)
	s := newSession(t, engine.DefaultRules(6), Options{OnClose: func(id string) { closed <- id }})
	out := make(chan Outgoing, 8)
	require.NoError(t, s.Join(context.Background(), "p1", "Ann", out))

	s.Leave("p1")

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not close")
	}
	assert.Equal(t, "s1", <-closed)
}

func TestSession_GameOverArchivesAndReaps(t *testing.T) {
	rec := &recorder{got: make(chan struct{})}
	closed := make(chan string, 1)
	s := newSession(t, engine.DefaultRules(6), Options{
		ReapAfter: 20 * time.Millisecond,
		Recorder:  rec,
		OnClose:   func(id string) { closed <- id },
	})
	fill(t, s, 6)

	// every departure is a forfeit; the win check ends the game long
	// before the roster empties
	for i := 1; i <= 6; i++ {
		s.Leave(fmt.Sprintf("p%d", i))
	}

	select {
	case <-rec.got:
	case <-time.After(time.Second):
		t.Fatal("result was not archived")
	}
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("finished session was not reaped")
	}
	assert.Equal(t, "s1", <-closed)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.results, 1)
	assert.NotEqual(t, engine.RoleUnassigned, rec.results[0].Winner)
}

func TestSession_Shutdown_ClosesOutboxes(t *testing.T) {
	s := newSession(t, engine.DefaultRules(6), Options{})
	out := make(chan Outgoing, 8)
	require.NoError(t, s.Join(context.Background(), "p1", "Ann", out))

	s.Inbox() <- Shutdown{}
	<-s.Done()

	for range out {
	}
	err := s.Join(context.Background(), "p2", "Bo", make(chan Outgoing, 8))
	assert.ErrorIs(t, err, ErrClosed)
}
