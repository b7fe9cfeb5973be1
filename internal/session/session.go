package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/traitors-backend/internal/engine"
)

var ErrClosed = errors.New("session closed")

type Msg interface{ isSessionMsg() }

type Join struct {
	PlayerID string
	Name     string
	Outbox   chan Outgoing // where this player receives events and snapshots
	Reply    chan error
}

func (Join) isSessionMsg() {}

type Leave struct{ PlayerID string }

func (Leave) isSessionMsg() {}

type FromClient struct {
	PlayerID string
	Cmd      engine.Command
}

func (FromClient) isSessionMsg() {}

// TimerFired is posted by the phase timer armed for phase generation Seq.
type TimerFired struct{ Seq int }

func (TimerFired) isSessionMsg() {}

type GetSnapshot struct {
	PlayerID string
	Reply    chan *engine.View // nil for players not in the session
}

func (GetSnapshot) isSessionMsg() {}

type GetSummary struct {
	Reply chan engine.Summary
}

func (GetSummary) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type reap struct{}

func (reap) isSessionMsg() {}

// Outgoing is one frame for a player: an event, a fresh snapshot, or an
// error caused by that player's own command.
type Outgoing struct {
	Version int
	Event   *engine.Event
	View    *engine.View
	Err     error
}

// View is a race-free look at the actor's internals for tests.
type View struct {
	Version    int
	NumClients int
	PhaseSeq   int
	Summary    engine.Summary
}

// Recorder stores finished games.
type Recorder interface {
	Record(ctx context.Context, res engine.Result) error
}

type Options struct {
	Logger    *zap.Logger
	Now       func() time.Time
	ReapAfter time.Duration // how long a finished session lingers
	Recorder  Recorder
	OnClose   func(id string)
}

type Session struct {
	id      string
	inbox   chan Msg
	state   *engine.State
	version int
	clients map[string]chan Outgoing
	timer   scheduler
	armed   int // PhaseSeq the timer was last armed for
	opts    Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(parent context.Context, state *engine.State, opts Options) *Session {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		id:      state.ID,
		inbox:   make(chan Msg, 64),
		state:   state,
		clients: make(map[string]chan Outgoing),
		opts:    opts,
		log:     opts.Logger.With(zap.String("session", state.ID)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.join(msg)

			case Leave:
				delete(s.clients, msg.PlayerID)
				s.apply(msg.PlayerID, engine.Command{Type: engine.CmdLeave, PlayerID: msg.PlayerID})
				if s.state.Phase == engine.PhaseLobby && len(s.state.Players) == 0 {
					s.log.Info("session abandoned in lobby")
					s.shutdown()
					return
				}

			case FromClient:
				cmd := msg.Cmd
				cmd.PlayerID = msg.PlayerID
				s.apply(msg.PlayerID, cmd)

			case TimerFired:
				s.apply("", engine.Command{Type: engine.CmdTimeoutAdvance, Seq: msg.Seq})

			case GetSnapshot:
				if v, ok := s.state.SnapshotFor(msg.PlayerID); ok {
					msg.Reply <- &v
				} else {
					msg.Reply <- nil
				}

			case GetSummary:
				msg.Reply <- s.state.Summary()

			case GetState:
				// test-only: reflect internal state without data races
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.clients),
					PhaseSeq:   s.state.PhaseSeq,
					Summary:    s.state.Summary(),
				}

			case reap:
				s.log.Info("reaping finished session")
				s.shutdown()
				return

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) join(msg Join) {
	events, err := engine.Apply(s.state, engine.Command{
		Type:     engine.CmdJoin,
		PlayerID: msg.PlayerID,
		Name:     msg.Name,
		At:       s.opts.Now(),
	})
	msg.Reply <- err
	if err != nil {
		return
	}
	s.clients[msg.PlayerID] = msg.Outbox
	s.log.Info("player joined", zap.String("player", msg.PlayerID), zap.Int("players", len(s.state.Players)))
	s.publish(events)
}

// apply runs cmd through the engine. A rejection goes back to the sender
// only; timer rejections are stale fires and are dropped.
func (s *Session) apply(sender string, cmd engine.Command) {
	cmd.At = s.opts.Now()
	events, err := engine.Apply(s.state, cmd)
	if err != nil {
		if errors.Is(err, engine.ErrStaleTimer) {
			s.log.Debug("dropped stale timer", zap.Int("seq", cmd.Seq))
			return
		}
		s.log.Debug("command rejected", zap.String("player", sender), zap.String("cmd", string(cmd.Type)), zap.Error(err))
		if ch, ok := s.clients[sender]; ok {
			s.send(sender, ch, Outgoing{Version: s.version, Err: err})
		}
		return
	}
	s.publish(events)
}

// publish re-arms the timer if the phase moved, delivers events to their
// audience and sends every connected player a fresh snapshot.
func (s *Session) publish(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	s.schedule()
	s.version++

	for i := range events {
		e := &events[i]
		if e.Broadcast() {
			for id, ch := range s.clients {
				s.send(id, ch, Outgoing{Version: s.version, Event: e})
			}
			continue
		}
		for _, id := range e.Recipients {
			if ch, ok := s.clients[id]; ok {
				s.send(id, ch, Outgoing{Version: s.version, Event: e})
			}
		}
	}

	for id, ch := range s.clients {
		v, ok := s.state.SnapshotFor(id)
		if !ok {
			continue
		}
		s.send(id, ch, Outgoing{Version: s.version, View: &v})
	}
}

func (s *Session) schedule() {
	if s.state.PhaseSeq == s.armed {
		return
	}
	s.armed = s.state.PhaseSeq

	switch {
	case engine.Timed(s.state.Phase):
		seq := s.state.PhaseSeq
		d := s.state.Deadline.Sub(s.opts.Now())
		s.timer.arm(d, func() { s.post(TimerFired{Seq: seq}) })
		s.log.Debug("phase started", zap.String("phase", string(s.state.Phase)), zap.Duration("in", d))

	case s.state.Phase == engine.PhaseGameOver:
		s.log.Info("game over", zap.Stringer("winner", s.state.Winner), zap.Int("rounds", s.state.Round))
		s.timer.arm(s.opts.ReapAfter, func() { s.post(reap{}) })
		s.record()

	default:
		s.timer.stop()
	}
}

func (s *Session) record() {
	rec := s.opts.Recorder
	res, ok := s.state.Result()
	if rec == nil || !ok {
		return
	}
	ctx := context.WithoutCancel(s.ctx)
	go func() {
		if err := rec.Record(ctx, res); err != nil {
			s.log.Warn("archive game", zap.Error(err))
		}
	}()
}

func (s *Session) send(id string, ch chan Outgoing, out Outgoing) {
	select {
	case ch <- out:
	default:
		// Client is slow/full - drop them.
		s.log.Warn("dropping slow client", zap.String("player", id))
		close(ch)
		delete(s.clients, id)
	}
}

func (s *Session) post(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

func (s *Session) shutdown() {
	s.timer.stop()
	for id, ch := range s.clients {
		close(ch) // Tell client no more frames
		delete(s.clients, id)
	}
	s.cancel()
	if s.opts.OnClose != nil {
		s.opts.OnClose(s.id)
	}
}

func (s *Session) ID() string { return s.id }

// Inbox exposes the actor's mailbox to tests and the transport.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the session. It does not wait for the loop to exit.
func (s *Session) Close() { s.cancel() }

// Join seats a player and registers outbox for their frames.
func (s *Session) Join(ctx context.Context, playerID, name string, outbox chan Outgoing) error {
	reply := make(chan error, 1)
	if err := s.request(ctx, Join{PlayerID: playerID, Name: name, Outbox: outbox, Reply: reply}); err != nil {
		return err
	}
	joinErr, err := receive(ctx, s, reply)
	if err != nil {
		return err
	}
	return joinErr
}

func (s *Session) Leave(playerID string) { s.post(Leave{PlayerID: playerID}) }

func (s *Session) Send(playerID string, cmd engine.Command) {
	s.post(FromClient{PlayerID: playerID, Cmd: cmd})
}

func (s *Session) Snapshot(ctx context.Context, playerID string) (engine.View, error) {
	reply := make(chan *engine.View, 1)
	if err := s.request(ctx, GetSnapshot{PlayerID: playerID, Reply: reply}); err != nil {
		return engine.View{}, err
	}
	v, err := receive(ctx, s, reply)
	if err != nil {
		return engine.View{}, err
	}
	if v == nil {
		return engine.View{}, engine.ErrUnknownPlayer
	}
	return *v, nil
}

func (s *Session) Summary(ctx context.Context) (engine.Summary, error) {
	reply := make(chan engine.Summary, 1)
	if err := s.request(ctx, GetSummary{Reply: reply}); err != nil {
		return engine.Summary{}, err
	}
	return receive(ctx, s, reply)
}

func (s *Session) request(ctx context.Context, m Msg) error {
	select {
	case s.inbox <- m:
		return nil
	case <-s.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func receive[T any](ctx context.Context, s *Session, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
