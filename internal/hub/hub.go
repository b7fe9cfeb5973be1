package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/traitors-backend/internal/engine"
	"github.com/DoyleJ11/traitors-backend/internal/session"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidPlayerCount = errors.New("player count must be between 6 and 12")
	ErrHubClosed          = errors.New("hub closed")
)

const (
	MinPlayers = 6
	MaxPlayers = 12
)

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	HostID      string
	PlayerCount int
	Reply       chan Created
}

type Created struct {
	Session *session.Session
	Err     error
}

type GetSession struct {
	ID    string
	Reply chan *session.Session // nil when unknown
}

type ListSessions struct {
	Reply chan []*session.Session
}

type RemoveSession struct {
	ID string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (ListSessions) isHubMsg()  {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type Options struct {
	Logger    *zap.Logger
	Rules     func(playerCount int) engine.Rules
	ReapAfter time.Duration
	Recorder  session.Recorder
}

// Hub is the session registry. It alone owns the id -> session map; each
// session runs on its own goroutine and never blocks another.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	opts     Options
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Rules == nil {
		opts.Rules = engine.DefaultRules
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		opts:     opts,
		log:      opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed after the hub and all its sessions are stopped.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				s, err := h.create(msg.HostID, msg.PlayerCount)
				msg.Reply <- Created{Session: s, Err: err}

			case GetSession:
				msg.Reply <- h.sessions[msg.ID] // May be nil

			case ListSessions:
				out := make([]*session.Session, 0, len(h.sessions))
				for _, s := range h.sessions {
					out = append(out, s)
				}
				msg.Reply <- out

			case RemoveSession:
				if _, ok := h.sessions[msg.ID]; ok {
					delete(h.sessions, msg.ID)
					h.log.Info("session removed", zap.String("session", msg.ID), zap.Int("active", len(h.sessions)))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(hostID string, playerCount int) (*session.Session, error) {
	if playerCount < MinPlayers || playerCount > MaxPlayers {
		return nil, ErrInvalidPlayerCount
	}

	var id string
	for {
		c, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		if _, taken := h.sessions[c]; !taken {
			id = c
			break
		}
		h.log.Debug("collision on code, regenerating", zap.String("code", c))
	}

	state := engine.NewState(id, hostID, h.opts.Rules(playerCount))
	s := session.New(h.ctx, state, session.Options{
		Logger:    h.log,
		ReapAfter: h.opts.ReapAfter,
		Recorder:  h.opts.Recorder,
		OnClose:   h.remove,
	})
	h.sessions[id] = s
	h.log.Info("session created", zap.String("session", id), zap.Int("player_count", playerCount))
	return s, nil
}

// remove runs on the closing session's goroutine.
func (h *Hub) remove(id string) {
	select {
	case h.inbox <- RemoveSession{ID: id}:
	case <-h.ctx.Done():
	}
}

// shutdown cancels the hub context, which every session context derives
// from, then waits for the sessions to wind down.
func (h *Hub) shutdown() {
	h.cancel()
	for _, s := range h.sessions {
		<-s.Done()
	}
	clear(h.sessions)
}

// Shutdown stops the hub and every session it owns.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
	<-h.done
}

func (h *Hub) Create(ctx context.Context, hostID string, playerCount int) (*session.Session, error) {
	reply := make(chan Created, 1)
	if err := h.request(ctx, CreateSession{HostID: hostID, PlayerCount: playerCount, Reply: reply}); err != nil {
		return nil, err
	}
	c, err := receive(ctx, h, reply)
	if err != nil {
		return nil, err
	}
	return c.Session, c.Err
}

func (h *Hub) Get(ctx context.Context, id string) (*session.Session, error) {
	reply := make(chan *session.Session, 1)
	if err := h.request(ctx, GetSession{ID: id, Reply: reply}); err != nil {
		return nil, err
	}
	s, err := receive(ctx, h, reply)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Join seats a player in an existing session. A session that shut down
// between lookup and join reads as not found.
func (h *Hub) Join(ctx context.Context, id, playerID, name string, outbox chan session.Outgoing) (*session.Session, error) {
	s, err := h.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Join(ctx, playerID, name, outbox); err != nil {
		if errors.Is(err, session.ErrClosed) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// Leave gives up playerID's seat. Mid-game this is a forfeit.
func (h *Hub) Leave(ctx context.Context, id, playerID string) error {
	s, err := h.Get(ctx, id)
	if err != nil {
		return err
	}
	s.Leave(playerID)
	return nil
}

// Reap closes session id now; it leaves the registry once it has stopped.
func (h *Hub) Reap(ctx context.Context, id string) error {
	s, err := h.Get(ctx, id)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// List returns summaries of every live session.
func (h *Hub) List(ctx context.Context) ([]engine.Summary, error) {
	reply := make(chan []*session.Session, 1)
	if err := h.request(ctx, ListSessions{Reply: reply}); err != nil {
		return nil, err
	}
	sessions, err := receive(ctx, h, reply)
	if err != nil {
		return nil, err
	}

	out := make([]engine.Summary, 0, len(sessions))
	for _, s := range sessions {
		sum, err := s.Summary(ctx)
		if errors.Is(err, session.ErrClosed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func (h *Hub) request(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func receive[T any](ctx context.Context, h *Hub, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-h.done:
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrHubClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
