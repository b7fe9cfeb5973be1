package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/traitors-backend/internal/engine"
	"github.com/DoyleJ11/traitors-backend/internal/hub"
	"github.com/DoyleJ11/traitors-backend/internal/session"
	"github.com/DoyleJ11/traitors-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	pingInterval = 30 * time.Second
	outboxSize   = 64
)

type Options struct {
	Logger         *zap.Logger
	ChatRate       rate.Limit // chat messages per second per connection
	ChatBurst      int
	OriginPatterns []string
}

// Handler upgrades a player's connection and bridges it to their session.
// Without a session query parameter the player creates a new session and
// hosts it.
func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ChatBurst <= 0 {
		opts.ChatRate, opts.ChatBurst = 1, 5
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		name := strings.TrimSpace(q.Get("name"))
		if name == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}

		playerID := uuid.NewString()
		outbox := make(chan session.Outgoing, outboxSize)
		s, err := seat(r.Context(), h, q.Get("session"), q.Get("players"), playerID, name, outbox)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		defer h.Leave(context.WithoutCancel(r.Context()), s.ID(), playerID)

		log := opts.Logger.With(zap.String("session", s.ID()), zap.String("player", playerID))

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Warn("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		if err := writeJSON(ctx, conn, types.ServerMessage{Type: types.MsgWelcome, SessionID: s.ID(), PlayerID: playerID}); err != nil {
			return
		}

		// Writer goroutine
		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case out, ok := <-outbox:
					if !ok {
						// the session dropped us or ended
						conn.Close(websocket.StatusGoingAway, "session closed")
						return
					}
					if err := writeJSON(ctx, conn, toServerMessage(out)); err != nil {
						return
					}
				}
			}
		}()

		// Keepalive
		go func() {
			t := time.NewTicker(pingInterval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
					err := conn.Ping(pctx)
					pcancel()
					if err != nil {
						cancel()
						return
					}
				}
			}
		}()

		limiter := rate.NewLimiter(opts.ChatRate, opts.ChatBurst)

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if ctx.Err() == nil {
						log.Debug("read", zap.Error(err))
					}
				}
				return // Leave in defer forfeits the seat
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = writeJSON(ctx, conn, types.ServerMessage{Type: types.MsgError, Error: "bad json"})
				continue
			}

			if cm.Type == "Sync" {
				v, err := s.Snapshot(ctx, playerID)
				if err != nil {
					return
				}
				_ = writeJSON(ctx, conn, types.ServerMessage{Type: types.MsgStateSnapshot, State: &v})
				continue
			}

			cmd, ok := toEngineCommand(cm)
			if !ok {
				_ = writeJSON(ctx, conn, types.ServerMessage{Type: types.MsgError, Error: "unknown type"})
				continue
			}
			if isChat(cmd.Type) && !limiter.Allow() {
				_ = writeJSON(ctx, conn, types.ServerMessage{Type: types.MsgError, Error: "slow down"})
				continue
			}

			s.Send(playerID, cmd)
		}
	}
}

// seat joins an existing session, or creates one when code is empty.
func seat(ctx context.Context, h *hub.Hub, code, players, playerID, name string, outbox chan session.Outgoing) (*session.Session, error) {
	if code != "" {
		return h.Join(ctx, code, playerID, name, outbox)
	}

	n, err := strconv.Atoi(players)
	if err != nil {
		return nil, hub.ErrInvalidPlayerCount
	}
	s, err := h.Create(ctx, playerID, n)
	if err != nil {
		return nil, err
	}
	if err := s.Join(ctx, playerID, name, outbox); err != nil {
		_ = h.Reap(ctx, s.ID())
		return nil, err
	}
	return s, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, hub.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrSessionFull), errors.Is(err, engine.ErrWrongPhase):
		return http.StatusConflict
	case errors.Is(err, hub.ErrInvalidPlayerCount), errors.Is(err, engine.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func toServerMessage(out session.Outgoing) types.ServerMessage {
	switch {
	case out.Err != nil:
		return types.ServerMessage{Type: types.MsgError, Version: out.Version, Error: out.Err.Error()}
	case out.Event != nil:
		return types.ServerMessage{Type: types.MsgEvent, Version: out.Version, Event: out.Event}
	default:
		return types.ServerMessage{Type: types.MsgStateSnapshot, Version: out.Version, State: out.View}
	}
}

var commandTypes = map[string]engine.CommandType{
	"CastVote":            engine.CmdCastVote,
	"NightKillVote":       engine.CmdNightKillVote,
	"RecruitmentResponse": engine.CmdRecruitmentResponse,
	"RoleMessage":         engine.CmdRoleMessage,
	"CreateRoom":          engine.CmdCreateRoom,
	"JoinRoom":            engine.CmdJoinRoom,
	"InviteToRoom":        engine.CmdInviteToRoom,
	"RoomMessage":         engine.CmdRoomMessage,
	"StartPrivateChat":    engine.CmdStartPrivateChat,
	"PrivateMessage":      engine.CmdPrivateMessage,
}

// toEngineCommand maps a client frame onto an engine command. The player id
// is filled in by the session, never taken from the client.
func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	typ, ok := commandTypes[m.Type]
	if !ok {
		return engine.Command{}, false
	}
	channel, ok := engine.ParseRole(m.Channel)
	if !ok {
		return engine.Command{}, false
	}
	return engine.Command{
		Type:     typ,
		TargetID: m.TargetID,
		RoomID:   m.RoomID,
		Name:     m.Name,
		Channel:  channel,
		Text:     m.Text,
		Accept:   m.Accept,
	}, true
}

func isChat(t engine.CommandType) bool {
	switch t {
	case engine.CmdRoleMessage, engine.CmdRoomMessage, engine.CmdPrivateMessage, engine.CmdCreateRoom:
		return true
	}
	return false
}
