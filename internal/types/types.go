package types

import "github.com/DoyleJ11/traitors-backend/internal/engine"

type ClientMessage struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id,omitempty"`
	RoomID   string `json:"room_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Channel  string `json:"channel,omitempty"` // "traitor" | "faithful"; defaults to own role
	Text     string `json:"text,omitempty"`
	Accept   bool   `json:"accept,omitempty"`
}

type ServerMessage struct {
	Type      string        `json:"type"` // "Welcome" | "StateSnapshot" | "Event" | "Error"
	Version   int           `json:"version,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	PlayerID  string        `json:"player_id,omitempty"`
	State     *engine.View  `json:"state,omitempty"`
	Event     *engine.Event `json:"event,omitempty"`
	Error     string        `json:"error,omitempty"`
}

const (
	MsgWelcome       = "Welcome"
	MsgStateSnapshot = "StateSnapshot"
	MsgEvent         = "Event"
	MsgError         = "Error"
)
