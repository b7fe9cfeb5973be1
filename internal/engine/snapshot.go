package engine

import (
	"slices"
	"time"

	"github.com/DoyleJ11/traitors-backend/internal/chat"
)

type PlayerView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         Role   `json:"role,omitempty"` // only self, or everyone after game over
	IsHost       bool   `json:"is_host"`
	IsEliminated bool   `json:"is_eliminated"`
	HasVoted     bool   `json:"has_voted"`
}

type RoomView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Members  []string       `json:"members"`
	Messages []chat.Message `json:"messages"`
}

type OpenRoom struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
}

type ThreadView struct {
	ID       string         `json:"id"`
	With     string         `json:"with"`
	Messages []chat.Message `json:"messages"`
}

type RecruitmentView struct {
	EliminatedTraitor string `json:"eliminated_traitor"`
}

// View is one player's picture of the session. It never carries another
// player's role before the game ends, nor chat the player cannot see.
type View struct {
	SessionID    string           `json:"session_id"`
	Phase        Phase            `json:"phase"`
	Deadline     *time.Time       `json:"deadline,omitempty"`
	Round        int              `json:"round"`
	PlayerCount  int              `json:"player_count"`
	TraitorCount int              `json:"traitor_count"`
	You          PlayerView       `json:"you"`
	Players      []PlayerView     `json:"players"`
	CoTraitors   []string         `json:"co_traitors,omitempty"`
	RoleChannel  *RoomView        `json:"role_channel,omitempty"`
	Rooms        []RoomView       `json:"rooms"`
	OpenRooms    []OpenRoom       `json:"open_rooms,omitempty"`
	Threads      []ThreadView     `json:"threads"`
	Recruitment  *RecruitmentView `json:"recruitment,omitempty"`
	Winner       Role             `json:"winner,omitempty"`
}

// SnapshotFor computes playerID's view; ok is false for a stranger.
func (s *State) SnapshotFor(playerID string) (View, bool) {
	me, ok := s.Players[playerID]
	if !ok {
		return View{}, false
	}
	reveal := s.Phase == PhaseGameOver

	v := View{
		SessionID:    s.ID,
		Phase:        s.Phase,
		Round:        s.Round,
		PlayerCount:  s.Rules.PlayerCount,
		TraitorCount: s.TraitorCount,
		Rooms:        []RoomView{},
		Threads:      []ThreadView{},
		Winner:       s.Winner,
	}
	if !s.Deadline.IsZero() {
		d := s.Deadline
		v.Deadline = &d
	}

	for _, id := range s.Order {
		p := s.Players[id]
		pv := PlayerView{ID: p.ID, Name: p.Name, IsHost: p.IsHost, IsEliminated: p.IsEliminated, HasVoted: p.Voted}
		if reveal || id == playerID {
			pv.Role = p.Role
		}
		if id == playerID {
			pv.HasVoted = p.HasVoted
		}
		if id == playerID {
			v.You = pv
		}
		v.Players = append(v.Players, pv)
	}

	if me.Role == RoleTraitor {
		v.CoTraitors = s.names(without(s.living(RoleTraitor), playerID))
	}
	if me.Role != RoleUnassigned {
		ch := s.Chat.RoleChannel(me.Role.String())
		if ch.IsMember(playerID) {
			rv := roomView(ch, playerID)
			v.RoleChannel = &rv
		}
	}

	for _, r := range s.Chat.RoomsOf(playerID) {
		v.Rooms = append(v.Rooms, roomView(r, playerID))
	}
	if s.Phase == PhaseGroupDiscussion && !me.IsEliminated {
		for _, r := range s.Chat.Rooms() {
			if !r.IsMember(playerID) {
				v.OpenRooms = append(v.OpenRooms, OpenRoom{ID: r.ID, Name: r.Name, Members: len(r.Members())})
			}
		}
	}
	for _, t := range s.Chat.ThreadsOf(playerID) {
		v.Threads = append(v.Threads, ThreadView{ID: t.Key, With: t.Other(playerID), Messages: t.Messages()})
	}

	if s.Recruitment != nil && slices.Contains(s.Recruitment.Eligible, playerID) {
		v.Recruitment = &RecruitmentView{EliminatedTraitor: s.Recruitment.EliminatedTraitor}
	}
	return v, true
}

func roomView(r *chat.Room, playerID string) RoomView {
	return RoomView{ID: r.ID, Name: r.Name, Members: r.Members(), Messages: r.VisibleTo(playerID)}
}

// Summary is the public, role-free description of a session used by
// listings.
type Summary struct {
	ID          string    `json:"id"`
	Phase       Phase     `json:"phase"`
	Round       int       `json:"round"`
	Players     int       `json:"players"`
	PlayerCount int       `json:"player_count"`
	Alive       int       `json:"alive"`
	Winner      Role      `json:"winner,omitempty"`
	Deadline    time.Time `json:"deadline,omitzero"`
}

func (s *State) Summary() Summary {
	return Summary{
		ID:          s.ID,
		Phase:       s.Phase,
		Round:       s.Round,
		Players:     len(s.Players),
		PlayerCount: s.Rules.PlayerCount,
		Alive:       len(s.alive()),
		Winner:      s.Winner,
		Deadline:    s.Deadline,
	}
}
