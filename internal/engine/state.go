package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/DoyleJ11/traitors-backend/internal/chat"
	"github.com/google/uuid"
)

// Role is the secret faction of a player.
type Role uint8

const (
	RoleUnassigned Role = iota
	RoleTraitor
	RoleFaithful
)

func (r Role) String() string {
	switch r {
	case RoleTraitor:
		return "traitor"
	case RoleFaithful:
		return "faithful"
	default:
		return ""
	}
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	role, ok := ParseRole(string(b))
	if !ok {
		return fmt.Errorf("unknown role %q", b)
	}
	*r = role
	return nil
}

func ParseRole(s string) (Role, bool) {
	switch s {
	case "traitor":
		return RoleTraitor, true
	case "faithful":
		return RoleFaithful, true
	case "":
		return RoleUnassigned, true
	default:
		return RoleUnassigned, false
	}
}

type Player struct {
	ID           string
	Name         string
	Role         Role
	IsHost       bool
	IsEliminated bool
	// HasVoted gates casting. A split traitor bloc clears it so the bloc
	// can vote again.
	HasVoted bool
	// Voted is what other players see. It is only cleared when a new
	// Voting phase starts or when the player's vote is handed back
	// because its target left.
	Voted bool
}

type Vote struct {
	VoterID  string
	TargetID string
	At       time.Time
}

type RecruitmentOffer struct {
	EliminatedTraitor string
	Eligible          []string
}

type Rules struct {
	PlayerCount     int
	RoleAssignment  time.Duration
	TraitorMeeting  time.Duration
	GroupDiscussion time.Duration
	Voting          time.Duration
	Recruitment     time.Duration
}

func DefaultRules(playerCount int) Rules {
	return Rules{
		PlayerCount:     playerCount,
		RoleAssignment:  120 * time.Second,
		TraitorMeeting:  180 * time.Second,
		GroupDiscussion: 300 * time.Second,
		Voting:          180 * time.Second,
		Recruitment:     60 * time.Second,
	}
}

type State struct {
	ID           string
	HostID       string
	Rules        Rules
	Phase        Phase
	Deadline     time.Time
	PhaseSeq     int // bumped on every phase entry
	Round        int
	TraitorCount int
	Winner       Role
	EndedAt      time.Time

	Players map[string]*Player
	Order   []string // join order

	Votes       []Vote            // day votes in cast order
	DayBallots  map[string]string // traitor bloc ballots awaiting consensus
	KillBallots map[string]string // night-kill ballots awaiting consensus
	Recruitment *RecruitmentOffer

	Chat *chat.Board
}

func NewState(id, hostID string, rules Rules) *State {
	return &State{
		ID:           id,
		HostID:       hostID,
		Rules:        rules,
		Phase:        PhaseLobby,
		TraitorCount: TraitorCount(rules.PlayerCount),
		Players:      map[string]*Player{},
		DayBallots:   map[string]string{},
		KillBallots:  map[string]string{},
		Chat:         chat.NewBoard(),
	}
}

// newID names rooms and messages; swapped out in tests.
var newID = uuid.NewString

// living returns the non-eliminated players holding role, in join order.
func (s *State) living(role Role) []string {
	out := []string{}
	for _, id := range s.Order {
		if p := s.Players[id]; !p.IsEliminated && p.Role == role {
			out = append(out, id)
		}
	}
	return out
}

func (s *State) alive() []string {
	out := []string{}
	for _, id := range s.Order {
		if !s.Players[id].IsEliminated {
			out = append(out, id)
		}
	}
	return out
}

func (s *State) livingPlayer(id string) (*Player, bool) {
	p, ok := s.Players[id]
	if !ok || p.IsEliminated {
		return nil, false
	}
	return p, true
}

func (s *State) names(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.Players[id]; ok {
			out = append(out, p.Name)
		}
	}
	return out
}

func without(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(x string) bool { return x == id })
}
