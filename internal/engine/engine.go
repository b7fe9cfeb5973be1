package engine

import (
	"errors"
	"time"

	"github.com/DoyleJ11/traitors-backend/internal/chat"
)

var ErrWrongPhase = errors.New("not allowed in this phase")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrEliminated = errors.New("player is eliminated")
var ErrAlreadyVoted = errors.New("already voted")
var ErrInvalidTarget = errors.New("invalid target")
var ErrNotEligible = errors.New("not eligible")
var ErrNotMember = errors.New("not a room member")
var ErrRoomNotFound = errors.New("room not found")
var ErrSessionFull = errors.New("session full")
var ErrAlreadyJoined = errors.New("already joined")
var ErrInvalidName = errors.New("invalid name")
var ErrEmptyMessage = errors.New("empty message")
var ErrStaleTimer = errors.New("stale timer")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrGameOver = errors.New("game already over")

type Phase string

const (
	PhaseLobby           Phase = "lobby"
	PhaseRoleAssignment  Phase = "role_assignment"
	PhaseTraitorMeeting  Phase = "traitor_meeting"
	PhaseGroupDiscussion Phase = "group_discussion"
	PhaseVoting          Phase = "voting"
	PhaseRecruitment     Phase = "recruitment"
	PhaseGameOver        Phase = "game_over"
)

type CommandType string

const (
	CmdJoin                CommandType = "Join"
	CmdLeave               CommandType = "Leave"
	CmdCastVote            CommandType = "CastVote"
	CmdNightKillVote       CommandType = "NightKillVote"
	CmdRecruitmentResponse CommandType = "RecruitmentResponse"
	CmdRoleMessage         CommandType = "RoleMessage"
	CmdCreateRoom          CommandType = "CreateRoom"
	CmdJoinRoom            CommandType = "JoinRoom"
	CmdInviteToRoom        CommandType = "InviteToRoom"
	CmdRoomMessage         CommandType = "RoomMessage"
	CmdStartPrivateChat    CommandType = "StartPrivateChat"
	CmdPrivateMessage      CommandType = "PrivateMessage"
	CmdTimeoutAdvance      CommandType = "TimeoutAdvance"
)

/*
	CmdJoin             -> EvtPlayerJoined [-> EvtPhaseStarted -> EvtRolesAssigned once the roster is full]
	CmdCastVote         -> EvtVoteCast [-> EvtTraitorConsensus] [-> vote resolution once everyone voted]
	CmdNightKillVote    -> EvtTraitorConsensus [-> EvtPlayerEliminated -> EvtPhaseStarted]
	CmdTimeoutAdvance   -> EvtPhaseStarted, or the phase's resolution (votes, recruitment)
	Chat commands only emit their message/notification event.
*/

type Command struct {
	Type     CommandType
	PlayerID string
	Name     string
	TargetID string
	RoomID   string
	Channel  Role
	Text     string
	Accept   bool
	Seq      int // TimeoutAdvance: phase generation the timer was armed for
	At       time.Time
}

type EventType string

const (
	EvtPlayerJoined        EventType = "PlayerJoined"
	EvtPlayerLeft          EventType = "PlayerLeft"
	EvtRolesAssigned       EventType = "RolesAssigned"
	EvtPhaseStarted        EventType = "PhaseStarted"
	EvtVoteCast            EventType = "VoteCast"
	EvtTraitorConsensus    EventType = "TraitorConsensus"
	EvtPlayerEliminated    EventType = "PlayerEliminated"
	EvtRecruitmentOffered  EventType = "RecruitmentOffered"
	EvtRecruited           EventType = "Recruited"
	EvtRecruitmentDeclined EventType = "RecruitmentDeclined"
	EvtGameOver            EventType = "GameOver"
	EvtRoleMessage         EventType = "RoleMessage"
	EvtRoomCreated         EventType = "RoomCreated"
	EvtRoomJoined          EventType = "RoomJoined"
	EvtRoomInvite          EventType = "RoomInvite"
	EvtRoomMessage         EventType = "RoomMessage"
	EvtPrivateChatStarted  EventType = "PrivateChatStarted"
	EvtPrivateMessage      EventType = "PrivateMessage"
)

type ConsensusStatus string

const (
	ConsensusPending ConsensusStatus = "pending"
	ConsensusReached ConsensusStatus = "reached"
	ConsensusFailed  ConsensusStatus = "failed"
)

type ConsensusKind string

const (
	ConsensusDay   ConsensusKind = "day"
	ConsensusNight ConsensusKind = "night"
)

// Event is a fact produced by Apply. An empty Recipients list means the whole
// session may see it; otherwise only the listed players.
type Event struct {
	Type       EventType       `json:"type"`
	Recipients []string        `json:"-"`
	PlayerID   string          `json:"player_id,omitempty"`
	TargetID   string          `json:"target_id,omitempty"`
	RoomID     string          `json:"room_id,omitempty"`
	RoomName   string          `json:"room_name,omitempty"`
	Phase      Phase           `json:"phase,omitempty"`
	Role       Role            `json:"role,omitempty"`
	CoTraitors []string        `json:"co_traitors,omitempty"`
	Consensus  ConsensusStatus `json:"consensus,omitempty"`
	Kind       ConsensusKind   `json:"kind,omitempty"`
	Winner     Role            `json:"winner,omitempty"`
	Message    *chat.Message   `json:"message,omitempty"`
}

// Broadcast reports whether the event goes to every player.
func (e Event) Broadcast() bool { return len(e.Recipients) == 0 }

// Apply validates cmd against s and, if legal, mutates s and returns the
// resulting events. A rejected command leaves s untouched.
func Apply(s *State, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdJoin:
		return s.join(cmd)
	case CmdLeave:
		return s.leave(cmd)
	case CmdTimeoutAdvance:
		return s.timeout(cmd)
	}

	if s.Phase == PhaseGameOver {
		return nil, ErrGameOver
	}

	p, ok := s.Players[cmd.PlayerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if p.IsEliminated {
		return nil, ErrEliminated
	}

	switch cmd.Type {
	case CmdCastVote:
		return s.castVote(p, cmd)
	case CmdNightKillVote:
		return s.nightKillVote(p, cmd)
	case CmdRecruitmentResponse:
		return s.recruitmentResponse(p, cmd)
	case CmdRoleMessage:
		return s.roleMessage(p, cmd)
	case CmdCreateRoom:
		return s.createRoom(p, cmd)
	case CmdJoinRoom:
		return s.joinRoom(p, cmd)
	case CmdInviteToRoom:
		return s.inviteToRoom(p, cmd)
	case CmdRoomMessage:
		return s.roomMessage(p, cmd)
	case CmdStartPrivateChat:
		return s.startPrivateChat(p, cmd)
	case CmdPrivateMessage:
		return s.privateMessage(p, cmd)
	default:
		return nil, ErrUnsupportedCommand
	}
}
