package engine

import (
	"math/rand/v2"
	"strings"
	"time"
)

// TraitorCount is the number of traitors for a roster of n players.
func TraitorCount(n int) int {
	switch {
	case n >= 6 && n <= 8:
		return 2
	case n >= 9 && n <= 10:
		return 3
	case n >= 11 && n <= 12:
		return 4
	default:
		return 2
	}
}

// shuffle permutes ids uniformly (Fisher-Yates). Tests stub it.
var shuffle = func(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

func (s *State) join(cmd Command) ([]Event, error) {
	if _, ok := s.Players[cmd.PlayerID]; ok {
		return nil, ErrAlreadyJoined
	}
	if len(s.Players) >= s.Rules.PlayerCount {
		return nil, ErrSessionFull
	}
	if s.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	name := strings.TrimSpace(cmd.Name)
	if cmd.PlayerID == "" || name == "" {
		return nil, ErrInvalidName
	}

	if s.HostID == "" {
		s.HostID = cmd.PlayerID
	}
	s.Players[cmd.PlayerID] = &Player{
		ID:     cmd.PlayerID,
		Name:   name,
		IsHost: cmd.PlayerID == s.HostID,
	}
	s.Order = append(s.Order, cmd.PlayerID)
	events := []Event{{Type: EvtPlayerJoined, PlayerID: cmd.PlayerID}}

	if len(s.Players) == s.Rules.PlayerCount {
		events = append(events, s.enterPhase(PhaseRoleAssignment, cmd.At)...)
		events = append(events, s.assignRoles(cmd.At)...)
	}
	return events, nil
}

// assignRoles partitions the roster once per game; afterwards only
// recruitment changes a role.
func (s *State) assignRoles(now time.Time) []Event {
	ids := append([]string(nil), s.Order...)
	shuffle(ids)

	traitors := min(s.TraitorCount, len(ids))
	traitorCh := s.Chat.RoleChannel(RoleTraitor.String())
	faithfulCh := s.Chat.RoleChannel(RoleFaithful.String())
	for i, id := range ids {
		if i < traitors {
			s.Players[id].Role = RoleTraitor
			traitorCh.Join(id, now)
		} else {
			s.Players[id].Role = RoleFaithful
			faithfulCh.Join(id, now)
		}
	}

	events := make([]Event, 0, len(s.Order))
	for _, id := range s.Order {
		e := Event{Type: EvtRolesAssigned, Recipients: []string{id}, PlayerID: id, Role: s.Players[id].Role}
		if e.Role == RoleTraitor {
			e.CoTraitors = s.names(without(s.living(RoleTraitor), id))
		}
		events = append(events, e)
	}
	return events
}

// leave handles a disconnect. In the lobby the seat is freed; once roles
// exist the player forfeits: they are eliminated (without a recruitment
// offer) so vote and parity bookkeeping stays consistent.
func (s *State) leave(cmd Command) ([]Event, error) {
	p, ok := s.Players[cmd.PlayerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	left := Event{Type: EvtPlayerLeft, PlayerID: p.ID}

	if s.Phase == PhaseLobby {
		delete(s.Players, p.ID)
		s.Order = without(s.Order, p.ID)
		if s.HostID == p.ID {
			s.handOffHost()
		}
		return []Event{left}, nil
	}
	if s.Phase == PhaseGameOver || p.IsEliminated {
		return []Event{left}, nil
	}

	p.IsEliminated = true
	s.dropBallotsOf(p.ID)
	if s.Recruitment != nil {
		s.Recruitment.Eligible = without(s.Recruitment.Eligible, p.ID)
	}
	events := []Event{left, {Type: EvtPlayerEliminated, PlayerID: p.ID}}

	if over, done := s.checkWin(cmd.At); done {
		return append(events, over...), nil
	}

	switch s.Phase {
	case PhaseVoting:
		if len(s.DayBallots) > 0 {
			events = append(events, s.evaluateDayConsensus(cmd.At, "")...)
		}
		if s.Phase == PhaseVoting && s.allVoted() {
			events = append(events, s.resolveVoting(cmd.At)...)
		}
	case PhaseTraitorMeeting:
		if len(s.KillBallots) > 0 {
			events = append(events, s.evaluateNightConsensus(cmd.At, "")...)
		}
	case PhaseRecruitment:
		if s.Recruitment == nil || len(s.Recruitment.Eligible) == 0 {
			events = append(events, s.closeRecruitment(cmd.At)...)
		}
	}
	return events, nil
}

// handOffHost gives the host seat to the longest-waiting player, or frees it
// for the next joiner when the lobby is empty.
func (s *State) handOffHost() {
	s.HostID = ""
	if len(s.Order) == 0 {
		return
	}
	s.HostID = s.Order[0]
	s.Players[s.HostID].IsHost = true
}

// dropBallotsOf removes every ballot cast by or aimed at id. Voters whose
// choice pointed at id get their vote back.
func (s *State) dropBallotsOf(id string) {
	delete(s.DayBallots, id)
	delete(s.KillBallots, id)
	for voter, target := range s.DayBallots {
		if target == id {
			delete(s.DayBallots, voter)
			s.Players[voter].HasVoted = false
			s.Players[voter].Voted = false
		}
	}
	for voter, target := range s.KillBallots {
		if target == id {
			delete(s.KillBallots, voter)
		}
	}

	kept := s.Votes[:0]
	for _, v := range s.Votes {
		switch {
		case v.VoterID == id:
		case v.TargetID == id:
			s.Players[v.VoterID].HasVoted = false
			s.Players[v.VoterID].Voted = false
		default:
			kept = append(kept, v)
		}
	}
	s.Votes = kept
}
