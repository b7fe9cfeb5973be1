package engine

import (
	"slices"
	"time"
)

// eliminate removes id from play. A traitor's elimination opens a
// recruitment offer to every living faithful, unless the game just ended.
func (s *State) eliminate(id string, now time.Time) []Event {
	p := s.Players[id]
	p.IsEliminated = true
	s.dropBallotsOf(id)
	events := []Event{{Type: EvtPlayerEliminated, PlayerID: id}}

	if over, done := s.checkWin(now); done {
		return append(events, over...)
	}
	if p.Role != RoleTraitor {
		return events
	}

	eligible := s.living(RoleFaithful)
	if len(eligible) == 0 {
		return events
	}
	s.Recruitment = &RecruitmentOffer{EliminatedTraitor: id, Eligible: eligible}
	events = append(events, s.enterPhase(PhaseRecruitment, now)...)
	return append(events, Event{
		Type:       EvtRecruitmentOffered,
		Recipients: slices.Clone(eligible),
		PlayerID:   id,
	})
}

// checkWin ends the game when no traitor is alive or when traitors have
// reached parity with the faithful.
func (s *State) checkWin(now time.Time) ([]Event, bool) {
	if s.Phase == PhaseLobby || s.Phase == PhaseGameOver {
		return nil, false
	}
	traitors, faithful := len(s.living(RoleTraitor)), len(s.living(RoleFaithful))

	var winner Role
	switch {
	case traitors == 0:
		winner = RoleFaithful
	case traitors >= faithful:
		winner = RoleTraitor
	default:
		return nil, false
	}

	s.Winner = winner
	s.EndedAt = now
	s.Recruitment = nil
	events := s.enterPhase(PhaseGameOver, now)
	return append(events, Event{Type: EvtGameOver, Winner: winner}), true
}

func (s *State) recruitmentResponse(p *Player, cmd Command) ([]Event, error) {
	if s.Phase != PhaseRecruitment || s.Recruitment == nil {
		return nil, ErrWrongPhase
	}
	if !slices.Contains(s.Recruitment.Eligible, p.ID) {
		return nil, ErrNotEligible
	}

	if !cmd.Accept {
		s.Recruitment.Eligible = without(s.Recruitment.Eligible, p.ID)
		events := []Event{{Type: EvtRecruitmentDeclined, Recipients: []string{p.ID}, PlayerID: p.ID}}
		if len(s.Recruitment.Eligible) == 0 {
			events = append(events, s.closeRecruitment(cmd.At)...)
		}
		return events, nil
	}

	p.Role = RoleTraitor
	s.Chat.RoleChannel(RoleFaithful.String()).Leave(p.ID)
	s.Chat.RoleChannel(RoleTraitor.String()).Join(p.ID, cmd.At)

	traitors := s.living(RoleTraitor)
	events := []Event{{
		Type:       EvtRecruited,
		Recipients: traitors,
		PlayerID:   p.ID,
		Role:       RoleTraitor,
		CoTraitors: s.names(without(traitors, p.ID)),
	}}
	return append(events, s.closeRecruitment(cmd.At)...), nil
}

// closeRecruitment withdraws the offer and resumes the night cycle, or
// ends the game if recruitment shifted parity.
func (s *State) closeRecruitment(now time.Time) []Event {
	s.Recruitment = nil
	if over, done := s.checkWin(now); done {
		return over
	}
	return s.enterPhase(PhaseTraitorMeeting, now)
}
