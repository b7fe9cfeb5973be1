package engine

import "time"

// Tally picks the day-vote loser: the target with the most votes. Ties go
// to the tied candidate whose first vote was cast earliest, so identical
// input always yields the same result. ok is false when votes is empty.
func Tally(votes []Vote) (target string, ok bool) {
	counts := map[string]int{}
	first := map[string]int{}
	for i, v := range votes {
		if _, seen := first[v.TargetID]; !seen {
			first[v.TargetID] = i
		}
		counts[v.TargetID]++
	}

	best := -1
	for t, n := range counts {
		switch {
		case n > best, n == best && first[t] < first[target]:
			target, best = t, n
		}
	}
	return target, best > 0
}

// consensus evaluates traitor ballots. complete is false until every voter
// has a ballot; unanimous is true only when all ballots name one target.
func consensus(ballots map[string]string, voters []string) (target string, complete, unanimous bool) {
	for _, id := range voters {
		if _, ok := ballots[id]; !ok {
			return "", false, false
		}
	}
	if len(voters) == 0 {
		return "", false, false
	}
	target = ballots[voters[0]]
	for _, id := range voters[1:] {
		if ballots[id] != target {
			return "", true, false
		}
	}
	return target, true, true
}

func (s *State) castVote(p *Player, cmd Command) ([]Event, error) {
	if s.Phase != PhaseVoting {
		return nil, ErrWrongPhase
	}
	if p.HasVoted {
		return nil, ErrAlreadyVoted
	}
	if cmd.TargetID == p.ID {
		return nil, ErrInvalidTarget
	}
	if _, ok := s.livingPlayer(cmd.TargetID); !ok {
		return nil, ErrInvalidTarget
	}

	// A traitor re-voting after a split is only announced to the bloc.
	cast := Event{Type: EvtVoteCast, PlayerID: p.ID}
	if p.Voted {
		cast.Recipients = s.living(RoleTraitor)
	}
	p.HasVoted, p.Voted = true, true
	events := []Event{cast}

	if p.Role == RoleTraitor {
		s.DayBallots[p.ID] = cmd.TargetID
		events = append(events, s.evaluateDayConsensus(cmd.At, p.ID)...)
	} else {
		s.Votes = append(s.Votes, Vote{VoterID: p.ID, TargetID: cmd.TargetID, At: cmd.At})
	}

	if s.allVoted() {
		events = append(events, s.resolveVoting(cmd.At)...)
	}
	return events, nil
}

// evaluateDayConsensus turns a unanimous traitor bloc into one recorded
// vote per traitor. A split bloc loses its ballots and votes again.
func (s *State) evaluateDayConsensus(now time.Time, voter string) []Event {
	traitors := s.living(RoleTraitor)
	target, complete, unanimous := consensus(s.DayBallots, traitors)
	e := Event{Type: EvtTraitorConsensus, Recipients: traitors, PlayerID: voter, Kind: ConsensusDay}

	switch {
	case !complete:
		e.Consensus = ConsensusPending
	case unanimous:
		e.Consensus, e.TargetID = ConsensusReached, target
		for _, id := range traitors {
			s.Votes = append(s.Votes, Vote{VoterID: id, TargetID: target, At: now})
		}
		clear(s.DayBallots)
	default:
		e.Consensus = ConsensusFailed
		clear(s.DayBallots)
		for _, id := range traitors {
			s.Players[id].HasVoted = false
		}
	}
	return []Event{e}
}

func (s *State) allVoted() bool {
	for _, id := range s.alive() {
		if !s.Players[id].HasVoted {
			return false
		}
	}
	return true
}

// resolveVoting closes the voting phase. Only recorded votes count; a
// traitor bloc that never agreed contributes nothing.
func (s *State) resolveVoting(now time.Time) []Event {
	target, ok := Tally(s.Votes)
	if !ok {
		return s.enterPhase(PhaseTraitorMeeting, now)
	}
	events := s.eliminate(target, now)
	if s.Phase == PhaseVoting {
		events = append(events, s.enterPhase(PhaseTraitorMeeting, now)...)
	}
	return events
}

func (s *State) nightKillVote(p *Player, cmd Command) ([]Event, error) {
	if s.Phase != PhaseTraitorMeeting {
		return nil, ErrWrongPhase
	}
	if p.Role != RoleTraitor {
		return nil, ErrNotEligible
	}
	t, ok := s.livingPlayer(cmd.TargetID)
	if !ok || t.Role != RoleFaithful {
		return nil, ErrInvalidTarget
	}

	s.KillBallots[p.ID] = cmd.TargetID
	return s.evaluateNightConsensus(cmd.At, p.ID), nil
}

func (s *State) evaluateNightConsensus(now time.Time, voter string) []Event {
	traitors := s.living(RoleTraitor)
	target, complete, unanimous := consensus(s.KillBallots, traitors)
	e := Event{Type: EvtTraitorConsensus, Recipients: traitors, PlayerID: voter, Kind: ConsensusNight}

	switch {
	case !complete:
		e.Consensus = ConsensusPending
		return []Event{e}
	case !unanimous:
		e.Consensus = ConsensusFailed
		clear(s.KillBallots)
		return []Event{e}
	}

	e.Consensus, e.TargetID = ConsensusReached, target
	clear(s.KillBallots)
	events := append([]Event{e}, s.eliminate(target, now)...)
	if s.Phase == PhaseTraitorMeeting {
		events = append(events, s.enterPhase(PhaseGroupDiscussion, now)...)
	}
	return events
}
