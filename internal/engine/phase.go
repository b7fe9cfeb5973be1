package engine

import "time"

// next is the phase entered when a timed phase runs out without its own
// resolution. Voting and Recruitment resolve through resolveVoting and
// closeRecruitment instead.
var next = map[Phase]Phase{
	PhaseRoleAssignment:  PhaseTraitorMeeting,
	PhaseTraitorMeeting:  PhaseGroupDiscussion,
	PhaseGroupDiscussion: PhaseVoting,
	PhaseRecruitment:     PhaseTraitorMeeting,
}

// Duration is how long phase p may run; zero for untimed phases.
func (r Rules) Duration(p Phase) time.Duration {
	switch p {
	case PhaseRoleAssignment:
		return r.RoleAssignment
	case PhaseTraitorMeeting:
		return r.TraitorMeeting
	case PhaseGroupDiscussion:
		return r.GroupDiscussion
	case PhaseVoting:
		return r.Voting
	case PhaseRecruitment:
		return r.Recruitment
	default:
		return 0
	}
}

// Timed reports whether p carries a deadline.
func Timed(p Phase) bool {
	return p != PhaseLobby && p != PhaseGameOver
}

func (s *State) enterPhase(p Phase, now time.Time) []Event {
	s.Phase = p
	s.PhaseSeq++
	if Timed(p) {
		s.Deadline = now.Add(s.Rules.Duration(p))
	} else {
		s.Deadline = time.Time{}
	}

	switch p {
	case PhaseTraitorMeeting:
		s.Round++
		clear(s.KillBallots)
	case PhaseGroupDiscussion:
		clear(s.KillBallots)
	case PhaseVoting:
		s.Votes = nil
		clear(s.DayBallots)
		for _, pl := range s.Players {
			pl.HasVoted = false
			pl.Voted = false
		}
	}
	return []Event{{Type: EvtPhaseStarted, Phase: p}}
}

// timeout advances the phase whose timer fired. cmd.Seq must match the
// current PhaseSeq; a timer armed for an earlier phase is ignored.
func (s *State) timeout(cmd Command) ([]Event, error) {
	if cmd.Seq != s.PhaseSeq {
		return nil, ErrStaleTimer
	}
	switch s.Phase {
	case PhaseLobby, PhaseGameOver:
		return nil, ErrWrongPhase
	case PhaseVoting:
		return s.resolveVoting(cmd.At), nil
	case PhaseRecruitment:
		return s.closeRecruitment(cmd.At), nil
	default:
		return s.enterPhase(next[s.Phase], cmd.At), nil
	}
}
