package engine

import "time"

type PlayerResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Eliminated bool   `json:"eliminated"`
}

// Result is the outcome of a finished game.
type Result struct {
	SessionID string         `json:"session_id"`
	Winner    Role           `json:"winner"`
	Rounds    int            `json:"rounds"`
	EndedAt   time.Time      `json:"ended_at"`
	Players   []PlayerResult `json:"players"`
}

// Result reports the outcome once the game is over.
func (s *State) Result() (Result, bool) {
	if s.Phase != PhaseGameOver {
		return Result{}, false
	}
	res := Result{SessionID: s.ID, Winner: s.Winner, Rounds: s.Round, EndedAt: s.EndedAt}
	for _, id := range s.Order {
		p := s.Players[id]
		res.Players = append(res.Players, PlayerResult{ID: p.ID, Name: p.Name, Role: p.Role, Eliminated: p.IsEliminated})
	}
	return res, true
}
