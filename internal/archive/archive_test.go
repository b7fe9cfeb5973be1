package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/traitors-backend/internal/engine"
)

func TestNewGameRecord(t *testing.T) {
	ended := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)
	res := engine.Result{
		SessionID: "ABC234",
		Winner:    engine.RoleFaithful,
		Rounds:    3,
		EndedAt:   ended,
		Players: []engine.PlayerResult{
			{ID: "p1", Name: "Ann", Role: engine.RoleTraitor, Eliminated: true},
			{ID: "p2", Name: "Bo", Role: engine.RoleFaithful},
		},
	}

	g := newGameRecord(res)
	assert.Equal(t, "ABC234", g.SessionID)
	assert.Equal(t, "faithful", g.Winner)
	assert.Equal(t, 3, g.Rounds)
	assert.Equal(t, ended, g.EndedAt)
	require.Len(t, g.Players, 2)
	assert.Equal(t, PlayerRecord{PlayerID: "p1", Name: "Ann", Role: "traitor", Eliminated: true}, g.Players[0])
	assert.Equal(t, "faithful", g.Players[1].Role)
}
