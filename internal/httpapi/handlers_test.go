package httpapi

import (
	"context"
	"errors"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/traitors-backend/internal/archive"
	"github.com/DoyleJ11/traitors-backend/internal/engine"
	"github.com/DoyleJ11/traitors-backend/internal/hub"
	"github.com/DoyleJ11/traitors-backend/internal/ws"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	h := hub.NewHub(context.Background(), hub.Options{})
	t.Cleanup(h.Shutdown)
	return SetupRoutes(h, zap.NewNop(), nil, ws.Options{})
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, newRouter(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetSession(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/sessions", `{"player_count":8}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.Len(t, created.Code, 6)

	rec = do(t, router, http.MethodGet, "/sessions/"+created.Code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum engine.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sum))
	assert.Equal(t, created.Code, sum.ID)
	assert.Equal(t, engine.PhaseLobby, sum.Phase)
	assert.Equal(t, 8, sum.PlayerCount)

	rec = do(t, router, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []engine.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 1)
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	router := newRouter(t)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/sessions", `{"player_count":20}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/sessions", `nope`).Code)
}

func TestGetUnknownSession(t *testing.T) {
	rec := do(t, newRouter(t), http.MethodGet, "/sessions/NOPE00", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeHistory struct {
	limit int
	err   error
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]archive.GameRecord, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []archive.GameRecord{{SessionID: "ABC234", Winner: "traitor", Rounds: 2}}, nil
}

func TestRecentGames(t *testing.T) {
	h := hub.NewHub(context.Background(), hub.Options{})
	t.Cleanup(h.Shutdown)
	hist := &fakeHistory{}
	router := SetupRoutes(h, zap.NewNop(), hist, ws.Options{})

	rec := do(t, router, http.MethodGet, "/games?limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, hist.limit)
	var games []archive.GameRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, "ABC234", games[0].SessionID)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/games?limit=x", "").Code)

	hist.err = errors.New("db down")
	assert.Equal(t, http.StatusServiceUnavailable, do(t, router, http.MethodGet, "/games", "").Code)
}

func TestGamesRouteNeedsArchive(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, do(t, newRouter(t), http.MethodGet, "/games", "").Code)
}
