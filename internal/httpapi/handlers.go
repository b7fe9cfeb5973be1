package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/traitors-backend/internal/archive"
	"github.com/DoyleJ11/traitors-backend/internal/hub"
	"github.com/DoyleJ11/traitors-backend/internal/session"
)

type createRequest struct {
	PlayerCount int `json:"player_count"`
}

// CreateSession opens an empty session; the first player to join hosts it.
func CreateSession(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		s, err := h.Create(r.Context(), "", req.PlayerCount)
		switch {
		case errors.Is(err, hub.ErrInvalidPlayerCount):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			log.Error("create session", zap.Error(err))
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: s.ID()})
	}
}

func ListSessions(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.List(r.Context())
		if err != nil {
			log.Error("list sessions", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		sum, err := s.Summary(r.Context())
		if errors.Is(err, session.ErrClosed) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// History lists archived games.
type History interface {
	Recent(ctx context.Context, limit int) ([]archive.GameRecord, error)
}

// RecentGames serves the latest finished games; ?limit= caps the list at 100.
func RecentGames(history History, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, "bad limit", http.StatusBadRequest)
				return
			}
			limit = min(n, 100)
		}

		games, err := history.Recent(r.Context(), limit)
		if err != nil {
			log.Error("recent games", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
