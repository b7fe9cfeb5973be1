package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/traitors-backend/internal/hub"
	"github.com/DoyleJ11/traitors-backend/internal/ws"
)

// SetupRoutes wires the HTTP surface. history may be nil when no archive is
// configured; /games is then not served.
func SetupRoutes(h *hub.Hub, log *zap.Logger, history History, wsOpts ws.Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", ListSessions(h, log))
		r.Post("/", CreateSession(h, log))
		r.Get("/{id}", GetSession(h))
	})
	if history != nil {
		r.Get("/games", RecentGames(history, log))
	}
	r.Get("/ws", ws.Handler(h, wsOpts))
	return r
}
