package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rx3lixir/groupdecide/internal/archive"
	"github.com/rx3lixir/groupdecide/internal/catalog"
	"github.com/rx3lixir/groupdecide/internal/participant"
	"github.com/rx3lixir/groupdecide/internal/room"
	"github.com/rx3lixir/groupdecide/internal/websocket"
	"github.com/rx3lixir/groupdecide/pkg/httputil"
)

type RouterConfig struct {
	RoomHandler    *room.Handler
	ArchiveHandler *archive.Handler
	CatalogHandler *catalog.Handler
	WSHandler      *websocket.Handler
	Log            *slog.Logger
}

func NewRouter(config RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(config.Log))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondError(w, r, httputil.NotFound("route not found"), config.Log)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Compress(5))

		// Reference data, no identity needed
		config.CatalogHandler.RegisterRoutes(r)

		// Room commands act on behalf of a participant
		r.Group(func(r chi.Router) {
			r.Use(participant.Middleware(config.Log))

			r.Route("/rooms", func(r chi.Router) {
				config.RoomHandler.RegisterRoutes(r, config.ArchiveHandler.RegisterRoutes)
			})
		})
	})

	// Sessions identify themselves in the query string
	r.Route("/ws", config.WSHandler.RegisterRoutes)

	return r
}
