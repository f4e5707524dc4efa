package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/groupdecide/internal/participant"
	"github.com/rx3lixir/groupdecide/internal/room"
	"github.com/rx3lixir/groupdecide/pkg/httputil"
)

// RoomViewer checks membership and supplies the first snapshot of a session.
type RoomViewer interface {
	View(ctx context.Context, roomID, participantID string) (room.Snapshot, error)
}

type Handler struct {
	manager *Manager
	rooms   RoomViewer
	log     *slog.Logger
}

func NewHandler(manager *Manager, rooms RoomViewer, log *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		rooms:   rooms,
		log:     log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleConnection)
}

// HandleConnection upgrades a member's request to a session. Browsers cannot
// set headers on a WebSocket handshake, so identity comes from the query.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	roomID := strings.TrimSpace(q.Get("room_id"))
	if roomID == "" {
		httputil.RespondError(w, r, httputil.BadRequest("room_id parameter required"), h.log)
		return
	}

	participantID := strings.TrimSpace(q.Get("participant_id"))
	if !participant.ValidID(participantID) {
		httputil.RespondError(w, r, httputil.Unauthorized("valid participant_id parameter required"), h.log)
		return
	}

	sessionID := strings.TrimSpace(q.Get("session_id"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	_, err := h.rooms.View(checkCtx, roomID, participantID)
	cancel()
	if err != nil {
		httputil.RespondError(w, r, err, h.log)
		return
	}

	// Sessions outlive the server's request timeouts
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.manager.cfg.AllowedOrigins,
	})
	if err != nil {
		h.log.Warn("websocket upgrade failed", "room_id", roomID, "error", err)
		return
	}

	h.log.Info("establishing websocket connection",
		"room_id", roomID,
		"participant_id", participantID,
		"session_id", sessionID)

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	client, err := h.manager.attach(ctx, roomID, func(hub *Hub) *Client {
		return NewClient(participantID, sessionID, conn, hub, h.manager.cfg.SendBuffer, h.log)
	})
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "")
		return
	}

	go client.writePump(ctx)

	// Fetched after registration, so no published change can fall between
	// this snapshot and the broadcasts that follow it.
	snap, err := h.rooms.View(ctx, roomID, participantID)
	if err == nil {
		h.manager.primeClient(ctx, client, snap)
	} else {
		h.log.Debug("initial snapshot unavailable", "room_id", roomID, "error", err)
	}

	client.readPump(ctx)
}
