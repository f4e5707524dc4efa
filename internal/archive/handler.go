package archive

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rx3lixir/groupdecide/internal/participant"
	"github.com/rx3lixir/groupdecide/internal/room"
	"github.com/rx3lixir/groupdecide/pkg/httputil"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	downloadURLExpiry   = 15 * time.Minute
)

// RoomViewer checks that the caller is a member of the room.
type RoomViewer interface {
	View(ctx context.Context, roomID, participantID string) (room.Snapshot, error)
}

// Presigner turns an object key into a download link.
type Presigner interface {
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

type Handler struct {
	store     Store
	rooms     RoomViewer
	presigner Presigner
	log       *slog.Logger
	timeout   time.Duration
}

// NewHandler creates the history handler. presigner may be nil.
func NewHandler(store Store, rooms RoomViewer, presigner Presigner, log *slog.Logger, timeout time.Duration) *Handler {
	if timeout == 0 {
		timeout = time.Second * 5
	}
	return &Handler{store, rooms, presigner, log, timeout}
}

// RegisterRoutes expects a router already scoped to a single room.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/decisions/history", httputil.Handler(h.HandleHistory, h.log))
}

type HistoryEntry struct {
	*Record
	DownloadURL string `json:"download_url,omitempty"`
}

type HistoryResponse struct {
	Decisions []HistoryEntry `json:"decisions"`
	Count     int            `json:"count"`
}

// HandleHistory lists archived decision rounds of a room, newest first
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	roomID, err := httputil.PathParam(r, "roomID")
	if err != nil {
		return err
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxHistoryLimit {
			return httputil.BadRequest("limit must be between 1 and 100")
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.rooms.View(ctx, roomID, pid)
	if err != nil {
		return err
	}

	// A reused room code must not reveal the rounds of an earlier room
	records, err := h.store.ListDecisions(ctx, snap.UID, limit)
	if err != nil {
		h.log.Error("failed to list decisions",
			"room_id", roomID,
			"error", err)
		return httputil.Internal(err)
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entry := HistoryEntry{Record: rec}
		if h.presigner != nil && rec.ObjectKey != "" {
			url, err := h.presigner.PresignedURL(ctx, rec.ObjectKey, downloadURLExpiry)
			if err != nil {
				h.log.Warn("failed to presign decision document",
					"room_id", roomID,
					"object_key", rec.ObjectKey,
					"error", err)
			} else {
				entry.DownloadURL = url
			}
		}
		entries = append(entries, entry)
	}

	h.log.Debug("decision history retrieved",
		"room_id", roomID,
		"count", len(entries))

	return httputil.RespondJSON(w, http.StatusOK, HistoryResponse{
		Decisions: entries,
		Count:     len(entries),
	})
}
