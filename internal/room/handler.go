package room

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rx3lixir/groupdecide/internal/catalog"
	"github.com/rx3lixir/groupdecide/internal/ledger"
	"github.com/rx3lixir/groupdecide/internal/participant"
	"github.com/rx3lixir/groupdecide/pkg/httputil"
)

// Catalog resolves suggestion ids sent as item_original_id.
type Catalog interface {
	Lookup(id string) (catalog.Item, bool)
}

type Handler struct {
	registry   *Registry
	catalog    Catalog
	log        *slog.Logger
	cmdTimeout time.Duration
}

func NewHandler(registry *Registry, catalog Catalog, log *slog.Logger, cmdTimeout time.Duration) *Handler {
	if cmdTimeout == 0 {
		cmdTimeout = time.Second * 5
	}
	return &Handler{registry, catalog, log, cmdTimeout}
}

// RegisterRoutes mounts the room API. extra registers further routes scoped
// to a single room, under /{roomID}.
func (h *Handler) RegisterRoutes(r chi.Router, extra ...func(chi.Router)) {
	r.Post("/", httputil.Handler(h.HandleCreateRoom, h.log))
	r.Route("/{roomID}", func(r chi.Router) {
		for _, register := range extra {
			register(r)
		}

		r.Get("/", httputil.Handler(h.HandleGetRoom, h.log))
		r.Post("/join", httputil.Handler(h.HandleJoinRoom, h.log))
		r.Post("/leave", httputil.Handler(h.HandleLeaveRoom, h.log))

		r.Post("/items/private", httputil.Handler(h.HandleAddPrivateItem, h.log))
		r.Delete("/items/private/{itemID}", httputil.Handler(h.HandleDeletePrivateItem, h.log))
		r.Post("/items/private/{itemID}/promote", httputil.Handler(h.HandlePromoteItem, h.log))

		r.Post("/items/public", httputil.Handler(h.HandleHostAddItem, h.log))
		r.Delete("/items/public/{itemID}", httputil.Handler(h.HandleDeletePublicItem, h.log))
		r.Put("/items/public/{itemID}/rating", httputil.Handler(h.HandleRateItem, h.log))
		r.Delete("/items/public/{itemID}/rating", httputil.Handler(h.HandleClearRating, h.log))

		r.Post("/finalize", httputil.Handler(h.HandleFinalize, h.log))
		r.Post("/restart", httputil.Handler(h.HandleRestart, h.log))
	})
}

func (h *Handler) cmdCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cmdTimeout)
}

// target resolves the room addressed by the request.
func (h *Handler) target(r *http.Request) (*Actor, error) {
	roomID, err := httputil.PathParam(r, "roomID")
	if err != nil {
		return nil, err
	}
	return h.registry.Room(roomID)
}

func (h *Handler) respondView(w http.ResponseWriter, status int, snap Snapshot, participantID string) error {
	return httputil.RespondJSON(w, status, RoomResponse{Room: snap.ViewFor(participantID)})
}

// HandleCreateRoom creates a room hosted by the caller
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())

	req := new(CreateRoomRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := h.registry.Create(ctx, req.RoomName, Participant{ID: pid, Name: req.UserName})
	if err != nil {
		return err
	}

	return h.respondView(w, http.StatusCreated, snap, pid)
}

// HandleGetRoom returns the caller's view of the room
func (h *Handler) HandleGetRoom(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.View(ctx, pid)
	if err != nil {
		return err
	}
	return httputil.RespondJSON(w, http.StatusOK, RoomResponse{Room: snap})
}

func (h *Handler) HandleJoinRoom(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}

	req := new(JoinRoomRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.Join(ctx, Participant{ID: pid, Name: req.UserName})
	if err != nil {
		return err
	}

	h.log.Info("participant joined room",
		"room_id", actor.ID(),
		"participant_id", pid,
		"member_count", len(snap.Members))

	return h.respondView(w, http.StatusOK, snap, pid)
}

func (h *Handler) HandleLeaveRoom(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	if _, err := actor.Leave(ctx, pid); err != nil {
		return err
	}

	h.log.Info("participant left room",
		"room_id", actor.ID(),
		"participant_id", pid)

	return httputil.RespondJSON(w, http.StatusOK, LeaveRoomResponse{Message: "Left room successfully"})
}

func (h *Handler) HandleAddPrivateItem(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}

	req := new(AddItemRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	in := ledger.ItemInput{
		Name:      req.Name,
		Category:  req.Category,
		Type:      req.Type,
		CatalogID: req.CatalogID,
	}
	if req.CatalogID != "" {
		item, ok := h.catalog.Lookup(req.CatalogID)
		if !ok {
			return httputil.BadRequest("Unknown catalog item", map[string]string{
				"item_original_id": req.CatalogID,
			})
		}
		in.Name, in.Category, in.Type = item.Name, item.Category, item.Type
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.AddPrivateItem(ctx, pid, in)
	if err != nil {
		return err
	}
	return h.respondView(w, http.StatusCreated, snap, pid)
}

func (h *Handler) HandleDeletePrivateItem(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}
	itemID, err := httputil.PathParam(r, "itemID")
	if err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.DeletePrivateItem(ctx, pid, itemID)
	if err != nil {
		return err
	}
	return h.respondView(w, http.StatusOK, snap, pid)
}

// HandlePromoteItem moves one of the caller's private items to the public list.
// The body is optional.
func (h *Handler) HandlePromoteItem(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}
	itemID, err := httputil.PathParam(r, "itemID")
	if err != nil {
		return err
	}

	req := new(PromoteItemRequest)
	if err := httputil.DecodeOptionalJSON(r, req); err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.PromoteToPublic(ctx, pid, itemID, req.SubmittedBy)
	if err != nil {
		return err
	}

	h.log.Debug("item promoted",
		"room_id", actor.ID(),
		"participant_id", pid,
		"item_id", itemID,
		"public_count", len(snap.PublicItems))

	return h.respondView(w, http.StatusOK, snap, pid)
}

func (h *Handler) HandleHostAddItem(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}

	req := new(HostAddItemRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.HostAddPublicItem(ctx, pid, ledger.ItemInput{Name: req.Name, Type: req.Type})
	if err != nil {
		return err
	}
	return h.respondView(w, http.StatusCreated, snap, pid)
}

func (h *Handler) HandleDeletePublicItem(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}
	itemID, err := httputil.PathParam(r, "itemID")
	if err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.DeletePublicItem(ctx, pid, itemID)
	if err != nil {
		return err
	}

	h.log.Info("public item deleted",
		"room_id", actor.ID(),
		"participant_id", pid,
		"item_id", itemID)

	return h.respondView(w, http.StatusOK, snap, pid)
}

func (h *Handler) HandleRateItem(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}
	itemID, err := httputil.PathParam(r, "itemID")
	if err != nil {
		return err
	}

	req := new(RateItemRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}
	emotion, err := ledger.ParseEmotion(req.EmotionKey)
	if err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.RatePublicItem(ctx, pid, itemID, emotion)
	if err != nil {
		return err
	}
	return h.respondView(w, http.StatusOK, snap, pid)
}

func (h *Handler) HandleClearRating(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}
	itemID, err := httputil.PathParam(r, "itemID")
	if err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.ClearRating(ctx, pid, itemID)
	if err != nil {
		return err
	}
	return h.respondView(w, http.StatusOK, snap, pid)
}

func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.Finalize(ctx, pid)
	if err != nil {
		return err
	}

	h.log.Info("participant finalized ratings",
		"room_id", actor.ID(),
		"participant_id", pid,
		"done", len(snap.UsersDoneRating),
		"members", len(snap.Members),
		"phase", snap.Phase)

	return h.respondView(w, http.StatusOK, snap, pid)
}

func (h *Handler) HandleRestart(w http.ResponseWriter, r *http.Request) error {
	pid := participant.ID(r.Context())
	actor, err := h.target(r)
	if err != nil {
		return err
	}

	ctx, cancel := h.cmdCtx(r)
	defer cancel()

	snap, err := actor.Restart(ctx, pid)
	if err != nil {
		return err
	}

	h.log.Info("rating restarted",
		"room_id", actor.ID(),
		"host_id", pid)

	return h.respondView(w, http.StatusOK, snap, pid)
}
