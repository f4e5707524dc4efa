package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rx3lixir/groupdecide/internal/ledger"
	"github.com/rx3lixir/groupdecide/pkg/httputil"
)

type Handler struct {
	catalog *Catalog
	log     *slog.Logger
}

func NewHandler(catalog *Catalog, log *slog.Logger) *Handler {
	return &Handler{catalog: catalog, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/catalog", httputil.Handler(h.HandleSearch, h.log))
	r.Get("/emotions", httputil.Handler(h.HandleEmotions, h.log))
}

type SearchResponse struct {
	Items []Item   `json:"items"`
	Types []string `json:"types"`
}

// HandleSearch lists catalog items, optionally filtered by ?q= and ?type=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	items := h.catalog.Search(q.Get("q"), q.Get("type"))

	h.log.Debug("catalog search",
		"query", q.Get("q"),
		"type", q.Get("type"),
		"results", len(items))

	return httputil.RespondJSON(w, http.StatusOK, SearchResponse{
		Items: items,
		Types: h.catalog.Types(),
	})
}

type EmotionsResponse struct {
	Emotions []ledger.EmotionInfo `json:"emotions"`
}

// HandleEmotions returns the rating scale
func (h *Handler) HandleEmotions(w http.ResponseWriter, r *http.Request) error {
	return httputil.RespondJSON(w, http.StatusOK, EmotionsResponse{Emotions: ledger.Scale()})
}
