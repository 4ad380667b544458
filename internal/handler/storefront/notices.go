package storefront

import (
	"net/http"

	"github.com/dukerupert/airkicks/internal/handler"
	"github.com/dukerupert/airkicks/internal/middleware"
	"github.com/dukerupert/airkicks/internal/notify"
)

// NoticeStore is the read side of the in-memory notice center.
type NoticeStore interface {
	Active(sessionID string) []notify.Notice
	Dismiss(sessionID, id string)
}

// NoticeHandler lets the page fetch and dismiss the shopper's pending notices.
type NoticeHandler struct {
	store    NoticeStore
	renderer *handler.Renderer
}

func NewNoticeHandler(store NoticeStore, renderer *handler.Renderer) *NoticeHandler {
	return &NoticeHandler{store: store, renderer: renderer}
}

// List handles GET /notices, newest first.
func (h *NoticeHandler) List(w http.ResponseWriter, r *http.Request) {
	notices := h.store.Active(middleware.GetSessionID(r.Context()))
	if notices == nil {
		notices = []notify.Notice{}
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, map[string]any{"notices": notices})
		return
	}
	h.renderer.RenderHTTP(w, http.StatusOK, "notices", notices)
}

// Dismiss handles POST /notices/{id}/dismiss.
func (h *NoticeHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.store.Dismiss(middleware.GetSessionID(r.Context()), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}
