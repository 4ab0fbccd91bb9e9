package alert

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/alert"
	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
)

type Handler struct {
	svc *alert.Service
}

func NewHandler(svc *alert.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Patch("/{id}/read", h.markRead)
	r.Delete("/{id}", h.delete)
}

type alertResponse struct {
	ID        uuid.UUID `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(a *alert.Alert) alertResponse {
	return alertResponse{ID: a.ID, Message: a.Message, Read: a.Read, CreatedAt: a.CreatedAt}
}

type createRequest struct {
	Message string `json:"message" validate:"required,max=255"`
}

// list serves ?unread=true to hide read alerts.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	alerts, err := h.svc.List(r.Context(), userID, r.URL.Query().Get("unread") == "true")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		resp[i] = toResponse(a)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	a, err := h.svc.Create(r.Context(), userID, req.Message)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(a))
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	a, err := h.svc.MarkRead(r.Context(), userID, id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		render.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
