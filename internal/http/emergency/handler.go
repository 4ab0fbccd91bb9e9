package emergency

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/emergency"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
)

type Handler struct {
	svc *emergency.Service
}

func NewHandler(svc *emergency.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/active", h.active)
	r.Delete("/{id}", h.delete)
}

type fundResponse struct {
	ID            uuid.UUID       `json:"id"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Reason        string          `json:"reason"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toResponse(f *emergency.Fund) fundResponse {
	return fundResponse{
		ID:            f.ID,
		TargetAmount:  f.TargetAmount,
		CurrentAmount: f.CurrentAmount,
		Reason:        f.Reason,
		CreatedAt:     f.CreatedAt,
	}
}

type createRequest struct {
	TargetAmount  decimal.Decimal  `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount,omitempty"`
	Reason        string           `json:"reason"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	funds, err := h.svc.List(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]fundResponse, len(funds))
	for i, f := range funds {
		resp[i] = toResponse(f)
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

	f, err := h.svc.Create(r.Context(), userID, emergency.CreateParams{
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Reason:        req.Reason,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(f))
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	f, err := h.svc.Active(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toResponse(f))
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
