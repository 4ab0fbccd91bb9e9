// Package category serves the category catalogue.
package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/category"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
)

type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/", h.deleteUnused)
	r.Delete("/{id}", h.delete)
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	IsDefault bool      `json:"is_default"`
}

func toResponse(c *category.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Icon: c.Icon, IsDefault: c.IsDefault}
}

type usageResponse struct {
	categoryResponse
	Incomes  int `json:"incomes"`
	Expenses int `json:"expenses"`
}

type cleanupResponse struct {
	Deleted int             `json:"deleted"`
	Kept    []usageResponse `json:"kept"`
}

type createRequest struct {
	Name string `json:"name" validate:"required,max=50"`
	Icon string `json:"icon" validate:"required,max=10"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	cats, err := h.svc.List(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]categoryResponse, len(cats))
	for i, c := range cats {
		resp[i] = toResponse(c)
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

	c, err := h.svc.Create(r.Context(), userID, category.CreateParams{Name: req.Name, Icon: req.Icon})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(c))
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

func (h *Handler) deleteUnused(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	res, err := h.svc.DeleteUnused(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := cleanupResponse{Deleted: res.Deleted, Kept: make([]usageResponse, len(res.Kept))}
	for i, u := range res.Kept {
		resp.Kept[i] = usageResponse{categoryResponse: toResponse(u.Category), Incomes: u.Incomes, Expenses: u.Expenses}
	}

	render.JSON(w, http.StatusOK, resp)
}
