// Package subscription serves recurring costs and their payments.
package subscription

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
	"github.com/MrJamesThe3rd/capital/internal/http/transaction"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/payments", h.pay)
}

type subscriptionResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Cost      decimal.Decimal `json:"cost"`
	Frequency string          `json:"frequency"`
	StartDate string          `json:"start_date"`
	CreatedAt time.Time       `json:"created_at"`
}

func toResponse(s *ledger.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Cost:      s.Cost,
		Frequency: s.Frequency,
		StartDate: s.StartDate.Format(time.DateOnly),
		CreatedAt: s.CreatedAt,
	}
}

type paymentResponse struct {
	Subscription subscriptionResponse      `json:"subscription"`
	Expense      transaction.EntryResponse `json:"expense"`
	Balance      decimal.Decimal           `json:"balance"`
}

type createRequest struct {
	Name      string          `json:"name"`
	Cost      decimal.Decimal `json:"cost"`
	Frequency string          `json:"frequency"`
	StartDate string          `json:"start_date"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	subs, err := h.svc.ListSubscriptions(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]subscriptionResponse, len(subs))
	for i, s := range subs {
		resp[i] = toResponse(s)
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

	sub, err := h.svc.CreateSubscription(r.Context(), userID, ledger.SubscriptionParams{
		Name:      req.Name,
		Cost:      req.Cost,
		Frequency: req.Frequency,
		StartDate: req.StartDate,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toResponse(sub))
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

	if err := h.svc.DeleteSubscription(r.Context(), userID, id); err != nil {
		render.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	p, err := h.svc.PaySubscription(r.Context(), userID, id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, paymentResponse{
		Subscription: toResponse(p.Subscription),
		Expense:      transaction.ExpenseResponse(p.Expense),
		Balance:      p.Balance,
	})
}
