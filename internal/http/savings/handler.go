// Package savings serves savings plans and deposits into them.
package savings

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
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/deposits", h.deposit)
}

type planResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	StartDate     string          `json:"start_date"`
	TargetDate    string          `json:"target_date"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	Accumulated   decimal.Decimal `json:"accumulated"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

func toPlanResponse(p *ledger.SavingsPlan) planResponse {
	return planResponse{
		ID:            p.ID,
		Name:          p.Name,
		StartDate:     p.StartDate.Format(time.DateOnly),
		TargetDate:    p.TargetDate.Format(time.DateOnly),
		TargetAmount:  p.TargetAmount,
		InitialAmount: p.InitialAmount,
		Accumulated:   p.Accumulated,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type listResponse struct {
	Plans          []planResponse  `json:"plans"`
	CurrentCapital decimal.Decimal `json:"current_capital"`
}

type movementResponse struct {
	Plan    planResponse               `json:"plan"`
	Expense *transaction.EntryResponse `json:"expense,omitempty"`
	Balance decimal.Decimal            `json:"balance"`
}

func toMovementResponse(m *ledger.PlanMovement) movementResponse {
	resp := movementResponse{Plan: toPlanResponse(m.Plan), Balance: m.Balance}
	if m.Expense != nil {
		resp.Expense = new(transaction.ExpenseResponse(m.Expense))
	}

	return resp
}

type deletionResponse struct {
	Plan            planResponse    `json:"plan"`
	Reversed        decimal.Decimal `json:"reversed"`
	ExpensesRemoved int             `json:"expenses_removed"`
	Balance         decimal.Decimal `json:"balance"`
}

type createRequest struct {
	Name          string           `json:"name"`
	TargetAmount  decimal.Decimal  `json:"target_amount"`
	InitialAmount *decimal.Decimal `json:"initial_amount,omitempty"`
	StartDate     string           `json:"start_date"`
	TargetDate    string           `json:"target_date"`
}

type updateRequest struct {
	Name         *string          `json:"name,omitempty"`
	StartDate    *string          `json:"start_date,omitempty"`
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	TargetDate   *string          `json:"target_date,omitempty"`
}

type depositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description *string         `json:"description,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	plans, capital, err := h.svc.ListPlans(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := listResponse{Plans: make([]planResponse, len(plans)), CurrentCapital: capital}
	for i, p := range plans {
		resp.Plans[i] = toPlanResponse(p)
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

	m, err := h.svc.CreatePlan(r.Context(), userID, ledger.PlanParams{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		InitialAmount: req.InitialAmount,
		StartDate:     req.StartDate,
		TargetDate:    req.TargetDate,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toMovementResponse(m))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	plan, err := h.svc.GetPlan(r.Context(), userID, id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toPlanResponse(plan))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req updateRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	plan, err := h.svc.UpdatePlan(r.Context(), userID, id, ledger.PlanPatch{
		Name:         req.Name,
		StartDate:    req.StartDate,
		TargetAmount: req.TargetAmount,
		TargetDate:   req.TargetDate,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toPlanResponse(plan))
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

	d, err := h.svc.DeletePlan(r.Context(), userID, id)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, deletionResponse{
		Plan:            toPlanResponse(d.Plan),
		Reversed:        d.Reversed,
		ExpensesRemoved: d.ExpensesRemoved,
		Balance:         d.Balance,
	})
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	id, err := render.IDParam(r, "id")
	if err != nil {
		render.Error(w, r, err)
		return
	}

	var req depositRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	m, err := h.svc.Deposit(r.Context(), userID, id, ledger.DepositParams{
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toMovementResponse(m))
}
