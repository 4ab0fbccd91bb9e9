// Package transaction serves the journal: incomes, expenses and the reports
// built from them.
package transaction

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) IncomeRoutes(r chi.Router) {
	r.Get("/", h.listIncomes)
	r.Post("/", h.createIncome)
}

func (h *Handler) ExpenseRoutes(r chi.Router) {
	r.Get("/", h.listExpenses)
	r.Post("/", h.createExpense)
}

func (h *Handler) ReportRoutes(r chi.Router) {
	r.Get("/", h.report)
	r.Get("/monthly", h.monthly)
}

type entryRequest struct {
	CategoryID  uuid.UUID       `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

func (req entryRequest) params() ledger.EntryParams {
	return ledger.EntryParams{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	}
}

func (h *Handler) createIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	var req entryRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	in, err := h.svc.RecordIncome(r.Context(), userID, req.params())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toIncomeResponse(in))
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	var req entryRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	ex, err := h.svc.RecordExpense(r.Context(), userID, req.params())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, ExpenseResponse(ex))
}

func (h *Handler) listIncomes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	incomes, err := h.svc.ListIncomes(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]EntryResponse, len(incomes))
	for i, in := range incomes {
		resp[i] = toIncomeResponse(in)
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	expenses, err := h.svc.ListExpenses(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := make([]EntryResponse, len(expenses))
	for i, ex := range expenses {
		resp[i] = ExpenseResponse(ex)
	}

	render.JSON(w, http.StatusOK, resp)
}

// Totals serves GET /me/totals.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	t, err := h.svc.Totals(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, totalsResponse{
		InitialCapital:  t.InitialCapital,
		TotalIncome:     t.TotalIncome,
		TotalExpense:    t.TotalExpense,
		CurrentCapital:  t.CurrentCapital,
		ExpectedCapital: t.ExpectedCapital,
		Consistent:      t.Consistent,
	})
}

// EntryFilter reads the optional from/to query parameters.
func EntryFilter(r *http.Request) (ledger.EntryFilter, error) {
	var (
		filter ledger.EntryFilter
		err    error
	)

	if filter.StartDate, err = render.DateQuery(r, "from"); err != nil {
		return filter, err
	}

	if filter.EndDate, err = render.DateQuery(r, "to"); err != nil {
		return filter, err
	}

	return filter, nil
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	filter, err := EntryFilter(r)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	entries, err := h.svc.Report(r.Context(), userID, filter)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, EntryList(entries))
}

// monthly serves ?year=2026&months=1,2,3. Both are optional.
func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()

	var year int

	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			render.Error(w, r, apperr.Invalid("year", "must be a number"))
			return
		}

		year = y
	}

	var months []time.Month

	if s := q.Get("months"); s != "" {
		for part := range strings.SplitSeq(s, ",") {
			m, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				render.Error(w, r, apperr.Invalid("months", "must be a comma separated list of numbers"))
				return
			}

			months = append(months, time.Month(m))
		}
	}

	totals, err := h.svc.Monthly(r.Context(), userID, year, months)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	resp := monthlyResponse{Year: year, Months: make([]monthResponse, len(totals))}
	for i, t := range totals {
		resp.Months[i] = monthResponse{Month: int(t.Month), Income: t.Income, Expense: t.Expense}
	}

	render.JSON(w, http.StatusOK, resp)
}
