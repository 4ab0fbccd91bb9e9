package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/export"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
	"github.com/MrJamesThe3rd/capital/internal/http/transaction"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	From string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (req exportRequest) filter() (ledger.EntryFilter, error) {
	var f ledger.EntryFilter

	if req.From != "" {
		t, _ := time.Parse(time.DateOnly, req.From)
		f.StartDate = &t
	}

	if req.To != "" {
		t, _ := time.Parse(time.DateOnly, req.To)
		f.EndDate = &t
	}

	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return f, apperr.Invalid("to", "must not be before from")
	}

	return f, nil
}

type exportMetadataResponse struct {
	Entries []transaction.EntryResponse `json:"entries"`
	Income  decimal.Decimal             `json:"income"`
	Expense decimal.Decimal             `json:"expense"`
	Net     decimal.Decimal             `json:"net"`
	Summary string                      `json:"summary"`
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request) (*export.Export, ledger.EntryFilter, bool) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return nil, ledger.EntryFilter{}, false
	}

	var req exportRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return nil, ledger.EntryFilter{}, false
	}

	filter, err := req.filter()
	if err != nil {
		render.Error(w, r, err)
		return nil, filter, false
	}

	exp, err := h.svc.Export(r.Context(), userID, filter)
	if err != nil {
		render.Error(w, r, err)
		return nil, filter, false
	}

	return exp, filter, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	exp, _, ok := h.build(w, r)
	if !ok {
		return
	}

	render.JSON(w, http.StatusOK, exportMetadataResponse{
		Entries: transaction.EntryList(exp.Entries),
		Income:  exp.Income,
		Expense: exp.Expense,
		Net:     exp.Net(),
		Summary: exp.Summary(),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	exp, filter, ok := h.build(w, r)
	if !ok {
		return
	}

	// Buffer so a failure still turns into a proper error response.
	var buf bytes.Buffer
	if err := exp.WriteZip(&buf, time.Now()); err != nil {
		render.Error(w, r, fmt.Errorf("writing export: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.svc.Filename(filter)))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to send export", "error", err)
	}
}
