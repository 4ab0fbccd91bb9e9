package importcsv

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
	"github.com/MrJamesThe3rd/capital/internal/http/transaction"
	"github.com/MrJamesThe3rd/capital/internal/importer"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

const maxUpload = 10 << 20

type Handler struct {
	importSvc *importer.Service
	ledger    *ledger.Service
}

func NewHandler(importSvc *importer.Service, l *ledger.Service) *Handler {
	return &Handler{importSvc: importSvc, ledger: l}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/banks", h.banks)
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported int                         `json:"imported"`
	Entries  []transaction.EntryResponse `json:"entries"`
}

type batchEntryDTO struct {
	Kind        ledger.Kind     `json:"kind" validate:"required,oneof=income expense"`
	CategoryID  uuid.UUID       `json:"category_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"required"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
}

type conflictDTO struct {
	Incoming batchEntryDTO             `json:"incoming"`
	Existing transaction.EntryResponse `json:"existing"`
}

type importConflictResponse struct {
	New       []batchEntryDTO `json:"new"`
	Conflicts []conflictDTO   `json:"conflicts"`
}

type confirmRequest struct {
	Entries []batchEntryDTO `json:"entries" validate:"required,min=1,dive"`
}

func (h *Handler) banks(w http.ResponseWriter, _ *http.Request) {
	render.JSON(w, http.StatusOK, h.importSvc.Banks())
}

// importCSV takes a multipart form with bank, file and an optional
// category_id used for movements no rule categorizes.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		render.Error(w, r, apperr.Invalid("file", "must be a multipart upload of at most 10MB"))
		return
	}

	bank := importer.Bank(r.FormValue("bank"))
	if bank == "" {
		render.Error(w, r, apperr.Invalid("bank", "is required"))
		return
	}

	var fallback uuid.UUID
	if v := r.FormValue("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			render.Error(w, r, apperr.Invalid("category_id", "must be a valid UUID"))
			return
		}

		fallback = id
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		render.Error(w, r, apperr.Invalid("file", "is required"))
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(r.Context(), userID, bank, file, fallback)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]batchEntryDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, e := range result.New {
			resp.New = append(resp.New, toDTO(e))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toDTO(c.Incoming),
				Existing: transaction.EntryList([]*ledger.Entry{c.Existing})[0],
			})
		}

		render.JSON(w, http.StatusConflict, resp)

		return
	}

	render.JSON(w, http.StatusCreated, toSuccessResponse(result.Imported))
}

// confirmImport records the entries the user kept after reviewing conflicts.
func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	entries := make([]ledger.BatchEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		// Decode already checked the layout.
		date, _ := time.Parse(time.DateOnly, e.Date)

		entries = append(entries, ledger.BatchEntry{
			Kind:        e.Kind,
			CategoryID:  e.CategoryID,
			Amount:      e.Amount,
			Description: e.Description,
			Date:        date,
		})
	}

	recorded, err := h.ledger.RecordBatch(r.Context(), userID, entries)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toSuccessResponse(recorded))
}

func toSuccessResponse(entries []*ledger.Entry) importSuccessResponse {
	return importSuccessResponse{
		Imported: len(entries),
		Entries:  transaction.EntryList(entries),
	}
}

func toDTO(e ledger.BatchEntry) batchEntryDTO {
	return batchEntryDTO{
		Kind:        e.Kind,
		CategoryID:  e.CategoryID,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date.Format(time.DateOnly),
	}
}
