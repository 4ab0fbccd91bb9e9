package importcsv_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/http/importcsv"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
	"github.com/MrJamesThe3rd/capital/internal/importer"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
	"github.com/MrJamesThe3rd/capital/internal/ledger/ledgertest"
)

const statement = `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Nome cliente;JOHN DOE

Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
`

// fallbackOnly stands in for the rule engine: every row gets the fallback.
type fallbackOnly struct{}

func (fallbackOnly) Categorize(_ context.Context, _ uuid.UUID, entries []ledger.BatchEntry, fallback uuid.UUID) ([]ledger.BatchEntry, error) {
	out := make([]ledger.BatchEntry, len(entries))
	for i, e := range entries {
		e.CategoryID = fallback
		out[i] = e
	}

	return out, nil
}

type fixture struct {
	store   *ledgertest.Store
	handler http.Handler
	userID  uuid.UUID
	other   uuid.UUID
}

func setup(t *testing.T) *fixture {
	t.Helper()

	store := ledgertest.New()
	store.SeedReserved()

	f := &fixture{
		store:  store,
		userID: store.AddUser(new(decimal.NewFromInt(100))),
		other:  store.AddCategory("Otros", uuid.Nil),
	}

	svc := ledger.NewService(store, ledger.WithClock(func() time.Time {
		return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	}))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), f.userID)))
		})
	})
	r.Route("/import", importcsv.NewHandler(importer.NewService(fallbackOnly{}, svc), svc).Routes)

	f.handler = r

	return f
}

func (f *fixture) upload(t *testing.T, fields map[string]string, file string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if file != "" {
		fw, err := mw.CreateFormFile("file", "movimentos.csv")
		require.NoError(t, err)

		_, err = fw.Write([]byte(file))
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	return rec
}

func TestHandler_ImportThenConflict(t *testing.T) {
	f := setup(t)
	fields := map[string]string{"bank": "cgd", "category_id": f.other.String()}

	rec := f.upload(t, fields, statement)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var imported struct {
		Imported int `json:"imported"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&imported))
	assert.Equal(t, 2, imported.Imported)
	assert.Equal(t, "8119.78", f.store.Balance(f.userID).StringFixed(2))

	rec = f.upload(t, fields, statement)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var conflict struct {
		New       []json.RawMessage `json:"new"`
		Conflicts []struct {
			Incoming struct {
				Kind        ledger.Kind     `json:"kind"`
				CategoryID  uuid.UUID       `json:"category_id"`
				Amount      decimal.Decimal `json:"amount"`
				Description string          `json:"description"`
				Date        string          `json:"date"`
			} `json:"incoming"`
		} `json:"conflicts"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&conflict))
	assert.Empty(t, conflict.New)
	require.Len(t, conflict.Conflicts, 2)
	assert.Equal(t, "8119.78", f.store.Balance(f.userID).StringFixed(2), "a conflicting import writes nothing")

	in := conflict.Conflicts[0].Incoming
	assert.Equal(t, "2026-01-30", in.Date)

	body, err := json.Marshal(map[string]any{"entries": []any{in}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/import/confirm", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "7531.04", f.store.Balance(f.userID).StringFixed(2))
}

func TestHandler_ImportErrors(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name   string
		fields map[string]string
		file   string
		field  string
	}{
		{
			name:   "missing bank",
			fields: map[string]string{},
			file:   statement,
			field:  "bank",
		},
		{
			name:   "unknown bank",
			fields: map[string]string{"bank": "bpi"},
			file:   statement,
			field:  "bank",
		},
		{
			name:   "missing file",
			fields: map[string]string{"bank": "cgd"},
			field:  "file",
		},
		{
			name:   "bad fallback",
			fields: map[string]string{"bank": "cgd", "category_id": "otros"},
			file:   statement,
			field:  "category_id",
		},
		{
			name:   "not a statement",
			fields: map[string]string{"bank": "cgd"},
			file:   "hello;world\n",
			field:  "file",
		},
		{
			name:   "uncategorized rows",
			fields: map[string]string{"bank": "cgd"},
			file:   statement,
			field:  "entries[0].category_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.upload(t, tt.fields, tt.file)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var resp render.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Contains(t, resp.Fields, tt.field)
		})
	}

	assert.Equal(t, "100.00", f.store.Balance(f.userID).StringFixed(2))
}

func TestHandler_ConfirmValidation(t *testing.T) {
	f := setup(t)

	body := `{"entries":[{"kind":"refund","category_id":"` + f.other.String() + `","amount":5,"description":"x","date":"2026-01-01"}]}`

	req := httptest.NewRequest(http.MethodPost, "/import/confirm", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp render.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "must be one of: income expense", resp.Fields["entries[0].kind"])
}
