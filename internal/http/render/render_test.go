package render_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   render.ErrorResponse
	}{
		{
			name:       "Validation",
			err:        apperr.Invalid("amount", "must be greater than 0"),
			wantStatus: http.StatusBadRequest,
			wantBody:   render.ErrorResponse{Error: "validation failed", Fields: map[string]string{"amount": "must be greater than 0"}},
		},
		{
			name:       "Unauthorized",
			err:        apperr.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantBody:   render.ErrorResponse{Error: "unauthorized"},
		},
		{
			name:       "Forbidden",
			err:        apperr.Forbidden("savings plan"),
			wantStatus: http.StatusForbidden,
			wantBody:   render.ErrorResponse{Error: "savings plan: forbidden"},
		},
		{
			name:       "NotFound",
			err:        apperr.NotFound("category"),
			wantStatus: http.StatusNotFound,
			wantBody:   render.ErrorResponse{Error: "category not found"},
		},
		{
			name:       "Conflict",
			err:        apperr.Conflict("initial capital already set"),
			wantStatus: http.StatusConflict,
			wantBody:   render.ErrorResponse{Error: "conflict: initial capital already set"},
		},
		{
			name:       "Configuration",
			err:        apperr.ErrConfiguration,
			wantStatus: http.StatusInternalServerError,
			wantBody:   render.ErrorResponse{Error: "internal server error"},
		},
		{
			name:       "Unexpected",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   render.ErrorResponse{Error: "internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			render.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var got render.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Kind     string `json:"kind" validate:"omitempty,oneof=income expense"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields map[string]string
	}{
		{
			name: "Valid",
			body: `{"username":"ana","email":"ana@example.com"}`,
		},
		{
			name: "FieldErrors",
			body: `{"username":"an","email":"nope","kind":"gift"}`,
			wantFields: map[string]string{
				"username": "must be at least 3 characters long",
				"email":    "must be a valid email address",
				"kind":     "must be one of: income expense",
			},
		},
		{
			name:       "Missing",
			body:       `{}`,
			wantFields: map[string]string{"username": "is required", "email": "is required"},
		},
		{
			name:       "UnknownMember",
			body:       `{"username":"ana","email":"ana@example.com","is_admin":true}`,
			wantFields: map[string]string{"is_admin": "is not a known field"},
		},
		{
			name:       "Malformed",
			body:       `{"username":`,
			wantFields: map[string]string{"body": "must be a valid JSON document"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst signup
			err := render.Decode(r, &dst)

			if tt.wantFields == nil {
				require.NoError(t, err)
				assert.Equal(t, "ana", dst.Username)
				return
			}

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantFields, verr.Fields)
		})
	}
}

func TestDateQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=31-03-2026", nil)

	from, err := render.DateQuery(r, "from")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Equal(t, "2026-03-01", from.Format("2006-01-02"))

	_, err = render.DateQuery(r, "to")
	assert.True(t, apperr.IsValidation(err))

	missing, err := render.DateQuery(r, "since")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
