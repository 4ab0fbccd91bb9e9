package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/auth"
)

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, auth.CheckPassword(hash, "correct horse"))
	assert.False(t, auth.CheckPassword(hash, "battery staple"))
	assert.False(t, auth.CheckPassword("not-a-hash", "correct horse"))
}

func TestTokenManager(t *testing.T) {
	userID := uuid.New()
	tm := auth.NewTokenManager("s3cret", "capital", time.Hour)

	token, expires, err := tm.Issue(userID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	got, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	tests := []struct {
		name  string
		token string
		tm    *auth.TokenManager
	}{
		{name: "WrongSecret", token: token, tm: auth.NewTokenManager("other", "capital", time.Hour)},
		{name: "WrongIssuer", token: token, tm: auth.NewTokenManager("s3cret", "someone-else", time.Hour)},
		{name: "Garbage", token: "a.b.c", tm: tm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tm.Verify(tt.token)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		})
	}
}

func TestTokenManager_Expired(t *testing.T) {
	tm := auth.NewTokenManager("s3cret", "capital", -time.Minute)

	token, _, err := tm.Issue(uuid.New())
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorContains(t, err, "expired")
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	tm := auth.NewTokenManager("s3cret", "capital", time.Hour)

	token, _, err := tm.Issue(userID)
	require.NoError(t, err)

	var seen uuid.UUID

	h := auth.Authenticate(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "Valid", header: "Bearer " + token, wantStatus: http.StatusNoContent},
		{name: "LowercaseScheme", header: "bearer " + token, wantStatus: http.StatusNoContent},
		{name: "Missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "BadToken", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = uuid.Nil

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, userID, seen)
			} else {
				assert.Equal(t, uuid.Nil, seen)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := auth.NewRateLimiter(0.001, 2)

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000"), "other clients keep their own budget")
}
