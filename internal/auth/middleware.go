package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/apperr"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
)

// Authenticate rejects requests without a valid bearer token and stores the
// token's user id in the request context.
func Authenticate(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				render.Error(w, r, apperr.ErrUnauthorized)
				return
			}

			userID, err := tm.Verify(strings.TrimSpace(token))
			if err != nil {
				render.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// CurrentUser returns the authenticated user, answering 401 when the request
// did not pass through Authenticate.
func CurrentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := UserID(r.Context())
	if !ok {
		render.Error(w, r, apperr.ErrUnauthorized)
	}

	return id, ok
}
