// Package account serves registration, login and the current user's profile.
package account

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/account"
	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/http/render"
)

type Handler struct {
	svc *account.Service
}

func NewHandler(svc *account.Service) *Handler {
	return &Handler{svc: svc}
}

// AuthRoutes are public.
func (h *Handler) AuthRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

// MeRoutes require an authenticated user.
func (h *Handler) MeRoutes(r chi.Router) {
	r.Get("/", h.me)
	r.Patch("/", h.update)
	r.Delete("/", h.delete)
}

type userResponse struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Currency  *string    `json:"currency,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toUserResponse(u *account.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Currency:  u.Currency,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type profileResponse struct {
	userResponse
	InitialCapital *decimal.Decimal `json:"initial_capital"`
	CurrentCapital decimal.Decimal  `json:"current_capital"`
}

func toProfileResponse(p *account.Profile) profileResponse {
	return profileResponse{
		userResponse:   toUserResponse(p.User),
		InitialCapital: p.Account.InitialCapital,
		CurrentCapital: p.Account.CurrentCapital,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	u, err := h.svc.Register(r.Context(), account.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, toUserResponse(u))
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      toUserResponse(sess.User),
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toProfileResponse(p))
}

type updateRequest struct {
	Email          *string          `json:"email,omitempty" validate:"omitempty,email,max=120"`
	Currency       *string          `json:"currency,omitempty" validate:"omitempty,min=1,max=10"`
	InitialCapital *decimal.Decimal `json:"initial_capital,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, r, err)
		return
	}

	p, err := h.svc.UpdateProfile(r.Context(), userID, account.ProfilePatch{
		Email:          req.Email,
		Currency:       req.Currency,
		InitialCapital: req.InitialCapital,
	})
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID); err != nil {
		render.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
