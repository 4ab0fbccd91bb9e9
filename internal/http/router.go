package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/http/account"
	"github.com/MrJamesThe3rd/capital/internal/http/alert"
	"github.com/MrJamesThe3rd/capital/internal/http/category"
	"github.com/MrJamesThe3rd/capital/internal/http/emergency"
	"github.com/MrJamesThe3rd/capital/internal/http/export"
	"github.com/MrJamesThe3rd/capital/internal/http/importcsv"
	"github.com/MrJamesThe3rd/capital/internal/http/matching"
	"github.com/MrJamesThe3rd/capital/internal/http/savings"
	"github.com/MrJamesThe3rd/capital/internal/http/subscription"
	"github.com/MrJamesThe3rd/capital/internal/http/transaction"
)

type Options struct {
	Tokens         *auth.TokenManager
	RateLimiter    *auth.RateLimiter
	AllowedOrigins []string
	Timeout        time.Duration
}

type Handlers struct {
	Account      *account.Handler
	Journal      *transaction.Handler
	Savings      *savings.Handler
	Subscription *subscription.Handler
	Category     *category.Handler
	Emergency    *emergency.Handler
	Alert        *alert.Handler
	Import       *importcsv.Handler
	Rules        *matching.Handler
	Export       *export.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	json := middleware.AllowContentType("application/json")

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.Middleware)
			}

			r.Use(json)
			h.Account.AuthRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(opts.Tokens))

			r.Route("/me", func(r chi.Router) {
				r.Use(json)
				h.Account.MeRoutes(r)
				r.Get("/totals", h.Journal.Totals)
			})

			r.With(json).Route("/incomes", h.Journal.IncomeRoutes)
			r.With(json).Route("/expenses", h.Journal.ExpenseRoutes)
			r.Route("/reports", h.Journal.ReportRoutes)
			r.With(json).Route("/savings-plans", h.Savings.Routes)
			r.With(json).Route("/subscriptions", h.Subscription.Routes)
			r.With(json).Route("/categories", h.Category.Routes)
			r.With(json).Route("/emergency-funds", h.Emergency.Routes)
			r.With(json).Route("/alerts", h.Alert.Routes)
			r.With(json).Route("/rules", h.Rules.Routes)
			r.With(json).Route("/export", h.Export.Routes)

			// Multipart upload, so no content type restriction.
			r.Route("/import", h.Import.Routes)
		})
	})

	return router
}
