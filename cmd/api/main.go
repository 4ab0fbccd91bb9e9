package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/account"
	accountStore "github.com/MrJamesThe3rd/capital/internal/account/store"
	"github.com/MrJamesThe3rd/capital/internal/alert"
	alertStore "github.com/MrJamesThe3rd/capital/internal/alert/store"
	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/category"
	categoryStore "github.com/MrJamesThe3rd/capital/internal/category/store"
	"github.com/MrJamesThe3rd/capital/internal/config"
	"github.com/MrJamesThe3rd/capital/internal/database"
	"github.com/MrJamesThe3rd/capital/internal/emergency"
	emergencyStore "github.com/MrJamesThe3rd/capital/internal/emergency/store"
	"github.com/MrJamesThe3rd/capital/internal/export"
	capitalHttp "github.com/MrJamesThe3rd/capital/internal/http"
	accountHandler "github.com/MrJamesThe3rd/capital/internal/http/account"
	alertHandler "github.com/MrJamesThe3rd/capital/internal/http/alert"
	categoryHandler "github.com/MrJamesThe3rd/capital/internal/http/category"
	emergencyHandler "github.com/MrJamesThe3rd/capital/internal/http/emergency"
	exportHandler "github.com/MrJamesThe3rd/capital/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/capital/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/capital/internal/http/matching"
	savingsHandler "github.com/MrJamesThe3rd/capital/internal/http/savings"
	subscriptionHandler "github.com/MrJamesThe3rd/capital/internal/http/subscription"
	txHandler "github.com/MrJamesThe3rd/capital/internal/http/transaction"
	"github.com/MrJamesThe3rd/capital/internal/importer"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/capital/internal/ledger/store"
	"github.com/MrJamesThe3rd/capital/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/capital/internal/matching/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(newLogger(cfg))

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString(), cfg.Pool())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	var (
		ledgerService    = ledger.NewService(ledgerStore.New(db))
		accountService   = account.NewService(accountStore.New(db), ledgerService, tokens)
		categoryService  = category.NewService(categoryStore.New(db))
		emergencyService = emergency.NewService(emergencyStore.New(db))
		alertService     = alert.NewService(alertStore.New(db))
		matchingService  = matching.NewService(matchingStore.New(db))
		importService    = importer.NewService(matchingService, ledgerService)
		exportService    = export.NewService(ledgerService)
	)

	if err := categoryService.Seed(ctx); err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}

	router := capitalHttp.New(capitalHttp.Options{
		Tokens:         tokens,
		RateLimiter:    auth.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Timeout:        cfg.Server.Timeout,
	}, capitalHttp.Handlers{
		Account:      accountHandler.NewHandler(accountService),
		Journal:      txHandler.NewHandler(ledgerService),
		Savings:      savingsHandler.NewHandler(ledgerService),
		Subscription: subscriptionHandler.NewHandler(ledgerService),
		Category:     categoryHandler.NewHandler(categoryService),
		Emergency:    emergencyHandler.NewHandler(emergencyService),
		Alert:        alertHandler.NewHandler(alertService),
		Import:       importHandler.NewHandler(importService, ledgerService),
		Rules:        matchingHandler.NewHandler(matchingService),
		Export:       exportHandler.NewHandler(exportService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", srv.Addr, "env", cfg.App.Env)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Log.Level))); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
