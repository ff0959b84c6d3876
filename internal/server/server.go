// Package server sets up the HTTP server, router, and all route definitions.
//
// It is the composition root of the HTTP surface: the document store, the
// repositories over it, the services and the handlers are all wired in New.
//
//	config → OpenStore → documents repositories → services → handlers → chi routes
//
// Handlers never see the store and services never see HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/vocapp/internal/auth"
	"github.com/sakif/vocapp/internal/config"
	"github.com/sakif/vocapp/internal/docstore"
	"github.com/sakif/vocapp/internal/gate"
	"github.com/sakif/vocapp/internal/handler"
	"github.com/sakif/vocapp/internal/middleware"
	"github.com/sakif/vocapp/internal/repository/documents"
	"github.com/sakif/vocapp/internal/service"
	"github.com/sakif/vocapp/internal/study"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the document store and closes it on shutdown, flushing
// SQLite's WAL or releasing the Postgres pool.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  docstore.Store
}

// New wires a Server over an already opened store. The server takes
// ownership of store.
func New(cfg *config.Config, store docstore.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /auth/register             → create account            [auth enabled]
// POST   /auth/login                → email/password sign-in    [auth enabled]
// POST   /auth/logout               → clear the token cookie
// GET    /auth/github/login         → redirect to GitHub        [GitHub configured]
// GET    /auth/github/callback      → finish GitHub sign-in     [GitHub configured]
// GET    /api/languages             → supported languages
// GET    /api/bootstrap             → gate result (optional auth)
// GET    /api/me                    → principal from token
// GET    /api/profile               → caller's profile
// POST   /api/profile               → onboarding
// GET    /api/decks                 → materialized decks
// POST   /api/decks                 → link new deck
// GET    /api/decks/{id}            → one deck
// DELETE /api/decks/{id}            → unlink and delete
// POST   /api/decks/{id}/words      → merge words
// POST   /api/decks/{id}/study      → start a study session
// GET    /api/study/{sid}           → current card
// POST   /api/study/{sid}/{action}  → flip | next | previous | close
// DELETE /api/study/{sid}           → drop the session
//
// Without a JWT secret every authenticated route answers 503 and bootstrap
// reports the misconfiguration.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID, so the logger can print it
// 2. RealIP, which reads X-Forwarded-For
// 3. Logger, which logs each request with timing info
// 4. Recoverer, inside Logger, so a panic is logged as a 500
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// === Repositories and services ===
	deckRepo := documents.NewDecks(s.store, s.logger)
	profileRepo := documents.NewProfiles(s.store)
	accountRepo := documents.NewAccounts(s.store)

	ownership := service.NewOwnershipService(deckRepo, profileRepo, s.logger)
	profiles := service.NewProfileService(profileRepo, s.logger)

	timeouts := gate.Timeouts{
		Auth:        s.config.Gate.AuthTimeout,
		ProfileLoad: s.config.Gate.ProfileLoadTimeout,
	}

	if !s.config.AuthEnabled() {
		s.logger.Warn("JWT secret not set, authentication is disabled")
		s.router.Get("/api/languages", handler.HandleLanguages)
		s.router.Get("/api/bootstrap", handler.NewBootstrapHandler(nil, ownership, timeouts, s.logger).HandleBootstrap)
		disabled := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"configuration_error","message":"authentication is not configured"}`))
		}
		s.router.HandleFunc("/auth/*", disabled)
		s.router.HandleFunc("/api/*", disabled)
		return nil
	}

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	authService := service.NewAuthService(accountRepo, tokens, auth.NewPasswordService(), s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		gh := s.config.Auth.GitHub
		github = auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, gh.CallbackURL)
	}

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, github, s.config.Auth.TokenTTL, s.logger)
	profileHandler := handler.NewProfileHandler(profiles, s.logger)
	deckHandler := handler.NewDeckHandler(ownership, s.logger)
	studyHandler := handler.NewStudyHandler(ownership, study.NewRegistry(), s.logger)
	bootstrapHandler := handler.NewBootstrapHandler(profiles, ownership, timeouts, s.logger)

	// === Auth routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Info("GitHub OAuth not configured, GitHub sign-in is disabled")
		}
	})

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/languages", handler.HandleLanguages)
		r.With(auth.OptionalAuth(tokens), middleware.RecordUser).
			Get("/bootstrap", bootstrapHandler.HandleBootstrap)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Use(middleware.RecordUser)

			r.Get("/me", authHandler.HandleMe)
			r.Get("/profile", profileHandler.HandleGet)
			r.Post("/profile", profileHandler.HandleOnboard)

			r.Get("/decks", deckHandler.HandleList)
			r.Post("/decks", deckHandler.HandleCreate)
			r.Get("/decks/{id}", deckHandler.HandleGet)
			r.Delete("/decks/{id}", deckHandler.HandleDelete)
			r.Post("/decks/{id}/words", deckHandler.HandleMergeWords)
			r.Post("/decks/{id}/study", studyHandler.HandleStart)

			r.Get("/study/{sid}", studyHandler.HandleGet)
			r.Post("/study/{sid}/{action}", studyHandler.HandleAction)
			r.Delete("/study/{sid}", studyHandler.HandleDrop)
		})
	})

	return nil
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the store
func (s *Server) Start(ctx context.Context) error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.Store.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
