// Package api provides the HTTP API server and handlers for the Stacked application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/stackedapp/stacked-server/internal/auth"
	"github.com/stackedapp/stacked-server/internal/dto"
	"github.com/stackedapp/stacked-server/internal/http/middleware"
	"github.com/stackedapp/stacked-server/internal/http/response"
	"github.com/stackedapp/stacked-server/internal/service"
	"github.com/stackedapp/stacked-server/internal/sse"
	"github.com/stackedapp/stacked-server/internal/store"
	"github.com/stackedapp/stacked-server/internal/validation"
)

// Services groups all business logic services used by the API server.
// This keeps the NewServer parameter list manageable.
type Services struct {
	Auth          *service.AuthService
	Profiles      *service.ProfileService
	Stacks        *service.StackService
	Stakes        *service.LedgerService
	Atoms         *service.AtomService
	Triples       *service.TripleService
	Feed          *service.FeedService
	Notifications *service.NotificationService
	Inbox         *service.InboxService
	Search        *service.SearchService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	services    *Services
	enricher    *dto.Enricher
	validator   *validation.Validator
	tokens      *auth.TokenService
	sseHandler  *sse.Handler
	router      *chi.Mux
	corsOrigins []string
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, tokens *auth.TokenService, sseHandler *sse.Handler, corsOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		store:       st,
		services:    services,
		enricher:    dto.NewEnricher(st),
		validator:   validation.New(),
		tokens:      tokens,
		sseHandler:  sseHandler,
		router:      chi.NewRouter(),
		corsOrigins: corsOrigins,
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Logger)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Compress(5))

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})

		// Everything else requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.tokens, s.logger))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", s.handleGetCurrentUser)
				r.Get("/{id}", s.handleGetProfile)
				r.Post("/{id}/follow", s.handleFollow)
				r.Delete("/{id}/follow", s.handleUnfollow)
			})

			r.Get("/feed", s.handleGetFeed)

			r.Route("/stacks", func(r chi.Router) {
				r.Post("/", s.handleCreateStack)
				r.Get("/", s.handleListStacks)
				r.Get("/{id}", s.handleGetStack)
				r.Delete("/{id}", s.handleDeleteStack)
				r.Post("/{id}/fork", s.handleForkStack)
				r.Put("/{id}/order", s.handleReorderStack)
				r.Post("/{id}/resort", s.handleResortStack)
				r.Delete("/{id}/items/{itemID}", s.handleRemoveStackItem)
				r.Post("/{id}/like", s.handleLikeStack)
			})

			r.Route("/stakes", func(r chi.Router) {
				r.Post("/", s.handlePlaceStake)
				r.Get("/me", s.handleMyStakes)
			})

			r.Route("/atoms", func(r chi.Router) {
				r.Post("/", s.handleCreateAtom)
				r.Get("/{id}", s.handleGetAtom)
				r.Get("/{id}/stacks", s.handleAtomStacks)
				r.Get("/{id}/triples", s.handleAtomTriples)
			})

			r.Route("/triples", func(r chi.Router) {
				r.Post("/", s.handleCreateTriple)
				r.Get("/{id}", s.handleGetTriple)
			})

			r.Get("/alignment", s.handleGetAlignment)
			r.Get("/categories", s.handleListCategories)
			r.Get("/search", s.handleSearch)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Post("/{id}/read", s.handleMarkNotificationRead)
				r.Post("/read-all", s.handleMarkAllNotificationsRead)
			})

			r.Route("/inbox", func(r chi.Router) {
				r.Get("/", s.handleListThreads)
				r.Post("/", s.handleEnsureThread)
				r.Get("/{threadID}/messages", s.handleListMessages)
				r.Post("/{threadID}/messages", s.handleSendMessage)
			})

			r.Get("/events", s.sseHandler.ServeHTTP)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
