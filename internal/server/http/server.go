// Package httpserver provides the HTTP REST API for the abstract review service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scicomm/abstract-review-service/internal/database"
	"github.com/scicomm/abstract-review-service/internal/domain"
	"github.com/scicomm/abstract-review-service/internal/observability"
	"github.com/scicomm/abstract-review-service/internal/repository"
	"github.com/scicomm/abstract-review-service/internal/review"
)

// WorkflowService defines the review workflow operations used by the HTTP
// handlers. Implemented by review.Service.
type WorkflowService interface {
	CreateAbstract(ctx context.Context, actor domain.Actor, input review.CreateAbstractInput) (*domain.AbstractRecord, error)
	AssignReviewers(ctx context.Context, actor domain.Actor, abstractID uuid.UUID, reviewerIDs []uuid.UUID) (*review.AssignmentResult, error)
	SubmitReview(ctx context.Context, actor domain.Actor, input review.SubmitReviewInput) (*domain.AbstractRecord, error)
	RequestRevision(ctx context.Context, actor domain.Actor, input review.RequestRevisionInput) (*domain.AbstractRecord, error)
	ResubmitRevision(ctx context.Context, actor domain.Actor, input review.ResubmitRevisionInput) (*domain.AbstractRecord, error)
	ApproveAbstract(ctx context.Context, actor domain.Actor, input review.DecideInput) (*domain.AbstractRecord, error)
	RejectAbstract(ctx context.Context, actor domain.Actor, input review.DecideInput) (*domain.AbstractRecord, error)
}

// Compile-time interface verification.
var _ WorkflowService = (*review.Service)(nil)

// Server is the HTTP REST API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	workflow     WorkflowService
	abstractRepo repository.AbstractRepository
	reviewerRepo repository.ReviewerRepository
	eventRepo    repository.EventRepository
	db           *database.DB
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address        string
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	workflow WorkflowService,
	abstractRepo repository.AbstractRepository,
	reviewerRepo repository.ReviewerRepository,
	eventRepo repository.EventRepository,
	db *database.DB,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		workflow:     workflow,
		abstractRepo: abstractRepo,
		reviewerRepo: reviewerRepo,
		eventRepo:    eventRepo,
		db:           db,
		metrics:      metrics,
		logger:       logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter(cfg.RequestTimeout)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter(requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}
	r.Use(requestIDMiddleware)
	r.Use(jsonContentTypeMiddleware)
	r.Use(s.metricsMiddleware)

	// Health endpoints (no actor required)
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(actorMiddleware)

		r.Post("/abstracts", s.createAbstract)
		r.Get("/abstracts", s.listAbstracts)
		r.Get("/abstracts/{abstractID}", s.getAbstract)
		r.Post("/abstracts/{abstractID}/reviewers", s.assignReviewers)
		r.Post("/abstracts/{abstractID}/reviews", s.submitReview)
		r.Post("/abstracts/{abstractID}/approve", s.approveAbstract)
		r.Post("/abstracts/{abstractID}/reject", s.rejectAbstract)
		r.Post("/abstracts/{abstractID}/request-revision", s.requestRevision)
		r.Post("/abstracts/{abstractID}/resubmit", s.resubmitRevision)

		r.Post("/reviewers", s.createReviewer)
		r.Get("/reviewers", s.listReviewers)

		r.Post("/events", s.createEvent)
		r.Get("/events/{eventID}", s.getEvent)
	})

	return r
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler reports whether the server can take traffic.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
