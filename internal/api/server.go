package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/practice-engine/internal/config"
	"github.com/terra-clan/practice-engine/internal/interview"
	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/practice"
)

// PracticeService drives practice sessions
type PracticeService interface {
	Start(ctx context.Context, userID string, sel practice.Selector, force bool) (*models.PracticeSession, error)
	HandleMessage(ctx context.Context, userID, text string) (*practice.Reply, error)
	Resume(ctx context.Context, userID string) (*models.PracticeSession, error)
	Exit(ctx context.Context, userID string) error
	Stats(ctx context.Context, userID string) (*models.UserStats, error)
	Solved(ctx context.Context, userID string, limit, offset int) ([]*models.SolvedProblem, error)
}

// InterviewService drives interview simulations
type InterviewService interface {
	Setup(ctx context.Context, userID string, persona models.Persona) (*models.InterviewSession, error)
	Begin(ctx context.Context, userID, topic string) (*interview.Reply, error)
	HandleMessage(ctx context.Context, userID, text string) (*interview.Reply, error)
	Resume(ctx context.Context, userID string) (*models.InterviewSession, string, error)
	Exit(ctx context.Context, userID string) error
	Reports(ctx context.Context, userID string, limit, offset int) ([]*models.InterviewReport, error)
}

// CatalogService exposes the problem catalog
type CatalogService interface {
	Random(ctx context.Context, difficulty models.Difficulty) (*models.Problem, error)
	BySlug(ctx context.Context, slug string) (*models.Problem, error)
	List(ctx context.Context, category string, difficulty models.Difficulty, limit, offset int) (*models.ProblemPage, error)
	Search(ctx context.Context, keyword string, limit int) ([]models.ProblemSummary, error)
}

// ExecutorService judges code against test code
type ExecutorService interface {
	Execute(ctx context.Context, userCode, testCode string) *models.ExecutionResult
}

// UserLock serializes message handling per user
type UserLock interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

// HealthChecker reports readiness of a backing service
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP API server
type Server struct {
	config    config.ServerConfig
	router    *chi.Mux
	practice  PracticeService
	interview InterviewService
	catalog   CatalogService
	executor  ExecutorService
	lock      UserLock
	health    []HealthChecker
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	prac PracticeService,
	intv InterviewService,
	cat CatalogService,
	exec ExecutorService,
	lock UserLock,
	health ...HealthChecker,
) *Server {
	s := &Server{
		config:    cfg,
		practice:  prac,
		interview: intv,
		catalog:   cat,
		executor:  exec,
		lock:      lock,
		health:    health,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// Dialogue websocket
	r.Get("/ws/{userID}", s.handleDialogueWS)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/execute", s.handleExecute)

		// Problem catalog
		r.Route("/problems", func(r chi.Router) {
			r.Get("/", s.handleListProblems)
			r.Get("/random", s.handleRandomProblem)
			r.Get("/search", s.handleSearchProblems)
			r.Get("/{slug}", s.handleProblemBySlug)
		})

		// Practice sessions
		r.Route("/practice/{userID}", func(r chi.Router) {
			r.With(s.userLockMiddleware).Post("/start", s.handlePracticeStart)
			r.With(s.userLockMiddleware).Post("/message", s.handlePracticeMessage)
			r.Post("/resume", s.handlePracticeResume)
			r.Post("/exit", s.handlePracticeExit)
			r.Get("/stats", s.handlePracticeStats)
			r.Get("/solved", s.handlePracticeSolved)
		})

		// Interview simulations
		r.Route("/interview/{userID}", func(r chi.Router) {
			r.With(s.userLockMiddleware).Post("/setup", s.handleInterviewSetup)
			r.With(s.userLockMiddleware).Post("/begin", s.handleInterviewBegin)
			r.With(s.userLockMiddleware).Post("/message", s.handleInterviewMessage)
			r.Post("/resume", s.handleInterviewResume)
			r.Post("/exit", s.handleInterviewExit)
			r.Get("/reports", s.handleInterviewReports)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
