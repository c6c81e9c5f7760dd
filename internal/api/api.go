// Package api provides the joule platform API server.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/kamilpajak/joule/internal/auth"
	"github.com/kamilpajak/joule/internal/calculator"
	"github.com/kamilpajak/joule/internal/database"
	"github.com/kamilpajak/joule/internal/quality"
	"github.com/kamilpajak/joule/internal/reasoning"
	"github.com/kamilpajak/joule/internal/reconcile"
	"github.com/kamilpajak/joule/internal/sensitivity"
	"github.com/kamilpajak/joule/internal/validation"
)

// Server is the API server.
type Server struct {
	db           *database.DB
	authVerifier *auth.Verifier

	calc         calculator.Calculator
	validator    *validation.Validator
	reconciler   *reconcile.Reconciler
	engine       *sensitivity.Engine
	orchestrator *quality.Orchestrator

	mux *http.ServeMux
}

// Config holds API server configuration.
type Config struct {
	DB           *database.DB
	AuthVerifier *auth.Verifier

	// Calculator defaults to the reference DCF model.
	Calculator calculator.Calculator

	// Collaborator defaults to the canned offline collaborator.
	Collaborator reasoning.Collaborator
}

// NewServer creates a new API server.
func NewServer(cfg Config) (*Server, error) {
	calc := cfg.Calculator
	if calc == nil {
		calc = calculator.NewDCF()
	}
	collab := cfg.Collaborator
	if collab == nil {
		collab = &reasoning.Canned{}
	}

	validator, err := validation.New()
	if err != nil {
		return nil, err
	}
	reconciler := reconcile.New()

	s := &Server{
		db:           cfg.DB,
		authVerifier: cfg.AuthVerifier,
		calc:         calc,
		validator:    validator,
		reconciler:   reconciler,
		engine:       sensitivity.New(calc),
		orchestrator: quality.New(collab, validator, reconciler),
		mux:          http.NewServeMux(),
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	authMiddleware := auth.Middleware(s.authVerifier)

	// Public endpoints
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// Protected endpoints
	s.mux.HandleFunc("POST /api/projects", s.withAuth(authMiddleware, s.handleCreateProject))
	s.mux.HandleFunc("GET /api/projects", s.withAuth(authMiddleware, s.handleListProjects))
	s.mux.HandleFunc("GET /api/projects/{projectID}", s.withAuth(authMiddleware, s.handleGetProject))
	s.mux.HandleFunc("POST /api/projects/{projectID}/assessments", s.withAuth(authMiddleware, s.handleCreateAssessment))
	s.mux.HandleFunc("GET /api/projects/{projectID}/assessments", s.withAuth(authMiddleware, s.handleListAssessments))
	s.mux.HandleFunc("GET /api/assessments/{assessmentID}", s.withAuth(authMiddleware, s.handleGetAssessment))
	s.mux.HandleFunc("POST /api/projects/{projectID}/sensitivity", s.withAuth(authMiddleware, s.handleRunSensitivity))
	s.mux.HandleFunc("GET /api/projects/{projectID}/similar", s.withAuth(authMiddleware, s.handleSimilarProjects))
}

func (s *Server) withAuth(middleware func(http.Handler) http.Handler, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware(http.HandlerFunc(handler)).ServeHTTP(w, r)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
