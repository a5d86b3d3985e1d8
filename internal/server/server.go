// Package server exposes the fact-checking pipeline over a JSON HTTP API.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/debatelens/factwatch/internal/enrich"
	"github.com/debatelens/factwatch/internal/extractor"
	"github.com/debatelens/factwatch/internal/session"
)

// Server holds the request handlers and their dependencies. The session
// store and orchestrator are injected so tests construct a fresh store per
// test.
type Server struct {
	store  *session.Store
	orch   *enrich.Orchestrator
	router chi.Router
}

// New builds the server and mounts all routes.
func New(store *session.Store, orch *enrich.Orchestrator, allowedOrigins []string) *Server {
	s := &Server{
		store: store,
		orch:  orch,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/live/start", s.handleLiveStart)
	r.Post("/api/fact-check", s.handleFactCheck)
	r.Post("/api/claims/fact-check", s.handleClaimsBatch)
	r.Post("/api/analyze-segment", s.handleAnalyzeSegment)
	r.Post("/api/analyze-chunk", s.handleAnalyzeChunk)
	r.Post("/api/fallacies/analyze", s.handleFallacies)
	r.Get("/api/live/state", s.handleLiveState)

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

// respondPipelineError maps pipeline errors onto HTTP statuses: unknown
// session is client-visible, everything else is internal.
func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, session.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Session not found")
	case eris.Is(err, extractor.ErrMissingCredentials):
		zap.L().Error("extraction credentials missing", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "claim extraction is not configured")
	default:
		zap.L().Error("pipeline failure", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
