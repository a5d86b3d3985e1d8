package server

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/debatelens/factwatch/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLiveStart(w http.ResponseWriter, r *http.Request) {
	// The body is optional; an empty or absent body starts a session with
	// generated id and default speakers.
	var req struct {
		SessionID string            `json:"sessionId"`
		Speakers  map[string]string `json:"speakers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := s.store.Create(req.SessionID, req.Speakers)
	zap.L().Info("live session started",
		zap.String("session", sess.ID),
		zap.Int("speakers", len(sess.Speakers)),
	)

	s.respondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sess.ID,
		"speakers":  sess.Speakers,
	})
}

func (s *Server) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClaimText string `json:"claimText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClaimText == "" {
		s.respondError(w, http.StatusBadRequest, "claimText is required")
		return
	}

	result := s.orch.FactCheckClaim(r.Context(), req.ClaimText)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleClaimsBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string             `json:"sessionId"`
		Claims    []model.ClaimInput `json:"claims"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Claims) == 0 {
		s.respondError(w, http.StatusBadRequest, "claims is required")
		return
	}

	results, err := s.orch.FactCheckBatch(r.Context(), req.SessionID, req.Claims)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"sessionId": req.SessionID,
		"results":   results,
	})
}

func (s *Server) handleAnalyzeSegment(w http.ResponseWriter, r *http.Request) {
	var seg model.Segment
	if err := json.NewDecoder(r.Body).Decode(&seg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := s.orch.AnalyzeSegment(r.Context(), seg)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, claims)
}

func (s *Server) handleAnalyzeChunk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string          `json:"sessionId"`
		Segments  []model.Segment `json:"segments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Segments) == 0 {
		s.respondError(w, http.StatusBadRequest, "segments is required")
		return
	}

	claims, err := s.orch.AnalyzeChunk(r.Context(), req.SessionID, req.Segments)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, claims)
}

func (s *Server) handleFallacies(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string          `json:"sessionId"`
		Segments  []model.Segment `json:"segments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Segments) == 0 {
		s.respondError(w, http.StatusBadRequest, "segments is required")
		return
	}

	results, err := s.orch.AnalyzeFallacies(r.Context(), req.Segments)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"sessionId": req.SessionID,
		"results":   results,
	})
}

func (s *Server) handleLiveState(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		s.respondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	snap, err := s.store.Snapshot(sessionID)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}
