package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/practice"
	"github.com/terra-clan/practice-engine/internal/session"
)

type startPracticeRequest struct {
	Slug       string `json:"slug,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Force      bool   `json:"force,omitempty"`
}

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePracticeStart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req startPracticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sel := practice.Selector{
		Slug:       req.Slug,
		Difficulty: models.ParseDifficulty(req.Difficulty),
	}

	sess, err := s.practice.Start(r.Context(), userID, sel, req.Force)
	if err != nil {
		if errors.Is(err, practice.ErrActiveSessionExists) {
			// the client shows a discard confirmation and retries with force
			respondError(w, http.StatusConflict, "active_session_exists", err.Error())
			return
		}
		slog.Error("failed to start problem", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to start problem")
		return
	}

	respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handlePracticeMessage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "text is required")
		return
	}

	reply, err := s.practice.HandleMessage(r.Context(), userID, req.Text)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			respondError(w, http.StatusNotFound, "no_session", "no active problem, start one first")
			return
		}
		slog.Error("failed to handle practice message", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handlePracticeResume(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	sess, err := s.practice.Resume(r.Context(), userID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			respondError(w, http.StatusNotFound, "no_session", "no session to resume")
			return
		}
		slog.Error("failed to resume practice session", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to resume session")
		return
	}

	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handlePracticeExit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := s.practice.Exit(r.Context(), userID); err != nil {
		slog.Error("failed to exit practice session", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to exit session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "exited"})
}

func (s *Server) handlePracticeStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	stats, err := s.practice.Stats(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get stats", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePracticeSolved(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit, offset := pagination(r, 20)

	solved, err := s.practice.Solved(r.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("failed to list solved problems", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list solved problems")
		return
	}

	respondJSON(w, http.StatusOK, solved)
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
