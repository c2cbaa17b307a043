package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/practice-engine/internal/interview"
	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/session"
)

type interviewSetupRequest struct {
	Persona string `json:"persona"`
}

type interviewBeginRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleInterviewSetup(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req interviewSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	persona := models.Persona(req.Persona)
	if !models.ValidPersona(persona) {
		respondError(w, http.StatusBadRequest, "validation_error",
			"persona must be one of: friendly, nerd, toxic")
		return
	}

	sess, err := s.interview.Setup(r.Context(), userID, persona)
	if err != nil {
		slog.Error("failed to set up interview", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to set up interview")
		return
	}

	respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleInterviewBegin(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req interviewBeginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "topic is required")
		return
	}

	reply, err := s.interview.Begin(r.Context(), userID, req.Topic)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			respondError(w, http.StatusNotFound, "no_session", "set up an interview first")
			return
		}
		if errors.Is(err, interview.ErrPlanGeneration) {
			// setup state survives; the user retries with another topic
			respondError(w, http.StatusUnprocessableEntity, "plan_generation_failed",
				"could not build questions for this topic, try another one")
			return
		}
		slog.Error("failed to begin interview", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to begin interview")
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleInterviewMessage(w http.ResponseWriter, r *http.Request) {
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

	reply, err := s.interview.HandleMessage(r.Context(), userID, req.Text)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			respondError(w, http.StatusNotFound, "no_session", "no interview in progress")
			return
		}
		slog.Error("failed to handle interview message", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleInterviewResume(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	sess, question, err := s.interview.Resume(r.Context(), userID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			respondError(w, http.StatusNotFound, "no_session", "no interview to resume")
			return
		}
		slog.Error("failed to resume interview", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to resume interview")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session":          sess,
		"current_question": question,
	})
}

func (s *Server) handleInterviewExit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := s.interview.Exit(r.Context(), userID); err != nil {
		slog.Error("failed to exit interview", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to exit interview")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "exited"})
}

func (s *Server) handleInterviewReports(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit, offset := pagination(r, 10)

	reports, err := s.interview.Reports(r.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("failed to list interview reports", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list reports")
		return
	}

	respondJSON(w, http.StatusOK, reports)
}
