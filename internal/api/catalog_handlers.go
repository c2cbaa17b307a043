package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/practice-engine/internal/catalog"
	"github.com/terra-clan/practice-engine/internal/models"
)

func (s *Server) handleRandomProblem(w http.ResponseWriter, r *http.Request) {
	difficulty := models.ParseDifficulty(r.URL.Query().Get("difficulty"))

	problem, err := s.catalog.Random(r.Context(), difficulty)
	if err != nil {
		if errors.Is(err, catalog.ErrNoFreeProblems) {
			respondError(w, http.StatusNotFound, "no_free_problems", err.Error())
			return
		}
		slog.Error("failed to fetch random problem", "difficulty", difficulty, "error", err)
		respondError(w, http.StatusBadGateway, "catalog_error", "failed to fetch a random problem")
		return
	}

	respondJSON(w, http.StatusOK, problem)
}

func (s *Server) handleProblemBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	problem, err := s.catalog.BySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "problem_not_found", "problem not found")
			return
		}
		slog.Error("failed to fetch problem", "slug", slug, "error", err)
		respondError(w, http.StatusBadGateway, "catalog_error", "failed to fetch problem")
		return
	}

	respondJSON(w, http.StatusOK, problem)
}

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	difficulty := models.ParseDifficulty(q.Get("difficulty"))
	category := q.Get("category")

	limit := 10
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}

	page, err := s.catalog.List(r.Context(), category, difficulty, limit, offset)
	if err != nil {
		slog.Error("failed to list problems", "error", err)
		respondError(w, http.StatusBadGateway, "catalog_error", "failed to list problems")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleSearchProblems(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "q is required")
		return
	}

	limit := 5
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	results, err := s.catalog.Search(r.Context(), keyword, limit)
	if err != nil {
		slog.Error("failed to search problems", "keyword", keyword, "error", err)
		respondError(w, http.StatusBadGateway, "catalog_error", "failed to search problems")
		return
	}

	respondJSON(w, http.StatusOK, results)
}
