package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// userLockMiddleware holds the per-user lock for the duration of one
// request. A request arriving while the user's previous one is still in
// flight is rejected with 429 rather than racing on session state.
// Exit and resume routes bypass this so an exit is always honored.
func (s *Server) userLockMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "validation_error", "user id is required")
			return
		}

		ok, err := s.lock.Acquire(r.Context(), userID)
		if err != nil {
			slog.Error("failed to acquire user lock", "user_id", userID, "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to acquire user lock")
			return
		}
		if !ok {
			respondError(w, http.StatusTooManyRequests, "still_processing",
				"previous message is still being processed")
			return
		}
		// release must land even when the request context is already
		// canceled (client gone, timeout fired), otherwise the user
		// stays locked out until the safety expiry
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(r.Context()), userID); err != nil {
				slog.Warn("failed to release user lock", "user_id", userID, "error", err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
