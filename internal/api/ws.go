package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DialogueMessage is one frame on the dialogue websocket. Incoming types:
// "message", "exit", "resume". Outgoing types: "reply", "session", "busy",
// "error".
type DialogueMessage struct {
	Type    string      `json:"type"`
	Text    string      `json:"text,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// handleDialogueWS runs an interactive practice dialogue over a websocket.
// Each incoming message is handled under the per-user lock; a message
// arriving while the previous one is in flight gets a "busy" frame. Exit
// bypasses the lock so it is always honored.
func (s *Server) handleDialogueWS(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("dialogue websocket connected", "user_id", userID)

	for {
		var msg DialogueMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "user_id", userID, "error", err)
			}
			break
		}

		switch msg.Type {
		case "message":
			s.dialogueMessage(conn, r, userID, msg.Text)
		case "resume":
			s.dialogueResume(conn, r, userID)
		case "exit":
			// both machines keep their snapshots; exiting only ends
			// the dialogue
			if err := s.practice.Exit(r.Context(), userID); err != nil {
				s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "failed to exit"})
				continue
			}
			if err := s.interview.Exit(r.Context(), userID); err != nil {
				s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "failed to exit"})
				continue
			}
			s.sendDialogue(conn, DialogueMessage{Type: "session", Text: "exited"})
		default:
			s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "unknown message type"})
		}
	}

	slog.Info("dialogue websocket disconnected", "user_id", userID)
}

func (s *Server) dialogueMessage(conn *websocket.Conn, r *http.Request, userID, text string) {
	ok, err := s.lock.Acquire(r.Context(), userID)
	if err != nil {
		slog.Error("failed to acquire user lock", "user_id", userID, "error", err)
		s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "internal error"})
		return
	}
	if !ok {
		s.sendDialogue(conn, DialogueMessage{Type: "busy", Text: "previous message is still being processed"})
		return
	}
	// release must land even when the request context is already canceled
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(r.Context()), userID); err != nil {
			slog.Warn("failed to release user lock", "user_id", userID, "error", err)
		}
	}()

	// an interview in progress owns the dialogue; otherwise messages go
	// to the practice machine
	if sess, _, err := s.interview.Resume(r.Context(), userID); err == nil && sess != nil && sess.Stage == models.InterviewInProgress {
		reply, err := s.interview.HandleMessage(r.Context(), userID, text)
		if err != nil {
			slog.Error("failed to handle interview dialogue message", "user_id", userID, "error", err)
			s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "failed to process message"})
			return
		}
		s.sendDialogue(conn, DialogueMessage{Type: "reply", Payload: reply})
		return
	}

	reply, err := s.practice.HandleMessage(r.Context(), userID, text)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "no active problem, start one first"})
			return
		}
		slog.Error("failed to handle dialogue message", "user_id", userID, "error", err)
		s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "failed to process message"})
		return
	}

	s.sendDialogue(conn, DialogueMessage{Type: "reply", Payload: reply})
}

func (s *Server) dialogueResume(conn *websocket.Conn, r *http.Request, userID string) {
	sess, err := s.practice.Resume(r.Context(), userID)
	if err == nil {
		s.sendDialogue(conn, DialogueMessage{Type: "session", Payload: sess})
		return
	}
	if !errors.Is(err, session.ErrNoSession) {
		slog.Error("failed to resume via websocket", "user_id", userID, "error", err)
		s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "failed to resume"})
		return
	}

	isess, question, err := s.interview.Resume(r.Context(), userID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "no session to resume"})
			return
		}
		slog.Error("failed to resume interview via websocket", "user_id", userID, "error", err)
		s.sendDialogue(conn, DialogueMessage{Type: "error", Text: "failed to resume"})
		return
	}

	s.sendDialogue(conn, DialogueMessage{Type: "session", Payload: map[string]interface{}{
		"session":          isess,
		"current_question": question,
	}})
}

func (s *Server) sendDialogue(conn *websocket.Conn, msg DialogueMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		slog.Debug("failed to send dialogue message", "error", err)
	}
}
