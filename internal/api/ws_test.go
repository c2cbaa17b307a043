package api

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/practice-engine/internal/interview"
	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/practice"
)

func dialDialogue(t *testing.T, h *harness, userID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(h.server.Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + userID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func inProgressInterview(t *testing.T, userID string) *models.InterviewSession {
	t.Helper()

	sess, err := models.NewInterviewSession(userID, models.PersonaFriendly)
	if err != nil {
		t.Fatalf("failed to create interview session: %v", err)
	}
	if err := sess.Begin("arrays", []string{"q1", "q2", "q3"}); err != nil {
		t.Fatalf("failed to begin interview: %v", err)
	}
	return sess
}

func roundTrip(t *testing.T, conn *websocket.Conn, out DialogueMessage) DialogueMessage {
	t.Helper()

	if err := conn.WriteJSON(out); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
	var in DialogueMessage
	if err := conn.ReadJSON(&in); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return in
}

func TestDialogueRoutesToActiveInterview(t *testing.T) {
	h := newHarness()
	h.interview.sess = inProgressInterview(t, "u1")
	h.interview.question = "q1"
	h.interview.reply = &interview.Reply{Feedback: "good", NextQuestion: "q2"}

	conn := dialDialogue(t, h, "u1")
	msg := roundTrip(t, conn, DialogueMessage{Type: "message", Text: "my answer"})
	if msg.Type != "reply" {
		t.Fatalf("frame type = %q, want reply (%+v)", msg.Type, msg)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload = %T", msg.Payload)
	}
	if payload["feedback"] != "good" || payload["next_question"] != "q2" {
		t.Errorf("interview reply not routed, payload = %v", payload)
	}
}

func TestDialogueRoutesToPracticeWithoutInterview(t *testing.T) {
	h := newHarness()
	h.practice.reply = &practice.Reply{Kind: practice.ReplyHint, Text: "try a hash map"}

	conn := dialDialogue(t, h, "u1")
	msg := roundTrip(t, conn, DialogueMessage{Type: "message", Text: "stuck"})
	if msg.Type != "reply" {
		t.Fatalf("frame type = %q, want reply (%+v)", msg.Type, msg)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload = %T", msg.Payload)
	}
	if payload["text"] != "try a hash map" {
		t.Errorf("practice reply not routed, payload = %v", payload)
	}
}

func TestDialogueResumeFallsBackToInterview(t *testing.T) {
	h := newHarness()
	h.interview.sess = inProgressInterview(t, "u1")
	h.interview.question = "q2"

	conn := dialDialogue(t, h, "u1")
	msg := roundTrip(t, conn, DialogueMessage{Type: "resume"})
	if msg.Type != "session" {
		t.Fatalf("frame type = %q, want session (%+v)", msg.Type, msg)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("payload = %T", msg.Payload)
	}
	if payload["current_question"] != "q2" {
		t.Errorf("current_question = %v", payload["current_question"])
	}
}

func TestDialogueResumeWithNoSessions(t *testing.T) {
	h := newHarness()

	conn := dialDialogue(t, h, "u1")
	msg := roundTrip(t, conn, DialogueMessage{Type: "resume"})
	if msg.Type != "error" {
		t.Fatalf("frame type = %q, want error", msg.Type)
	}
}
