// Package interview implements the interview simulation state machine:
// persona setup, a fixed-length question plan, answer classification and
// the final report.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/practice-engine/internal/llm"
	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/prompts"
	"github.com/terra-clan/practice-engine/internal/session"
	"github.com/terra-clan/practice-engine/internal/storage"
	"github.com/terra-clan/practice-engine/internal/worker"
)

// ErrPlanGeneration is returned when the model failed to produce a valid
// question plan; the session stays in setup and the user retries with a
// different topic.
var ErrPlanGeneration = errors.New("could not build a question plan for this topic")

// Reply is the outcome of handling one interview message
type Reply struct {
	Feedback     string                  `json:"feedback,omitempty"`
	NextQuestion string                  `json:"next_question,omitempty"`
	Report       *models.InterviewReport `json:"report,omitempty"`
	Done         bool                    `json:"done"`
}

// Machine drives interview simulations for all users
type Machine struct {
	store   *session.Store
	repo    storage.Repository
	llm     llm.Completer
	prompts *prompts.Loader
	queue   *worker.Queue
}

// NewMachine wires the interview state machine
func NewMachine(store *session.Store, repo storage.Repository, completer llm.Completer, loader *prompts.Loader, queue *worker.Queue) *Machine {
	return &Machine{
		store:   store,
		repo:    repo,
		llm:     completer,
		prompts: loader,
		queue:   queue,
	}
}

// Setup creates a fresh setup-stage session with the chosen persona,
// replacing any previous interview for the user.
func (m *Machine) Setup(ctx context.Context, userID string, persona models.Persona) (*models.InterviewSession, error) {
	sess, err := models.NewInterviewSession(userID, persona)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveInterview(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("interview setup", "user_id", userID, "persona", persona)
	return sess, nil
}

// Begin generates the question plan for a topic and starts the interview.
// The first question is returned. On plan failure the session remains in
// setup so that the user can retry.
func (m *Machine) Begin(ctx context.Context, userID, topic string) (*Reply, error) {
	sess, err := m.store.LoadInterview(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan, err := m.generatePlan(ctx, sess, topic)
	if err != nil {
		slog.Warn("plan generation failed", "user_id", userID, "topic", topic, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPlanGeneration, err)
	}

	if err := sess.Begin(topic, plan); err != nil {
		return nil, err
	}
	if err := m.store.SaveInterview(ctx, sess); err != nil {
		return nil, err
	}

	first, err := sess.CurrentQuestion()
	if err != nil {
		return nil, err
	}

	slog.Info("interview started", "user_id", userID, "topic", topic, "questions", len(plan))
	return &Reply{NextQuestion: first}, nil
}

func (m *Machine) generatePlan(ctx context.Context, sess *models.InterviewSession, topic string) ([]string, error) {
	p := m.prompts.Get("interview.plan")
	persona := m.prompts.Persona(sess.Persona)

	vars := map[string]string{
		"count": fmt.Sprintf("%d", models.PlanLength),
		"topic": topic,
	}
	system := persona.System + "\n\n" + strings.ReplaceAll(p.System, "{count}", vars["count"])

	raw, err := m.llm.Complete(ctx, sess.UserID, system, p.Render(vars))
	if err != nil {
		return nil, err
	}

	plan, err := llm.ParseStringList(raw)
	if err != nil {
		return nil, err
	}
	if len(plan) != models.PlanLength {
		return nil, fmt.Errorf("expected %d questions, got %d", models.PlanLength, len(plan))
	}
	return plan, nil
}

// HandleMessage processes one candidate message. Meta-questions get help
// and do not advance the plan; answers get persona feedback and move to
// the next question, or to the final report after the last one.
func (m *Machine) HandleMessage(ctx context.Context, userID, text string) (*Reply, error) {
	sess, err := m.store.LoadInterview(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != models.InterviewInProgress {
		return nil, fmt.Errorf("no interview in progress (stage %q)", sess.Stage)
	}

	question, err := sess.CurrentQuestion()
	if err != nil {
		return nil, err
	}

	if !m.isAnswer(ctx, sess.UserID, question, text) {
		return m.help(ctx, sess, question, text)
	}

	if err := sess.Advance(text); err != nil {
		return nil, err
	}

	if sess.Done() {
		return m.finish(ctx, sess, question, text)
	}

	next, err := sess.CurrentQuestion()
	if err != nil {
		return nil, err
	}

	feedback, err := m.feedback(ctx, sess, "interview.feedback", map[string]string{
		"question": question,
		"answer":   text,
		"next":     next,
	})
	if err != nil {
		return nil, err
	}

	if err := m.store.SaveInterview(ctx, sess); err != nil {
		return nil, err
	}

	return &Reply{Feedback: feedback, NextQuestion: next}, nil
}

// isAnswer classifies the message. Classification failures default to
// treating the message as an answer so the interview never stalls.
func (m *Machine) isAnswer(ctx context.Context, userID, question, text string) bool {
	p := m.prompts.Get("interview.is_answer")
	message := p.Render(map[string]string{
		"question": question,
		"message":  text,
	})

	raw, err := m.llm.Complete(ctx, userID, p.System, message)
	if err != nil {
		slog.Warn("answer classification failed", "user_id", userID, "error", err)
		return true
	}

	isAnswer, err := llm.ParseBoolField(raw, "is_answer")
	if err != nil {
		slog.Warn("answer classification unparsable", "user_id", userID, "error", err)
		return true
	}
	return isAnswer
}

func (m *Machine) help(ctx context.Context, sess *models.InterviewSession, question, text string) (*Reply, error) {
	help, err := m.feedback(ctx, sess, "interview.help", map[string]string{
		"question": question,
		"message":  text,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Feedback: help, NextQuestion: question}, nil
}

// feedback runs a persona-styled prompt by name
func (m *Machine) feedback(ctx context.Context, sess *models.InterviewSession, name string, vars map[string]string) (string, error) {
	p := m.prompts.Get(name)
	persona := m.prompts.Persona(sess.Persona)
	return m.llm.Complete(ctx, sess.UserID, persona.System, p.Render(vars))
}

func (m *Machine) finish(ctx context.Context, sess *models.InterviewSession, question, answer string) (*Reply, error) {
	closing, err := m.feedback(ctx, sess, "interview.closing", map[string]string{
		"question": question,
		"answer":   answer,
	})
	if err != nil {
		slog.Warn("closing feedback failed", "user_id", sess.UserID, "error", err)
		closing = ""
	}

	reportText, err := m.report(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("report generation failed: %w", err)
	}

	report := &models.InterviewReport{
		ID:        uuid.New().String(),
		UserID:    sess.UserID,
		Topic:     sess.Topic,
		Persona:   sess.Persona,
		Report:    reportText,
		Questions: len(sess.History),
		CreatedAt: time.Now().UTC(),
	}

	if err := m.store.DeleteInterview(ctx, sess.UserID); err != nil {
		return nil, err
	}

	if err := m.queue.Submit(worker.Task{
		Name: "save-report",
		Run: func(taskCtx context.Context) error {
			return m.repo.SaveReport(taskCtx, report)
		},
	}); err != nil {
		slog.Warn("report persistence dropped", "user_id", sess.UserID)
	}

	slog.Info("interview completed", "user_id", sess.UserID, "topic", sess.Topic)
	return &Reply{Feedback: closing, Report: report, Done: true}, nil
}

func (m *Machine) report(ctx context.Context, sess *models.InterviewSession) (string, error) {
	var transcript strings.Builder
	for i, qa := range sess.History {
		fmt.Fprintf(&transcript, "Q%d: %s\nA%d: %s\n\n", i+1, qa.Question, i+1, qa.Answer)
	}

	p := m.prompts.Get("interview.report")
	persona := m.prompts.Persona(sess.Persona)
	message := p.Render(map[string]string{
		"topic":      sess.Topic,
		"transcript": transcript.String(),
	})
	return m.llm.Complete(ctx, sess.UserID, persona.System+"\n\n"+p.System, message)
}

// Resume reloads the persisted interview so the caller can re-present the
// current question.
func (m *Machine) Resume(ctx context.Context, userID string) (*models.InterviewSession, string, error) {
	sess, err := m.store.LoadInterview(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	question := ""
	if sess.Stage == models.InterviewInProgress {
		if question, err = sess.CurrentQuestion(); err != nil {
			return nil, "", err
		}
	}

	slog.Info("interview resumed", "user_id", userID, "stage", sess.Stage, "step", sess.CurrentStep)
	return sess, question, nil
}

// Exit leaves the persisted interview untouched for later resumption
func (m *Machine) Exit(ctx context.Context, userID string) error {
	_, err := m.store.LoadInterview(ctx, userID)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	return err
}

// Reports returns a user's past interview reports
func (m *Machine) Reports(ctx context.Context, userID string, limit, offset int) ([]*models.InterviewReport, error) {
	return m.repo.ListReports(ctx, userID, limit, offset)
}
