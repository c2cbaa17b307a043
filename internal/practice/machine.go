// Package practice implements the per-user practice session state machine:
// problem selection, submission judging and solved-history bookkeeping.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/terra-clan/practice-engine/internal/llm"
	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/prompts"
	"github.com/terra-clan/practice-engine/internal/session"
	"github.com/terra-clan/practice-engine/internal/storage"
	"github.com/terra-clan/practice-engine/internal/worker"
)

// ErrActiveSessionExists is returned when starting a problem would discard
// another one without confirmation
var ErrActiveSessionExists = errors.New("another problem is already active")

// Catalog is the problem source consumed by the machine
type Catalog interface {
	Random(ctx context.Context, difficulty models.Difficulty) (*models.Problem, error)
	BySlug(ctx context.Context, slug string) (*models.Problem, error)
}

// TestGenerator produces verification code for a problem
type TestGenerator interface {
	Generate(ctx context.Context, callerID string, problem *models.Problem) (string, error)
}

// Judge runs a submission against generated tests
type Judge interface {
	Execute(ctx context.Context, userCode, testCode string) *models.ExecutionResult
}

// Selector identifies the problem to start: an explicit slug wins over a
// random pick by difficulty
type Selector struct {
	Slug       string
	Difficulty models.Difficulty
}

// ReplyKind tags what a HandleMessage reply carries
type ReplyKind string

const (
	ReplyHint     ReplyKind = "hint"     // LLM hint, session unchanged
	ReplyAccepted ReplyKind = "accepted" // all tests passed, session cleared
	ReplyRejected ReplyKind = "rejected" // verdict failed, resubmission expected
)

// Reply is the outcome of handling one user message
type Reply struct {
	Kind   ReplyKind               `json:"kind"`
	Text   string                  `json:"text,omitempty"`
	Result *models.ExecutionResult `json:"result,omitempty"`
}

// Machine drives practice sessions for all users
type Machine struct {
	store   *session.Store
	repo    storage.Repository
	catalog Catalog
	testgen TestGenerator
	judge   Judge
	llm     llm.Completer
	prompts *prompts.Loader
	queue   *worker.Queue
}

// NewMachine wires the practice state machine
func NewMachine(
	store *session.Store,
	repo storage.Repository,
	cat Catalog,
	gen TestGenerator,
	judge Judge,
	completer llm.Completer,
	loader *prompts.Loader,
	queue *worker.Queue,
) *Machine {
	return &Machine{
		store:   store,
		repo:    repo,
		catalog: cat,
		testgen: gen,
		judge:   judge,
		llm:     completer,
		prompts: loader,
		queue:   queue,
	}
}

// Start presents a new problem to the user. When a different problem is
// already active and force is false, it fails with ErrActiveSessionExists;
// the caller surfaces a discard confirmation and retries with force.
func (m *Machine) Start(ctx context.Context, userID string, sel Selector, force bool) (*models.PracticeSession, error) {
	existing, err := m.store.LoadPractice(ctx, userID)
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return nil, err
	}

	if existing != nil && existing.HasActiveProblem() {
		if existing.Problem.Slug == sel.Slug {
			// restarting the same problem is a resume, not a conflict
			return existing, nil
		}
		if !force {
			return nil, fmt.Errorf("%w: %s", ErrActiveSessionExists, existing.Problem.Slug)
		}
		slog.Info("discarding active problem", "user_id", userID, "slug", existing.Problem.Slug)
		if err := m.store.DeletePractice(ctx, userID); err != nil {
			return nil, err
		}
	}

	problem, err := m.fetchProblem(ctx, sel)
	if err != nil {
		return nil, err
	}

	sess := models.NewPracticeSession(userID)
	if err := sess.Present(problem); err != nil {
		return nil, err
	}
	if err := m.store.SavePractice(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("problem presented", "user_id", userID, "slug", problem.Slug, "difficulty", problem.Difficulty)
	return sess, nil
}

func (m *Machine) fetchProblem(ctx context.Context, sel Selector) (*models.Problem, error) {
	if sel.Slug != "" {
		return m.catalog.BySlug(ctx, sel.Slug)
	}
	return m.catalog.Random(ctx, sel.Difficulty)
}

// HandleMessage processes one user message against the active session.
// Questions get a hint and leave the machine where it was; code goes
// through the judge pipeline.
func (m *Machine) HandleMessage(ctx context.Context, userID, text string) (*Reply, error) {
	sess, err := m.store.LoadPractice(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sess.HasActiveProblem() {
		return nil, session.ErrNoSession
	}

	if !LooksLikeCode(text) {
		return m.hint(ctx, sess, text)
	}
	return m.judgeSubmission(ctx, sess, text)
}

func (m *Machine) hint(ctx context.Context, sess *models.PracticeSession, text string) (*Reply, error) {
	p := m.prompts.Get("practice.hint")
	message := p.Render(map[string]string{
		"title":     sess.Problem.Title,
		"statement": sess.Problem.StatementHTML,
		"message":   text,
	})

	answer, err := m.llm.Complete(ctx, sess.UserID, p.System, message)
	if err != nil {
		return nil, fmt.Errorf("hint request failed: %w", err)
	}

	return &Reply{Kind: ReplyHint, Text: answer}, nil
}

func (m *Machine) judgeSubmission(ctx context.Context, sess *models.PracticeSession, code string) (*Reply, error) {
	if err := sess.BeginJudging(); err != nil {
		return nil, err
	}
	if err := m.store.SavePractice(ctx, sess); err != nil {
		return nil, err
	}

	tests, err := m.testgen.Generate(ctx, sess.UserID, sess.Problem)
	if err != nil {
		// the user can simply resubmit; a failed rollback leaves the
		// snapshot awaiting_verdict, which Resume recovers
		if rerr := m.reject(ctx, sess); rerr != nil {
			slog.Warn("failed to roll back session after generation error",
				"user_id", sess.UserID, "error", rerr)
		}
		return nil, fmt.Errorf("test generation failed: %w", err)
	}

	result := m.judge.Execute(ctx, code, tests)

	if result.Success {
		return m.accept(ctx, sess, result)
	}

	if err := m.reject(ctx, sess); err != nil {
		return nil, err
	}

	if result.IsLintFailure() {
		// syntax errors are relayed verbatim
		return &Reply{Kind: ReplyRejected, Text: result.Error, Result: result}, nil
	}

	explanation, err := m.explainFailure(ctx, sess, code, result)
	if err != nil {
		slog.Warn("failure explanation unavailable", "user_id", sess.UserID, "error", err)
		explanation = result.Error
	}
	return &Reply{Kind: ReplyRejected, Text: explanation, Result: result}, nil
}

func (m *Machine) accept(ctx context.Context, sess *models.PracticeSession, result *models.ExecutionResult) (*Reply, error) {
	solved := &models.SolvedProblem{
		UserID:   sess.UserID,
		Slug:     sess.Problem.Slug,
		Title:    sess.Problem.Title,
		SolvedAt: time.Now().UTC(),
	}

	if err := sess.Solve(); err != nil {
		return nil, err
	}
	if err := m.store.DeletePractice(ctx, sess.UserID); err != nil {
		return nil, err
	}

	// history write is off the reply path; losing one entry under
	// pressure is acceptable
	if err := m.queue.Submit(worker.Task{
		Name: "record-solved",
		Run: func(taskCtx context.Context) error {
			return m.repo.RecordSolved(taskCtx, solved)
		},
	}); err != nil {
		slog.Warn("solved record dropped", "user_id", solved.UserID, "slug", solved.Slug)
	}

	slog.Info("submission accepted", "user_id", sess.UserID, "slug", solved.Slug)
	return &Reply{
		Kind:   ReplyAccepted,
		Text:   "All tests passed. Want to dig into the complexity of your solution or try a harder one?",
		Result: result,
	}, nil
}

func (m *Machine) reject(ctx context.Context, sess *models.PracticeSession) error {
	if err := sess.Reject(); err != nil {
		return err
	}
	return m.store.SavePractice(ctx, sess)
}

func (m *Machine) explainFailure(ctx context.Context, sess *models.PracticeSession, code string, result *models.ExecutionResult) (string, error) {
	p := m.prompts.Get("practice.rejection")
	message := p.Render(map[string]string{
		"title":  sess.Problem.Title,
		"code":   code,
		"output": result.Error,
	})
	return m.llm.Complete(ctx, sess.UserID, p.System, message)
}

// Resume reloads the persisted session so the caller can re-present the
// problem. A session stuck mid-judging (process died before the verdict
// landed) falls back to awaiting a resubmission.
func (m *Machine) Resume(ctx context.Context, userID string) (*models.PracticeSession, error) {
	sess, err := m.store.LoadPractice(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sess.Stage == models.PracticeAwaitingVerdict {
		if err := sess.Reject(); err != nil {
			return nil, err
		}
		if err := m.store.SavePractice(ctx, sess); err != nil {
			return nil, err
		}
	}

	slog.Info("practice session resumed", "user_id", userID, "slug", sess.Problem.Slug)
	return sess, nil
}

// Exit leaves the persisted session untouched; only the caller's dialogue
// state ends. The user resumes later via Resume.
func (m *Machine) Exit(ctx context.Context, userID string) error {
	_, err := m.store.LoadPractice(ctx, userID)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	return err
}

// Stats returns the user's aggregate practice record
func (m *Machine) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	return m.repo.GetStats(ctx, userID)
}

// Solved returns the user's solved history
func (m *Machine) Solved(ctx context.Context, userID string, limit, offset int) ([]*models.SolvedProblem, error) {
	return m.repo.ListSolved(ctx, userID, limit, offset)
}
