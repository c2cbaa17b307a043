package practice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/prompts"
	"github.com/terra-clan/practice-engine/internal/session"
	"github.com/terra-clan/practice-engine/internal/worker"
)

// --- fakes ---

type fakeCatalog struct {
	problems map[string]*models.Problem
	random   *models.Problem
}

func (f *fakeCatalog) Random(_ context.Context, _ models.Difficulty) (*models.Problem, error) {
	if f.random == nil {
		return nil, errors.New("no problems")
	}
	return f.random, nil
}

func (f *fakeCatalog) BySlug(_ context.Context, slug string) (*models.Problem, error) {
	p, ok := f.problems[slug]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

type fakeGen struct {
	tests string
	err   error
	fn    func() (string, error) // overrides tests/err when set
}

func (f *fakeGen) Generate(_ context.Context, _ string, _ *models.Problem) (string, error) {
	if f.fn != nil {
		return f.fn()
	}
	return f.tests, f.err
}

type fakeJudge struct {
	result *models.ExecutionResult
}

func (f *fakeJudge) Execute(_ context.Context, _, _ string) *models.ExecutionResult {
	return f.result
}

type fakeLLM struct {
	resp string
	err  error
}

func (f *fakeLLM) Complete(_ context.Context, _, _, _ string) (string, error) {
	return f.resp, f.err
}

type fakeRepo struct {
	solved  []*models.SolvedProblem
	reports []*models.InterviewReport
}

func (f *fakeRepo) RecordSolved(_ context.Context, sp *models.SolvedProblem) error {
	f.solved = append(f.solved, sp)
	return nil
}

func (f *fakeRepo) ListSolved(_ context.Context, userID string, _, _ int) ([]*models.SolvedProblem, error) {
	return f.solved, nil
}

func (f *fakeRepo) GetStats(_ context.Context, userID string) (*models.UserStats, error) {
	return &models.UserStats{UserID: userID, SolvedCount: len(f.solved)}, nil
}

func (f *fakeRepo) SaveReport(_ context.Context, r *models.InterviewReport) error {
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeRepo) GetReport(_ context.Context, _ string) (*models.InterviewReport, error) {
	return nil, nil
}

func (f *fakeRepo) ListReports(_ context.Context, _ string, _, _ int) ([]*models.InterviewReport, error) {
	return f.reports, nil
}

func (f *fakeRepo) Ping(_ context.Context) error { return nil }
func (f *fakeRepo) Close() error                 { return nil }

// --- harness ---

type harness struct {
	machine *Machine
	store   *session.Store
	mr      *miniredis.Miniredis
	repo    *fakeRepo
	judge   *fakeJudge
	gen     *fakeGen
	llm     *fakeLLM
	queue   *worker.Queue
}

func twoSum() *models.Problem {
	return &models.Problem{
		Slug:        "two-sum",
		Title:       "Two Sum",
		Difficulty:  models.DifficultyEasy,
		StarterCode: "class Solution:\n    def twoSum(self, nums, target):\n        pass",
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := &harness{
		store: session.NewStore(client, 24*time.Hour),
		mr:    mr,
		repo:  &fakeRepo{},
		judge: &fakeJudge{result: &models.ExecutionResult{Success: true, Stage: models.StageRuntime}},
		gen:   &fakeGen{tests: "assert Solution().twoSum([2,7], 9) == [0,1]"},
		llm:   &fakeLLM{resp: "try a hash map"},
		queue: worker.NewQueue(16, 1),
	}
	h.queue.Start(context.Background())
	t.Cleanup(h.queue.Stop)

	cat := &fakeCatalog{
		problems: map[string]*models.Problem{"two-sum": twoSum()},
		random:   twoSum(),
	}

	h.machine = NewMachine(h.store, h.repo, cat, h.gen, h.judge, h.llm, prompts.NewLoader(), h.queue)
	return h
}

const validCode = "class Solution:\n    def twoSum(self, nums, target):\n        return [0, 1]"

func mustStart(t *testing.T, h *harness, userID string) *models.PracticeSession {
	t.Helper()
	sess, err := h.machine.Start(context.Background(), userID, Selector{Slug: "two-sum"}, false)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return sess
}

// --- tests ---

func TestStartPresentsAndPersists(t *testing.T) {
	h := newHarness(t)
	sess := mustStart(t, h, "u1")

	if sess.Stage != models.PracticePresented {
		t.Errorf("stage = %q", sess.Stage)
	}

	persisted, err := h.store.LoadPractice(context.Background(), "u1")
	if err != nil {
		t.Fatalf("session was not persisted: %v", err)
	}
	if persisted.Problem.Slug != "two-sum" {
		t.Errorf("persisted slug = %q", persisted.Problem.Slug)
	}
}

func TestStartConflictNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	mustStart(t, h, "u1")

	_, err := h.machine.Start(context.Background(), "u1", Selector{Difficulty: models.DifficultyEasy}, false)
	if !errors.Is(err, ErrActiveSessionExists) {
		t.Fatalf("expected ErrActiveSessionExists, got %v", err)
	}

	// confirmed discard
	if _, err := h.machine.Start(context.Background(), "u1", Selector{Difficulty: models.DifficultyEasy}, true); err != nil {
		t.Fatalf("forced start failed: %v", err)
	}
}

func TestStartSameSlugIsNotAConflict(t *testing.T) {
	h := newHarness(t)
	mustStart(t, h, "u1")

	sess, err := h.machine.Start(context.Background(), "u1", Selector{Slug: "two-sum"}, false)
	if err != nil {
		t.Fatalf("restarting the same problem failed: %v", err)
	}
	if sess.Problem.Slug != "two-sum" {
		t.Errorf("slug = %q", sess.Problem.Slug)
	}
}

func TestQuestionGetsHintKeepsState(t *testing.T) {
	h := newHarness(t)
	mustStart(t, h, "u1")

	reply, err := h.machine.HandleMessage(context.Background(), "u1", "how do I even start here?")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if reply.Kind != ReplyHint {
		t.Errorf("kind = %q, want hint", reply.Kind)
	}
	if reply.Text != "try a hash map" {
		t.Errorf("text = %q", reply.Text)
	}

	sess, _ := h.store.LoadPractice(context.Background(), "u1")
	if sess.Stage != models.PracticePresented {
		t.Errorf("hint must not change stage, got %q", sess.Stage)
	}
}

func TestAcceptedSubmissionClearsSessionAndRecords(t *testing.T) {
	h := newHarness(t)
	mustStart(t, h, "u1")

	reply, err := h.machine.HandleMessage(context.Background(), "u1", validCode)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if reply.Kind != ReplyAccepted {
		t.Fatalf("kind = %q, want accepted", reply.Kind)
	}

	if _, err := h.store.LoadPractice(context.Background(), "u1"); !errors.Is(err, session.ErrNoSession) {
		t.Error("accepted submission must clear the persisted session")
	}

	h.queue.Stop()
	if len(h.repo.solved) != 1 || h.repo.solved[0].Slug != "two-sum" {
		t.Errorf("solved history = %+v", h.repo.solved)
	}
}

func TestLintFailureRelayedVerbatim(t *testing.T) {
	h := newHarness(t)
	h.judge.result = &models.ExecutionResult{
		Stage: models.StageLinting,
		Error: "Syntax Error on line 2:\n    return [0, 1\n            ^\n'[' was never closed",
	}
	mustStart(t, h, "u1")

	reply, err := h.machine.HandleMessage(context.Background(), "u1", validCode)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if reply.Kind != ReplyRejected {
		t.Fatalf("kind = %q, want rejected", reply.Kind)
	}
	if reply.Text != h.judge.result.Error {
		t.Errorf("lint error must be relayed verbatim, got %q", reply.Text)
	}

	sess, _ := h.store.LoadPractice(context.Background(), "u1")
	if sess.Stage != models.PracticePresented {
		t.Errorf("stage after rejection = %q, want presented", sess.Stage)
	}
}

func TestRuntimeFailureExplained(t *testing.T) {
	h := newHarness(t)
	h.judge.result = &models.ExecutionResult{
		Stage: models.StageRuntime,
		Error: "AssertionError: Exp [0,1], got None",
	}
	h.llm.resp = "your function returns nothing"
	mustStart(t, h, "u1")

	reply, err := h.machine.HandleMessage(context.Background(), "u1", validCode)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if reply.Kind != ReplyRejected {
		t.Fatalf("kind = %q, want rejected", reply.Kind)
	}
	if !strings.Contains(reply.Text, "returns nothing") {
		t.Errorf("expected the explanation, got %q", reply.Text)
	}
}

func TestRuntimeFailureExplanationFailsOpen(t *testing.T) {
	h := newHarness(t)
	h.judge.result = &models.ExecutionResult{
		Stage: models.StageRuntime,
		Error: "ZeroDivisionError: division by zero",
	}
	h.llm.err = errors.New("llm down")
	mustStart(t, h, "u1")

	reply, err := h.machine.HandleMessage(context.Background(), "u1", validCode)
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if reply.Text != "ZeroDivisionError: division by zero" {
		t.Errorf("raw error should back-fill a failed explanation, got %q", reply.Text)
	}
}

func TestGenerationFailureReturnsToPresented(t *testing.T) {
	h := newHarness(t)
	h.gen.err = errors.New("generator offline")
	mustStart(t, h, "u1")

	if _, err := h.machine.HandleMessage(context.Background(), "u1", validCode); err == nil {
		t.Fatal("expected error")
	}

	sess, _ := h.store.LoadPractice(context.Background(), "u1")
	if sess.Stage != models.PracticePresented {
		t.Errorf("stage = %q, want presented for resubmission", sess.Stage)
	}
}

func TestGenerationFailureWithUnreachableStore(t *testing.T) {
	h := newHarness(t)
	mustStart(t, h, "u1")

	// the store dies between persisting awaiting_verdict and the rollback
	h.gen.fn = func() (string, error) {
		h.mr.SetError("store gone")
		return "", errors.New("generator offline")
	}

	_, err := h.machine.HandleMessage(context.Background(), "u1", validCode)
	if err == nil || !strings.Contains(err.Error(), "test generation failed") {
		t.Fatalf("generation error must win over the rollback error, got %v", err)
	}

	// the stuck snapshot is recovered on resume
	h.mr.SetError("")
	sess, _ := h.store.LoadPractice(context.Background(), "u1")
	if sess.Stage != models.PracticeAwaitingVerdict {
		t.Fatalf("stage = %q, want awaiting_verdict after failed rollback", sess.Stage)
	}

	recovered, err := h.machine.Resume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if recovered.Stage != models.PracticePresented {
		t.Errorf("stage = %q, want presented after recovery", recovered.Stage)
	}
}

func TestHandleMessageWithoutSession(t *testing.T) {
	h := newHarness(t)

	if _, err := h.machine.HandleMessage(context.Background(), "ghost", validCode); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestExitPreservesSessionForResume(t *testing.T) {
	h := newHarness(t)
	mustStart(t, h, "u1")

	if err := h.machine.Exit(context.Background(), "u1"); err != nil {
		t.Fatalf("Exit failed: %v", err)
	}

	sess, err := h.machine.Resume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if sess.Problem.Slug != "two-sum" {
		t.Errorf("resumed slug = %q", sess.Problem.Slug)
	}
	if sess.Stage != models.PracticePresented {
		t.Errorf("resumed stage = %q", sess.Stage)
	}
}

func TestResumeWithoutSession(t *testing.T) {
	h := newHarness(t)

	if _, err := h.machine.Resume(context.Background(), "ghost"); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestResumeRecoversStuckVerdict(t *testing.T) {
	h := newHarness(t)
	sess := mustStart(t, h, "u1")

	// simulate a crash after the submission was persisted as in-flight
	if err := sess.BeginJudging(); err != nil {
		t.Fatalf("BeginJudging failed: %v", err)
	}
	if err := h.store.SavePractice(context.Background(), sess); err != nil {
		t.Fatalf("SavePractice failed: %v", err)
	}

	resumed, err := h.machine.Resume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.Stage != models.PracticePresented {
		t.Errorf("stuck verdict should fall back to presented, got %q", resumed.Stage)
	}
}
