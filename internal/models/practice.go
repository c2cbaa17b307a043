package models

import (
	"fmt"
	"time"
)

// PracticeStage represents the current state of a practice session
type PracticeStage string

const (
	PracticeIdle            PracticeStage = "idle"             // No active problem
	PracticePresented       PracticeStage = "presented"        // Problem shown, awaiting a submission
	PracticeAwaitingVerdict PracticeStage = "awaiting_verdict" // Submission in the judge pipeline
)

// PracticeSession is the persisted per-user practice state. It is only
// mutated through the transition methods below; every reachable shape carries
// exactly the fields valid for its stage (Problem is nil iff the stage is idle).
type PracticeSession struct {
	UserID    string        `json:"user_id"`
	Stage     PracticeStage `json:"stage"`
	Problem   *Problem      `json:"problem,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewPracticeSession creates an idle session for a user
func NewPracticeSession(userID string) *PracticeSession {
	now := time.Now().UTC()
	return &PracticeSession{
		UserID:    userID,
		Stage:     PracticeIdle,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Present transitions Idle -> Presented with the given problem
func (s *PracticeSession) Present(p *Problem) error {
	if s.Stage != PracticeIdle {
		return fmt.Errorf("cannot present problem in stage %q", s.Stage)
	}
	if p == nil {
		return fmt.Errorf("problem is required")
	}
	s.Stage = PracticePresented
	s.Problem = p
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// BeginJudging transitions Presented -> AwaitingVerdict
func (s *PracticeSession) BeginJudging() error {
	if s.Stage != PracticePresented {
		return fmt.Errorf("cannot judge submission in stage %q", s.Stage)
	}
	s.Stage = PracticeAwaitingVerdict
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Reject transitions AwaitingVerdict -> Presented after a failed verdict
func (s *PracticeSession) Reject() error {
	if s.Stage != PracticeAwaitingVerdict {
		return fmt.Errorf("cannot reject submission in stage %q", s.Stage)
	}
	s.Stage = PracticePresented
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Solve transitions AwaitingVerdict -> Idle after an accepted verdict
func (s *PracticeSession) Solve() error {
	if s.Stage != PracticeAwaitingVerdict {
		return fmt.Errorf("cannot accept submission in stage %q", s.Stage)
	}
	s.Stage = PracticeIdle
	s.Problem = nil
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// HasActiveProblem returns true if a problem is currently in play
func (s *PracticeSession) HasActiveProblem() bool {
	return s.Stage != PracticeIdle && s.Problem != nil
}

// UserStats is the aggregate practice record for one user
type UserStats struct {
	UserID      string    `json:"user_id"`
	SolvedCount int       `json:"solved_count"`
	LastSolved  string    `json:"last_solved,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SolvedProblem is one entry in a user's solved history
type SolvedProblem struct {
	UserID   string    `json:"user_id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	SolvedAt time.Time `json:"solved_at"`
}
