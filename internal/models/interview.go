package models

import (
	"fmt"
	"time"
)

// Persona is a selectable interviewer style that conditions all prompts
// during an interview simulation
type Persona string

const (
	PersonaFriendly Persona = "friendly" // Supportive HR-style interviewer
	PersonaNerd     Persona = "nerd"     // Deep-dive technical senior
	PersonaToxic    Persona = "toxic"    // Adversarial stress interviewer
)

// ValidPersona reports whether p is one of the known personas
func ValidPersona(p Persona) bool {
	switch p {
	case PersonaFriendly, PersonaNerd, PersonaToxic:
		return true
	}
	return false
}

// InterviewStage represents the current state of an interview simulation
type InterviewStage string

const (
	InterviewSetup      InterviewStage = "setup"
	InterviewInProgress InterviewStage = "in_progress"
	InterviewCompleted  InterviewStage = "completed"
)

// PlanLength is the fixed number of questions in an interview plan
const PlanLength = 3

// QA is one question/answer exchange in an interview history
type QA struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// InterviewSession is the persisted per-user interview state. Mutated only
// through the transition methods below.
type InterviewSession struct {
	UserID      string         `json:"user_id"`
	Stage       InterviewStage `json:"stage"`
	Persona     Persona        `json:"persona"`
	Topic       string         `json:"topic,omitempty"`
	Plan        []string       `json:"plan,omitempty"`
	CurrentStep int            `json:"current_step"`
	History     []QA           `json:"history,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewInterviewSession creates a setup-stage session with the chosen persona
func NewInterviewSession(userID string, persona Persona) (*InterviewSession, error) {
	if !ValidPersona(persona) {
		return nil, fmt.Errorf("unknown persona %q", persona)
	}
	now := time.Now().UTC()
	return &InterviewSession{
		UserID:    userID,
		Stage:     InterviewSetup,
		Persona:   persona,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Begin transitions Setup -> InProgress with a generated question plan
func (s *InterviewSession) Begin(topic string, plan []string) error {
	if s.Stage != InterviewSetup {
		return fmt.Errorf("cannot begin interview in stage %q", s.Stage)
	}
	if len(plan) != PlanLength {
		return fmt.Errorf("plan must contain exactly %d questions, got %d", PlanLength, len(plan))
	}
	s.Topic = topic
	s.Plan = plan
	s.CurrentStep = 0
	s.History = nil
	s.Stage = InterviewInProgress
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// CurrentQuestion returns the question awaiting an answer
func (s *InterviewSession) CurrentQuestion() (string, error) {
	if s.Stage != InterviewInProgress {
		return "", fmt.Errorf("no current question in stage %q", s.Stage)
	}
	if s.CurrentStep < 0 || s.CurrentStep >= len(s.Plan) {
		return "", fmt.Errorf("step %d out of plan range", s.CurrentStep)
	}
	return s.Plan[s.CurrentStep], nil
}

// Advance records the answer to the current question and moves forward,
// transitioning to Completed after the final question
func (s *InterviewSession) Advance(answer string) error {
	q, err := s.CurrentQuestion()
	if err != nil {
		return err
	}
	s.History = append(s.History, QA{Question: q, Answer: answer})
	s.CurrentStep++
	if s.CurrentStep >= len(s.Plan) {
		s.Stage = InterviewCompleted
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Done returns true once every planned question has been answered
func (s *InterviewSession) Done() bool {
	return s.Stage == InterviewCompleted
}

// InterviewReport is the final persisted outcome of a completed interview
type InterviewReport struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	Persona   Persona   `json:"persona"`
	Report    string    `json:"report"`
	Questions int       `json:"questions"`
	CreatedAt time.Time `json:"created_at"`
}
