package models

import "strings"

// Difficulty represents a problem difficulty tier
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// ParseDifficulty normalizes a user-supplied difficulty string, defaulting to EASY
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToUpper(strings.TrimSpace(s))) {
	case DifficultyMedium:
		return DifficultyMedium
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyEasy
	}
}

// Problem is an immutable description of a practice task fetched from the
// external catalog. Never mutated locally; cached only inside a session snapshot.
type Problem struct {
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	StatementHTML string     `json:"statement_html"`
	StarterCode   string     `json:"starter_code"`
	Link          string     `json:"link"`
}

// ProblemSummary is the list-view subset of a problem
type ProblemSummary struct {
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	PaidOnly   bool       `json:"paid_only"`
}

// ProblemPage is one page of catalog results
type ProblemPage struct {
	Problems []ProblemSummary `json:"problems"`
	Total    int              `json:"total"`
	Offset   int              `json:"offset"`
	HasMore  bool             `json:"has_more"`
}
