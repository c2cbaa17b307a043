// Package testgen produces executable verification code for catalog
// problems via the LLM collaborator.
package testgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/terra-clan/practice-engine/internal/llm"
	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/prompts"
)

// ErrEmptyTests is returned when the model produced no usable test code
var ErrEmptyTests = errors.New("generated test code is empty")

// Generator turns a problem into test code
type Generator struct {
	llm     llm.Completer
	prompts *prompts.Loader
}

// New creates a test generator
func New(completer llm.Completer, loader *prompts.Loader) *Generator {
	return &Generator{llm: completer, prompts: loader}
}

// Generate requests test code for the given problem. The returned code is
// plain Python with any markdown fencing stripped; it is treated as
// untrusted and only ever runs inside the sandbox.
func (g *Generator) Generate(ctx context.Context, callerID string, problem *models.Problem) (string, error) {
	p := g.prompts.Get("testgen.generate")
	if p == nil {
		return "", errors.New("testgen.generate prompt is not loaded")
	}

	message := p.Render(map[string]string{
		"title":     problem.Title,
		"statement": problem.StatementHTML,
		"starter":   problem.StarterCode,
	})

	raw, err := g.llm.Complete(ctx, callerID, p.System, message)
	if err != nil {
		return "", fmt.Errorf("test generation failed: %w", err)
	}

	code := llm.StripFences(raw)
	if strings.TrimSpace(code) == "" {
		return "", ErrEmptyTests
	}

	slog.Debug("test code generated", "slug", problem.Slug, "bytes", len(code))
	return code, nil
}
