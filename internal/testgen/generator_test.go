package testgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/terra-clan/practice-engine/internal/models"
	"github.com/terra-clan/practice-engine/internal/prompts"
)

type fakeCompleter struct {
	resp    string
	err     error
	lastMsg string
	lastSys string
}

func (f *fakeCompleter) Complete(_ context.Context, _, instruction, message string) (string, error) {
	f.lastSys = instruction
	f.lastMsg = message
	return f.resp, f.err
}

func sampleProblem() *models.Problem {
	return &models.Problem{
		Slug:          "two-sum",
		Title:         "Two Sum",
		StatementHTML: "<p>Find two numbers that add to target.</p>",
		StarterCode:   "class Solution:\n    def twoSum(self, nums, target):\n        pass",
	}
}

func TestGenerateStripsFences(t *testing.T) {
	fake := &fakeCompleter{resp: "```python\nassert Solution().twoSum([2,7], 9) == [0,1]\n```"}
	g := New(fake, prompts.NewLoader())

	code, err := g.Generate(context.Background(), "u1", sampleProblem())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.Contains(code, "```") {
		t.Errorf("fences not stripped: %q", code)
	}
	if !strings.Contains(code, "twoSum") {
		t.Errorf("unexpected code: %q", code)
	}
}

func TestGeneratePromptIncludesProblem(t *testing.T) {
	fake := &fakeCompleter{resp: "assert True"}
	g := New(fake, prompts.NewLoader())

	if _, err := g.Generate(context.Background(), "u1", sampleProblem()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(fake.lastMsg, "Two Sum") {
		t.Error("prompt is missing the problem title")
	}
	if !strings.Contains(fake.lastMsg, "class Solution") {
		t.Error("prompt is missing the starter code")
	}
	if fake.lastSys == "" {
		t.Error("system instruction was not passed")
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	fake := &fakeCompleter{resp: "```\n\n```"}
	g := New(fake, prompts.NewLoader())

	if _, err := g.Generate(context.Background(), "u1", sampleProblem()); !errors.Is(err, ErrEmptyTests) {
		t.Errorf("expected ErrEmptyTests, got %v", err)
	}
}

func TestGenerateCompleterError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("upstream down")}
	g := New(fake, prompts.NewLoader())

	if _, err := g.Generate(context.Background(), "u1", sampleProblem()); err == nil {
		t.Error("expected error from completer")
	}
}
