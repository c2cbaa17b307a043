package executor

import (
	"strings"
	"testing"
)

func TestCheckValidSources(t *testing.T) {
	sources := []string{
		"def f():\n    return 1",
		"class Solution:\n    def twoSum(self, nums, target):\n        return []",
		"x = [1, 2, 3]\nprint(x)",
		"while True: pass",
		"def f(x: int, y: str = \"a\") -> int:\n    return x",
		"s = \"it's fine\"\nt = 'say \"hi\"'",
		"doc = \"\"\"multi\nline\nstring\"\"\"",
		"total = (1 +\n         2 +\n         3)",
		"if x > 1:\n    pass\nelse:\n    pass",
		"# just a comment\n",
		"d = {'a': 1, 'b': 2}",
		"a[1:2] = b[::-1]",
	}

	for _, src := range sources {
		if err := Check(src); err != nil {
			t.Errorf("Check(%q) unexpectedly failed: %v", src, err)
		}
	}
}

func TestCheckBrokenDefHeader(t *testing.T) {
	err := Check("def f(:")
	if err == nil {
		t.Fatal("expected syntax error for 'def f(:'")
	}
	if err.Line != 1 {
		t.Errorf("expected line 1, got %d", err.Line)
	}
	if err.Col != 7 {
		t.Errorf("expected caret at col 7 (the colon), got %d", err.Col)
	}

	msg := err.Error()
	if !strings.Contains(msg, "Syntax Error on line 1") {
		t.Errorf("message should cite line 1: %q", msg)
	}
	if !strings.Contains(msg, "def f(:") {
		t.Errorf("message should include the offending line: %q", msg)
	}
	// Caret line: six spaces then '^' pointing at the colon
	if !strings.Contains(msg, "\n      ^\n") {
		t.Errorf("caret not positioned at the colon: %q", msg)
	}
}

func TestCheckUnterminatedString(t *testing.T) {
	err := Check("x = 'never closed")
	if err == nil {
		t.Fatal("expected syntax error for unterminated string")
	}
	if err.Line != 1 || err.Col != 5 {
		t.Errorf("expected error at 1:5, got %d:%d", err.Line, err.Col)
	}
	if !strings.Contains(err.Msg, "unterminated string literal") {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestCheckUnclosedBracket(t *testing.T) {
	err := Check("x = [1, 2\ny = 3")
	if err == nil {
		t.Fatal("expected syntax error for unclosed bracket")
	}
	if err.Line != 1 {
		t.Errorf("expected error on line 1 (the opener), got %d", err.Line)
	}
	if !strings.Contains(err.Msg, "never closed") {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestCheckUnmatchedCloser(t *testing.T) {
	err := Check("x = (1))")
	if err == nil {
		t.Fatal("expected syntax error for unmatched ')'")
	}
	if !strings.Contains(err.Msg, "unmatched ')'") {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestCheckBlockHeaderMissingColon(t *testing.T) {
	err := Check("if x > 1\n    pass")
	if err == nil {
		t.Fatal("expected syntax error for missing ':'")
	}
	if err.Line != 1 {
		t.Errorf("expected error on line 1, got %d", err.Line)
	}
	if !strings.Contains(err.Msg, "expected ':'") {
		t.Errorf("unexpected message: %q", err.Msg)
	}
}

func TestCheckMultilineHeaderWithColon(t *testing.T) {
	src := "def f(a,\n      b):\n    return a + b"
	if err := Check(src); err != nil {
		t.Errorf("multiline def header should pass: %v", err)
	}
}

func TestCheckUnterminatedTripleString(t *testing.T) {
	err := Check("doc = \"\"\"starts here\nand never ends")
	if err == nil {
		t.Fatal("expected syntax error for unterminated triple string")
	}
	if err.Line != 1 {
		t.Errorf("expected error at opener line 1, got %d", err.Line)
	}
}
