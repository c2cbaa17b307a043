package executor

import (
	"fmt"
	"strings"
)

// SyntaxError describes a static pre-check failure in a Python source text.
// Line and Col are 1-based.
type SyntaxError struct {
	Line     int
	Col      int
	LineText string
	Msg      string
}

// Error renders the failure with the offending line and a caret marker,
// matching the report format users see for syntax errors.
func (e *SyntaxError) Error() string {
	caret := strings.Repeat(" ", max(e.Col-1, 0)) + "^"
	return fmt.Sprintf("Syntax Error on line %d:\n%s\n%s\n%s", e.Line, e.LineText, caret, e.Msg)
}

// blockKeywords are statement keywords that must introduce a ':' block header
var blockKeywords = map[string]bool{
	"if": true, "elif": true, "else": true,
	"for": true, "while": true,
	"def": true, "class": true,
	"try": true, "except": true, "finally": true, "with": true,
}

type bracketOpen struct {
	ch   byte
	line int
	col  int
}

// Check performs a static syntax pre-check of Python source without executing
// it. It is a conservative tokenizer-level checker: unterminated strings,
// unbalanced brackets, malformed def/class headers and block headers missing
// their ':' are rejected; source it cannot prove broken passes, and a real
// syntax error then surfaces from the interpreter at the runtime stage.
func Check(src string) *SyntaxError {
	lines := strings.Split(src, "\n")

	var stack []bracketOpen

	inTriple := false
	var tripleQuote string
	tripleLine, tripleCol := 0, 0

	continuation := false // previous physical line ended with a backslash

	// Per logical line (reset when a new one begins at depth 0)
	firstWord := ""
	firstWordLine := 0
	sawColon := false
	headerEndLine, headerEndCol := 0, 0
	var headerText string

	checkHeader := func() *SyntaxError {
		if firstWord != "" && blockKeywords[firstWord] && !sawColon {
			return &SyntaxError{
				Line:     headerEndLine,
				Col:      headerEndCol,
				LineText: headerText,
				Msg:      "expected ':'",
			}
		}
		return nil
	}

	for li, line := range lines {
		lineno := li + 1
		i := 0

		startedInTriple := inTriple
		if inTriple {
			idx := strings.Index(line, tripleQuote)
			if idx < 0 {
				continue
			}
			i = idx + len(tripleQuote)
			inTriple = false
		}

		newLogical := len(stack) == 0 && !continuation && !startedInTriple
		if newLogical {
			if err := checkHeader(); err != nil {
				return err
			}
			firstWord = ""
			sawColon = false
			trimmed := strings.TrimLeft(line[i:], " \t")
			if trimmed != "" && trimmed[0] != '#' {
				j := 0
				for j < len(trimmed) && (isIdentByte(trimmed[j]) || trimmed[j] == '_') {
					j++
				}
				firstWord = trimmed[:j]
				firstWordLine = lineno
			}
		}
		continuation = false

		expectParamStart := false // just entered a def parameter list

		for i < len(line) {
			c := line[i]

			switch {
			case c == '#':
				i = len(line)
				continue

			case c == '\'' || c == '"':
				q := string(c)
				if strings.HasPrefix(line[i:], q+q+q) {
					rest := line[i+3:]
					idx := strings.Index(rest, q+q+q)
					if idx < 0 {
						inTriple = true
						tripleQuote = q + q + q
						tripleLine, tripleCol = lineno, i+1
						i = len(line)
						continue
					}
					i += 3 + idx + 3
					continue
				}
				end := scanString(line, i)
				if end < 0 {
					return &SyntaxError{
						Line:     lineno,
						Col:      i + 1,
						LineText: line,
						Msg:      fmt.Sprintf("unterminated string literal (detected at line %d)", lineno),
					}
				}
				i = end
				continue

			case c == '(' || c == '[' || c == '{':
				stack = append(stack, bracketOpen{ch: c, line: lineno, col: i + 1})
				if c == '(' && firstWord == "def" && firstWordLine == lineno && len(stack) == 1 {
					expectParamStart = true
					i++
					continue
				}

			case c == ')' || c == ']' || c == '}':
				if len(stack) == 0 || stack[len(stack)-1].ch != matchingOpen(c) {
					return &SyntaxError{
						Line:     lineno,
						Col:      i + 1,
						LineText: line,
						Msg:      fmt.Sprintf("unmatched '%c'", c),
					}
				}
				stack = stack[:len(stack)-1]

			case c == ':':
				if expectParamStart {
					// "def f(:" is invalid, a parameter list cannot open with a colon
					return &SyntaxError{
						Line:     lineno,
						Col:      i + 1,
						LineText: line,
						Msg:      "invalid syntax",
					}
				}
				if len(stack) == 0 {
					sawColon = true
				}

			case c == '\\' && i == len(line)-1:
				continuation = true
			}

			if expectParamStart && c != ' ' && c != '\t' && c != '(' {
				expectParamStart = false
			}
			i++
		}

		if len(stack) == 0 && !continuation && !inTriple && firstWord != "" {
			headerEndLine = lineno
			headerEndCol = len(strings.TrimRight(line, " \t")) + 1
			headerText = line
		}
	}

	if inTriple {
		return &SyntaxError{
			Line:     tripleLine,
			Col:      tripleCol,
			LineText: lines[tripleLine-1],
			Msg:      fmt.Sprintf("unterminated triple-quoted string literal (detected at line %d)", len(lines)),
		}
	}

	if len(stack) > 0 {
		open := stack[0]
		return &SyntaxError{
			Line:     open.line,
			Col:      open.col,
			LineText: lines[open.line-1],
			Msg:      fmt.Sprintf("'%c' was never closed", open.ch),
		}
	}

	if !continuation {
		if err := checkHeader(); err != nil {
			return err
		}
	}

	return nil
}

// scanString scans a single-line string literal starting at the quote at
// position i and returns the index just past the closing quote, or -1 if the
// literal is not terminated on this line.
func scanString(line string, i int) int {
	q := line[i]
	j := i + 1
	for j < len(line) {
		switch line[j] {
		case '\\':
			j += 2
			continue
		case q:
			return j + 1
		}
		j++
	}
	return -1
}

func matchingOpen(close byte) byte {
	switch close {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
