package practice

import (
	"strings"

	"github.com/terra-clan/practice-engine/internal/executor"
)

// codeSignals are keywords whose presence marks a message as a code
// submission rather than a question
var codeSignals = []string{
	"def ",
	"class ",
	"import ",
	"return ",
	"print(",
	"if ",
	"for ",
	"while ",
}

const minCodeLength = 10

// LooksLikeCode decides whether a message is a submission or a question.
// Short messages and messages without a code-signal keyword are questions.
// A message that carries code signals counts as code even when it does not
// parse; the executor reports the syntax error in that case.
func LooksLikeCode(text string) bool {
	if len(text) < minCodeLength {
		return false
	}

	hasSignal := false
	for _, k := range codeSignals {
		if strings.Contains(text, k) {
			hasSignal = true
			break
		}
	}
	if !hasSignal {
		return false
	}

	if executor.Check(text) == nil {
		return true
	}
	return hasSignal
}
