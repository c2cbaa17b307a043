package executor

import (
	"fmt"
	"strings"
)

// mainGuards are the top-level entry-point guards stripped from generated
// test code so the assertions run inside our own guarded block instead.
var mainGuards = []string{
	`if __name__ == "__main__":`,
	`if __name__ == '__main__':`,
}

const scriptPreamble = `import sys
from typing import *
import collections
import math
import itertools
import bisect
import heapq
`

// BuildScript assembles user code and test code into one runnable script.
// The test body runs inside a try block: on success the sentinel token is
// printed as the final line of stdout, on any exception a full traceback goes
// to stderr and the process exits non-zero.
func BuildScript(userCode, testCode, sentinel string) string {
	for _, guard := range mainGuards {
		testCode = strings.ReplaceAll(testCode, guard, "")
	}
	testCode = indent(strings.TrimSpace(testCode), "        ")

	var b strings.Builder
	b.WriteString(scriptPreamble)
	b.WriteString("\n# --- User Code ---\n")
	b.WriteString(userCode)
	b.WriteString("\n\n# --- Test Code ---\n")
	b.WriteString("if __name__ == \"__main__\":\n")
	b.WriteString("    try:\n")
	if testCode != "" {
		b.WriteString(testCode)
		b.WriteString("\n")
	} else {
		b.WriteString("        pass\n")
	}
	b.WriteString(fmt.Sprintf("        print(%q)\n", sentinel))
	b.WriteString("    except Exception:\n")
	b.WriteString("        import traceback\n")
	b.WriteString("        traceback.print_exc()\n")
	b.WriteString("        sys.exit(1)\n")
	return b.String()
}

// indent prefixes every non-blank line with the given prefix
func indent(s, prefix string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
