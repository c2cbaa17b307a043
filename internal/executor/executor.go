package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/practice-engine/internal/models"
)

const sentinelPrefix = "PRACTICE_OK_"

// Executor runs untrusted submissions against generated test assertions.
// The pipeline is: static syntax pre-check, script assembly, isolated run,
// verdict. Failures to launch the run degrade to a runtime-stage result and
// never propagate as errors; retries are a caller decision.
type Executor struct {
	runner Runner
	limit  time.Duration
}

// New creates an executor with the given runner and default time limit
func New(runner Runner, limit time.Duration) *Executor {
	if limit <= 0 {
		limit = 5 * time.Second
	}
	return &Executor{runner: runner, limit: limit}
}

// Execute runs userCode with testCode under the default time limit
func (e *Executor) Execute(ctx context.Context, userCode, testCode string) *models.ExecutionResult {
	return e.ExecuteWithLimit(ctx, userCode, testCode, e.limit)
}

// ExecuteWithLimit runs userCode with testCode under an explicit time limit
func (e *Executor) ExecuteWithLimit(ctx context.Context, userCode, testCode string, limit time.Duration) *models.ExecutionResult {
	// Stage 1: static pre-check. No process is spawned here.
	if serr := Check(userCode); serr != nil {
		return &models.ExecutionResult{
			Success: false,
			Stage:   models.StageLinting,
			Error:   serr.Error(),
		}
	}

	// Stage 2: assembly. A fresh sentinel per run keeps user output from
	// ever colliding with the success marker.
	sentinel := sentinelPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
	script := BuildScript(userCode, testCode, sentinel)

	// Stage 3: isolated run.
	out, err := e.runner.Run(ctx, script, limit)
	if err != nil {
		slog.Error("sandbox run failed to launch", "error", err)
		return &models.ExecutionResult{
			Success: false,
			Stage:   models.StageRuntime,
			Error:   fmt.Sprintf("execution failed: %v", err),
		}
	}

	if out.TimedOut {
		return &models.ExecutionResult{
			Success: false,
			Stage:   models.StageRuntime,
			Error:   fmt.Sprintf("Time Limit Exceeded (%s). Possible infinite loop.", limit),
		}
	}

	// Stage 4: verdict.
	stdout := strings.TrimSpace(out.Stdout)
	stderr := strings.TrimSpace(out.Stderr)

	success := strings.Contains(stdout, sentinel) && out.ExitCode == 0
	stdout = strings.TrimSpace(strings.ReplaceAll(stdout, sentinel, ""))

	return &models.ExecutionResult{
		Success: success,
		Stage:   models.StageRuntime,
		Output:  stdout,
		Error:   stderr,
	}
}
