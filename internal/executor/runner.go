package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// RunOutput is the raw outcome of one sandboxed script run
type RunOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Runner executes an assembled script in isolation under a hard wall-clock
// limit. Implementations must guarantee the sandboxed work is terminated when
// the limit elapses and that no temporary state survives the call.
type Runner interface {
	Run(ctx context.Context, script string, limit time.Duration) (*RunOutput, error)
}

// ProcessRunner runs scripts as separate OS processes. Isolation is limited to the
// process boundary plus forced process-group termination on timeout; stronger
// isolation is provided by DockerRunner.
type ProcessRunner struct {
	Python    string // interpreter binary, e.g. "python3"
	WorkDir   string // temp file location, "" = system temp dir
	MaxOutput int64  // per-stream capture cap in bytes
}

// NewProcessRunner creates a process-based runner
func NewProcessRunner(python, workDir string, maxOutput int64) *ProcessRunner {
	if python == "" {
		python = "python3"
	}
	if maxOutput <= 0 {
		maxOutput = 64 * 1024
	}
	return &ProcessRunner{Python: python, WorkDir: workDir, MaxOutput: maxOutput}
}

// Run writes the script to a throwaway file, executes it in its own process
// group and enforces the wall-clock limit with a group SIGKILL. The temp file
// is removed on every exit path.
func (r *ProcessRunner) Run(ctx context.Context, script string, limit time.Duration) (*RunOutput, error) {
	tmp, err := os.CreateTemp(r.WorkDir, "submission-*.py")
	if err != nil {
		return nil, fmt.Errorf("failed to create script file: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.WriteString(script); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write script file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close script file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Python, path)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = 2 * time.Second
	cmd.Cancel = func() error {
		// Kill the whole group so spawned children cannot outlive the run
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	stdout := newCapBuffer(r.MaxOutput)
	stderr := newCapBuffer(r.MaxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()

	out := &RunOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		out.TimedOut = true
		out.ExitCode = -1
		return out, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, fmt.Errorf("failed to run script: %w", runErr)
	}

	out.ExitCode = 0
	return out, nil
}

// capBuffer collects writes up to a fixed cap, discarding the overflow
type capBuffer struct {
	mu  sync.Mutex
	buf []byte
	cap int64
}

func newCapBuffer(cap int64) *capBuffer {
	return &capBuffer{cap: cap}
}

func (b *capBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.cap - int64(len(b.buf))
	if remaining > 0 {
		if int64(len(p)) > remaining {
			b.buf = append(b.buf, p[:remaining]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	// Report full length so the writer never blocks on a full buffer
	return len(p), nil
}

func (b *capBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
