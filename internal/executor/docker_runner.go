package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DockerRunner runs scripts inside short-lived containers: no network, a
// memory cap and a pid cap. This is the hardened isolation mode.
type DockerRunner struct {
	docker     *client.Client
	image      string
	memory     int64
	pullPolicy string
	maxOutput  int64
}

// DockerRunnerConfig holds DockerRunner construction parameters
type DockerRunnerConfig struct {
	Host       string
	Image      string
	Memory     int64
	PullPolicy string
	MaxOutput  int64
}

// NewDockerRunner creates a container-based runner
func NewDockerRunner(cfg DockerRunnerConfig) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost(cfg.Host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if cfg.Image == "" {
		cfg.Image = "python:3.12-alpine"
	}
	if cfg.Memory <= 0 {
		cfg.Memory = 256 * 1024 * 1024
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = 64 * 1024
	}

	return &DockerRunner{
		docker:     cli,
		image:      cfg.Image,
		memory:     cfg.Memory,
		pullPolicy: cfg.PullPolicy,
		maxOutput:  cfg.MaxOutput,
	}, nil
}

// Ping checks Docker connectivity
func (r *DockerRunner) Ping(ctx context.Context) error {
	if _, err := r.docker.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping failed: %w", err)
	}
	return nil
}

// Close releases the Docker client
func (r *DockerRunner) Close() error {
	return r.docker.Close()
}

// Run executes the script in a fresh container and force-removes it on every
// exit path. The wall-clock limit is enforced by killing the container.
func (r *DockerRunner) Run(ctx context.Context, script string, limit time.Duration) (*RunOutput, error) {
	if err := r.pullImage(ctx); err != nil {
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}

	containerConfig := &container.Config{
		Image:           r.image,
		Cmd:             []string{"python3", "-c", script},
		NetworkDisabled: true,
		Env:             []string{"PYTHONUNBUFFERED=1"},
		Labels: map[string]string{
			"practice.managed": "true",
		},
	}

	pids := int64(64)
	hostConfig := &container.HostConfig{
		NetworkMode: container.NetworkMode("none"),
		AutoRemove:  false,
		Resources: container.Resources{
			Memory:    r.memory,
			PidsLimit: &pids,
		},
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyDisabled,
		},
	}

	resp, err := r.docker.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := resp.ID

	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.docker.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			slog.Warn("failed to remove sandbox container", "error", err, "container", containerID)
		}
	}()

	if err := r.docker.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	statusCh, errCh := r.docker.ContainerWait(waitCtx, containerID, container.WaitConditionNotRunning)

	var exitCode int
	timedOut := false

	select {
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case err := <-errCh:
		if waitCtx.Err() == context.DeadlineExceeded {
			timedOut = true
			exitCode = -1
			killCtx, killCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if kerr := r.docker.ContainerKill(killCtx, containerID, "KILL"); kerr != nil {
				slog.Warn("failed to kill timed-out container", "error", kerr, "container", containerID)
			}
			killCancel()
		} else if err != nil {
			return nil, fmt.Errorf("failed to wait for container: %w", err)
		}
	}

	stdout, stderr, err := r.collectLogs(containerID)
	if err != nil {
		return nil, err
	}

	return &RunOutput{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		TimedOut: timedOut,
	}, nil
}

// pullImage pulls the sandbox image according to the pull policy
func (r *DockerRunner) pullImage(ctx context.Context) error {
	if r.pullPolicy == "never" {
		return nil
	}

	_, _, err := r.docker.ImageInspectWithRaw(ctx, r.image)
	if err == nil && r.pullPolicy != "always" {
		return nil
	}

	slog.Info("pulling sandbox image", "image", r.image)
	out, err := r.docker.ImagePull(ctx, r.image, types.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer out.Close()

	_, _ = io.Copy(io.Discard, out)
	return nil
}

// collectLogs reads the container's demultiplexed stdout and stderr streams
func (r *DockerRunner) collectLogs(containerID string) (string, string, error) {
	logsCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logs, err := r.docker.ContainerLogs(logsCtx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to get container logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, io.LimitReader(logs, r.maxOutput*2+1024)); err != nil {
		return "", "", fmt.Errorf("failed to read container logs: %w", err)
	}

	return capString(stdout.String(), r.maxOutput), capString(stderr.String(), r.maxOutput), nil
}

func capString(s string, max int64) string {
	if int64(len(s)) > max {
		return s[:max]
	}
	return s
}
