package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/practice-engine/internal/api"
	"github.com/terra-clan/practice-engine/internal/catalog"
	"github.com/terra-clan/practice-engine/internal/config"
	"github.com/terra-clan/practice-engine/internal/executor"
	"github.com/terra-clan/practice-engine/internal/interview"
	"github.com/terra-clan/practice-engine/internal/llm"
	"github.com/terra-clan/practice-engine/internal/practice"
	"github.com/terra-clan/practice-engine/internal/prompts"
	"github.com/terra-clan/practice-engine/internal/session"
	"github.com/terra-clan/practice-engine/internal/storage"
	"github.com/terra-clan/practice-engine/internal/testgen"
	"github.com/terra-clan/practice-engine/internal/worker"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting practice-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"runner", cfg.Executor.Runner,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Connect Redis for session state and per-user locks
	redisClient, err := session.Connect(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	store := session.NewStore(redisClient, cfg.Session.InterviewTTL)
	lock := session.NewLock(redisClient, cfg.Session.LockExpiry)

	// Load prompt overrides; built-in defaults cover everything otherwise
	promptLoader := prompts.NewLoader()
	if err := promptLoader.LoadFromDir(cfg.Prompts.Dir); err != nil {
		slog.Warn("failed to load prompts from dir", "dir", cfg.Prompts.Dir, "error", err)
	}

	// Initialize the sandbox executor
	runner, err := buildRunner(cfg.Executor)
	if err != nil {
		slog.Error("failed to create executor runner", "error", err)
		os.Exit(1)
	}
	exec := executor.New(runner, cfg.Executor.TimeLimit)

	// Outbound clients
	catalogClient := catalog.NewClient(cfg.Catalog.Endpoint,
		catalog.WithTimeout(cfg.Catalog.Timeout))
	llmClient := llm.NewClient(cfg.LLM.BaseURL,
		llm.WithTimeout(cfg.LLM.Timeout))

	// Background work queue for deferred persistence
	queue := worker.NewQueue(cfg.Worker.QueueSize, 2)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Start(ctx)

	// Wire the state machines
	generator := testgen.New(llmClient, promptLoader)
	practiceMachine := practice.NewMachine(store, repo, catalogClient, generator, exec, llmClient, promptLoader, queue)
	interviewMachine := interview.NewMachine(store, repo, llmClient, promptLoader, queue)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, practiceMachine, interviewMachine, catalogClient, exec, lock, repo, store)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Drain deferred persistence before closing backends
	queue.Stop()

	if closer, ok := runner.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Error("runner close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		slog.Error("session store close error", "error", err)
	}
	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("practice-engine stopped")
}

func buildRunner(cfg config.ExecutorConfig) (executor.Runner, error) {
	switch cfg.Runner {
	case "docker":
		return executor.NewDockerRunner(executor.DockerRunnerConfig{
			Host:       cfg.DockerHost,
			Image:      cfg.DockerImage,
			Memory:     cfg.MemoryLimit,
			PullPolicy: cfg.PullPolicy,
			MaxOutput:  cfg.MaxOutput,
		})
	default:
		return executor.NewProcessRunner(cfg.Python, cfg.WorkDir, cfg.MaxOutput), nil
	}
}
