// Package worker runs deferred side effects (stats recording, report
// persistence) off the request path on a bounded queue.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned when the queue rejects a task
var ErrQueueFull = errors.New("work queue is full")

// Task is one deferred unit of work
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue executes tasks on a fixed worker pool with a bounded buffer.
// Submission never blocks: when the buffer is full the task is rejected
// and the caller decides whether losing it matters.
type Queue struct {
	tasks   chan Task
	workers int

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewQueue creates a queue with the given buffer size and worker count
func NewQueue(size, workers int) *Queue {
	if size <= 0 {
		size = 256
	}
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		tasks:   make(chan Task, size),
		workers: workers,
	}
}

// Start launches the worker goroutines
func (q *Queue) Start(ctx context.Context) {
	slog.Info("work queue started", "workers", q.workers, "capacity", cap(q.tasks))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(ctx, i)
	}
}

func (q *Queue) run(ctx context.Context, id int) {
	defer q.wg.Done()

	for task := range q.tasks {
		start := time.Now()
		if err := task.Run(ctx); err != nil {
			slog.Error("task failed", "task", task.Name, "worker", id, "error", err)
			continue
		}
		slog.Debug("task completed", "task", task.Name, "worker", id, "took", time.Since(start))
	}
}

// Submit enqueues a task. Returns ErrQueueFull instead of blocking when
// the buffer has no room.
func (q *Queue) Submit(task Task) error {
	select {
	case q.tasks <- task:
		return nil
	default:
		slog.Warn("task dropped", "task", task.Name)
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight tasks to drain
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.tasks)
	})
	q.wg.Wait()
	slog.Info("work queue stopped")
}
