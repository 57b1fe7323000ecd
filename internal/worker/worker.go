package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

type job struct {
	name string
	task Task
}

type WorkerPool struct {
	taskQueue chan job
	mu        sync.RWMutex // guards sends against close
	wg        sync.WaitGroup
	isClosing atomic.Bool // thread-safe value
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// NewWorkerPool starts size workers. Each task runs with its own timeout.
func NewWorkerPool(size int, timeout time.Duration, logger *zap.SugaredLogger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{
		taskQueue: make(chan job, 1000), // Buffer for 1000 pending tasks
		timeout:   timeout,
		logger:    logger,
	}

	// Start the workers
	for range size {
		wp.wg.Add(1) // add to WaitGroup
		go wp.startWorker()
	}

	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done() // signal when worker finished
	for j := range wp.taskQueue {
		wp.run(j)
	}
}

func (wp *WorkerPool) run(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), wp.timeout)
	defer cancel()
	if err := j.task(ctx); err != nil { // run task
		wp.logger.Warnw("worker task failed", "task", j.name, "error", err)
	}
}

// Submit queues t. It reports false when the pool is shutting down or the
// queue is full; the task is dropped in both cases.
func (wp *WorkerPool) Submit(name string, t Task) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.isClosing.Load() {
		wp.logger.Warnw("task submitted during shutdown, dropping", "task", name)
		return false
	}
	select {
	case wp.taskQueue <- job{name: name, task: t}: // send task to worker pool
		return true
	default:
		wp.logger.Warnw("task queue full, dropping task", "task", name)
		return false
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *WorkerPool) Shutdown() {
	wp.mu.Lock()
	if wp.isClosing.Swap(true) {
		wp.mu.Unlock()
		return
	}
	close(wp.taskQueue) // Stop accepting new tasks
	wp.mu.Unlock()
	wp.wg.Wait()        // Wait for all active workers to finish tasks
}
