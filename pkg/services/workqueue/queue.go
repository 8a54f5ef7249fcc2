package workqueue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Queue manages task execution with per-kind serialization. Two import
// batches targeting the same entity family would race on their
// existence-check-then-insert sequences, so the queue never runs two tasks
// of the same kind concurrently; unrelated kinds proceed in parallel.
type Queue struct {
	mu          sync.Mutex
	tasks       []*TaskState
	kindRunning map[string]bool
	cancelled   bool

	// wg tracks running goroutines.
	wg sync.WaitGroup

	// Cancellation context for running tasks.
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

// New creates a new work queue.
func New(logger *zap.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		tasks:       make([]*TaskState, 0),
		kindRunning: make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.Named("workqueue"),
	}
}

// Enqueue adds a task to the queue and attempts to start eligible tasks.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cancelled {
		q.logger.Warn("queue cancelled, ignoring enqueue",
			zap.String("task_id", task.ID()),
			zap.String("task_name", task.Name()))
		return
	}

	state := NewTaskState(task)
	q.tasks = append(q.tasks, state)

	q.logger.Info("task enqueued",
		zap.String("task_id", task.ID()),
		zap.String("task_name", task.Name()),
		zap.String("kind", task.Kind()))

	q.tryStartTasksLocked()
}

// tryStartTasksLocked starts every pending task whose kind is currently
// idle. Must be called with the lock held.
func (q *Queue) tryStartTasksLocked() {
	if q.cancelled {
		return
	}

	for _, ts := range q.tasks {
		if ts.GetStatus() != TaskStatusPending {
			continue
		}

		kind := ts.Task.Kind()
		if q.kindRunning[kind] {
			continue
		}

		q.kindRunning[kind] = true
		ts.SetStatus(TaskStatusRunning)

		q.logger.Info("starting task",
			zap.String("task_id", ts.Task.ID()),
			zap.String("task_name", ts.Task.Name()),
			zap.String("kind", kind))

		q.wg.Add(1)
		go q.runTask(ts)
	}
}

// runTask executes a task and records its terminal state.
func (q *Queue) runTask(ts *TaskState) {
	defer q.wg.Done()

	err := ts.Task.Execute(q.ctx)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.kindRunning[ts.Task.Kind()] = false

	if err != nil {
		ts.SetError(err)
		ts.SetStatus(TaskStatusFailed)
		q.logger.Error("task failed",
			zap.String("task_id", ts.Task.ID()),
			zap.String("task_name", ts.Task.Name()),
			zap.Error(err))
	} else {
		ts.SetStatus(TaskStatusCompleted)
		q.logger.Info("task completed",
			zap.String("task_id", ts.Task.ID()),
			zap.String("task_name", ts.Task.Name()))
	}

	q.tryStartTasksLocked()
}

// Cancel stops accepting new tasks, marks pending tasks cancelled and
// signals running tasks via their context.
func (q *Queue) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cancelled {
		return
	}
	q.cancelled = true
	q.cancel()

	for _, ts := range q.tasks {
		if ts.GetStatus() == TaskStatusPending {
			ts.SetStatus(TaskStatusCancelled)
		}
	}

	q.logger.Info("queue cancelled")
}

// Wait blocks until all started tasks have finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Get returns the state of the task with the given id, or nil.
func (q *Queue) Get(id string) *TaskState {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, ts := range q.tasks {
		if ts.Task.ID() == id {
			return ts
		}
	}
	return nil
}

// Snapshots returns a point-in-time copy of all task states in enqueue order.
func (q *Queue) Snapshots() []TaskSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	snaps := make([]TaskSnapshot, 0, len(q.tasks))
	for _, ts := range q.tasks {
		snaps = append(snaps, ts.Snapshot())
	}
	return snaps
}
