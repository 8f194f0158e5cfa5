// Package task runs reconciliation passes: scan, group, classify, resolve,
// plan, and link, committing results per file. An orchestrator serializes
// runs and coalesces triggers that arrive mid-run.
package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one scan task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Counts summarize one run's outcomes.
type Counts struct {
	Files     int
	Groups    int
	Matched   int
	Uncertain int
	NotFound  int
	Ignored   int
	Linked    int
	Removed   int
	Skipped   int
	Errors    int
}

// Task tracks one reconciliation run. A nil Scope means a full scan of the
// source root; otherwise the run is limited to the listed paths.
type Task struct {
	mu         sync.Mutex
	id         string
	status     Status
	scope      []string
	startedAt  time.Time
	finishedAt time.Time
	counts     Counts
	errMsg     string
}

// View is an immutable snapshot of a task for reporting.
type View struct {
	ID         string
	Status     Status
	Scope      []string
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     Counts
	Err        string
}

func newTask(scope []string) *Task {
	return &Task{
		id:     uuid.NewString(),
		status: StatusPending,
		scope:  append([]string(nil), scope...),
	}
}

// ID returns the task's identifier.
func (t *Task) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// View returns a consistent snapshot.
func (t *Task) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return View{
		ID:         t.id,
		Status:     t.status,
		Scope:      append([]string(nil), t.scope...),
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
		Counts:     t.counts,
		Err:        t.errMsg,
	}
}

func (t *Task) start() {
	t.mu.Lock()
	t.status = StatusRunning
	t.startedAt = time.Now()
	t.mu.Unlock()
}

func (t *Task) finish(status Status, err error) {
	t.mu.Lock()
	t.status = status
	t.finishedAt = time.Now()
	if err != nil {
		t.errMsg = err.Error()
	}
	t.mu.Unlock()
}

func (t *Task) bump(apply func(*Counts)) {
	t.mu.Lock()
	apply(&t.counts)
	t.mu.Unlock()
}
