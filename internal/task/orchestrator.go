package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"medialink/internal/logging"
	"medialink/internal/watch"
)

// Runner executes one reconciliation pass.
type Runner interface {
	Run(ctx context.Context, t *Task, scope []string) error
}

// Orchestrator enforces single-flight scans. Triggers arriving while a run
// is active collapse into at most one pending follow-up, whose scope is the
// union of the collapsed triggers.
type Orchestrator struct {
	runner Runner
	logger *slog.Logger

	mu           sync.Mutex
	current      *Task
	running      bool
	pending      bool
	pendingFull  bool
	pendingScope []string
	cancel       context.CancelFunc
	baseCtx      context.Context
	wg           sync.WaitGroup
}

// NewOrchestrator creates an orchestrator around a runner, usually a
// Pipeline.
func NewOrchestrator(runner Runner, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner: runner,
		logger: logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// Trigger requests a run. A nil scope means a full scan. If a run is already
// active the request is folded into the pending follow-up and the active task
// is returned.
func (o *Orchestrator) Trigger(ctx context.Context, scope []string) *Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		o.pending = true
		if scope == nil {
			o.pendingFull = true
			o.pendingScope = nil
		} else if !o.pendingFull {
			o.pendingScope = mergeScope(o.pendingScope, scope)
		}
		o.logger.Debug("scan already running, follow-up queued",
			logging.String(logging.FieldTaskID, o.current.ID()))
		return o.current
	}
	return o.startLocked(ctx, scope)
}

// HandleDiff adapts settled watcher diffs into incremental triggers.
func (o *Orchestrator) HandleDiff(ctx context.Context, diff watch.Diff) {
	o.Trigger(ctx, diff.Paths())
}

// Current returns the most recent task, or nil before the first trigger.
func (o *Orchestrator) Current() *Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Cancel aborts the active run. The pending follow-up, if any, is dropped.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.pending = false
	o.pendingFull = false
	o.pendingScope = nil
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the active run and any follow-up complete.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) startLocked(ctx context.Context, scope []string) *Task {
	t := newTask(scope)
	runCtx, cancel := context.WithCancel(ctx)
	o.current = t
	o.running = true
	o.cancel = cancel
	o.baseCtx = ctx

	o.wg.Add(1)
	go o.run(runCtx, t, scope)
	return t
}

func (o *Orchestrator) run(ctx context.Context, t *Task, scope []string) {
	defer o.wg.Done()

	t.start()
	o.logger.Info("scan started",
		logging.String(logging.FieldTaskID, t.ID()),
		logging.Bool("full", scope == nil))

	err := o.runner.Run(ctx, t, scope)
	switch {
	case errors.Is(err, context.Canceled):
		t.finish(StatusCancelled, nil)
	case err != nil:
		t.finish(StatusFailed, err)
		o.logger.Error("scan failed",
			logging.String(logging.FieldTaskID, t.ID()),
			logging.Error(err))
	default:
		t.finish(StatusSucceeded, nil)
		view := t.View()
		o.logger.Info("scan finished",
			logging.String(logging.FieldTaskID, view.ID),
			logging.Int("files", view.Counts.Files),
			logging.Int("matched", view.Counts.Matched),
			logging.Int("uncertain", view.Counts.Uncertain),
			logging.Int("linked", view.Counts.Linked),
			logging.Int("removed", view.Counts.Removed),
			logging.Int("errors", view.Counts.Errors))
	}

	o.mu.Lock()
	o.running = false
	o.cancel = nil
	if o.pending && o.baseCtx.Err() == nil {
		scope := o.pendingScope
		if o.pendingFull {
			scope = nil
		}
		o.pending = false
		o.pendingFull = false
		o.pendingScope = nil
		o.startLocked(o.baseCtx, scope)
	}
	o.mu.Unlock()
}

func mergeScope(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, path := range list {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			out = append(out, path)
		}
	}
	return out
}
