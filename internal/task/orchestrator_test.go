package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"medialink/internal/testsupport"
)

// blockingRunner runs until released, recording each invocation's scope.
type blockingRunner struct {
	mu      sync.Mutex
	scopes  [][]string
	started chan struct{}
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) Run(ctx context.Context, t *Task, scope []string) error {
	r.mu.Lock()
	r.scopes = append(r.scopes, append([]string(nil), scope...))
	r.mu.Unlock()
	r.started <- struct{}{}
	select {
	case <-r.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *blockingRunner) runs() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.scopes))
	copy(out, r.scopes)
	return out
}

func TestOrchestratorSingleFlight(t *testing.T) {
	runner := newBlockingRunner()
	o := NewOrchestrator(runner, testsupport.Logger())
	ctx := context.Background()

	first := o.Trigger(ctx, nil)
	<-runner.started

	// Triggers during the run return the active task and queue one follow-up.
	second := o.Trigger(ctx, []string{"/src/a"})
	third := o.Trigger(ctx, []string{"/src/b"})
	if second.ID() != first.ID() || third.ID() != first.ID() {
		t.Fatalf("mid-run triggers must return the active task")
	}

	close(runner.release)
	<-runner.started
	o.Wait()

	runs := runner.runs()
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2 (one active + one coalesced follow-up)", len(runs))
	}
	follow := runs[1]
	if len(follow) != 2 {
		t.Fatalf("follow-up scope = %v, want union of queued triggers", follow)
	}
}

func TestOrchestratorFullScanAbsorbsIncrementalFollowups(t *testing.T) {
	runner := newBlockingRunner()
	o := NewOrchestrator(runner, testsupport.Logger())
	ctx := context.Background()

	o.Trigger(ctx, []string{"/src/a"})
	<-runner.started
	o.Trigger(ctx, []string{"/src/b"})
	o.Trigger(ctx, nil)
	o.Trigger(ctx, []string{"/src/c"})

	close(runner.release)
	<-runner.started
	o.Wait()

	runs := runner.runs()
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if len(runs[1]) != 0 {
		t.Fatalf("follow-up scope = %v, want full scan (nil scope)", runs[1])
	}
}

func TestOrchestratorCancelDropsPending(t *testing.T) {
	runner := newBlockingRunner()
	o := NewOrchestrator(runner, testsupport.Logger())
	ctx := context.Background()

	tk := o.Trigger(ctx, nil)
	<-runner.started
	o.Trigger(ctx, []string{"/src/a"})

	o.Cancel()
	o.Wait()

	if got := len(runner.runs()); got != 1 {
		t.Fatalf("pending follow-up ran after cancel: %d runs", got)
	}
	deadline := time.After(time.Second)
	for tk.View().Status == StatusRunning {
		select {
		case <-deadline:
			t.Fatalf("task did not settle after cancel")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	if status := tk.View().Status; status != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", status)
	}
}

func TestTaskViewSnapshot(t *testing.T) {
	tk := newTask([]string{"/src/a"})
	tk.start()
	tk.bump(func(c *Counts) { c.Matched = 3 })
	tk.finish(StatusSucceeded, nil)

	view := tk.View()
	if view.Status != StatusSucceeded || view.Counts.Matched != 3 {
		t.Fatalf("view = %+v", view)
	}
	if view.ID == "" {
		t.Fatalf("task id empty")
	}
	if view.FinishedAt.Before(view.StartedAt) {
		t.Fatalf("finish precedes start")
	}
}
