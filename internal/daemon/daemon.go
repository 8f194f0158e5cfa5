// Package daemon runs the long-lived reconciliation process: an initial full
// scan, then the polling change detector feeding the scan orchestrator. A
// file lock prevents two daemons from fighting over the same library.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/scanner"
	"medialink/internal/task"
	"medialink/internal/watch"
)

// Daemon owns the watcher and orchestrator lifecycle.
type Daemon struct {
	cfg          *config.Config
	orchestrator *task.Orchestrator
	watcher      *watch.Watcher
	logger       *slog.Logger

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New wires a daemon around an orchestrator.
func New(cfg *config.Config, sc *scanner.Scanner, orch *task.Orchestrator, logger *slog.Logger) *Daemon {
	d := &Daemon{
		cfg:          cfg,
		orchestrator: orch,
		logger:       logging.NewComponentLogger(logger, "daemon"),
		lockPath:     filepath.Join(filepath.Dir(cfg.DatabasePath), "medialink.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.watcher = watch.New(cfg, sc, orch.HandleDiff, logger)
	return d
}

// Start acquires the instance lock, kicks off an initial full scan, and
// begins watching for changes.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", d.lockPath, err)
	}
	if !ok {
		return errors.New("another medialink daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)

	d.orchestrator.Trigger(runCtx, nil)

	go func() {
		defer close(d.done)
		if err := d.watcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("watcher stopped", logging.Error(err))
		}
	}()

	d.logger.Info("daemon started",
		logging.String("source", d.cfg.SourceDir),
		logging.String("target", d.cfg.TargetDir),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop cancels the watcher and active scan, waits for them to drain, and
// releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	<-d.done
	d.orchestrator.Cancel()
	d.orchestrator.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Wait blocks until the watcher loop exits.
func (d *Daemon) Wait() {
	if d.done != nil {
		<-d.done
	}
}
