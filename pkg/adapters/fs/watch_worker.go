package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/vellumkit/vellum/pkg/core"
)

// debounceWindow is how long the watcher waits for an event burst to
// settle before emitting.
const debounceWindow = 50 * time.Millisecond

// watchWorker runs the fsnotify loop as a lifecycle worker, so a
// supervisor can restart it when the underlying watcher dies.
type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.repo.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return err
	}

	// Watch .git for index.lock so git operations can pause us.
	_ = watcher.Add(filepath.Join(w.repo.Dir, ".git"))

	w.watcher = watcher
	w.debouncer = newDebouncer(debounceWindow)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

func (w *watchWorker) logger() *slog.Logger {
	if w.repo.config.Logger != nil {
		return w.repo.config.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (w *watchWorker) reportError(err error) {
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
		return
	}
	w.logger().Error("watcher error", "error", err)
}

// handleGitLockEvent tracks .git/index.lock: a git operation in flight
// pauses event processing until the lock is released.
func (w *watchWorker) handleGitLockEvent(event fsnotify.Event, gitLocked bool) (handled, locked bool) {
	if filepath.Base(event.Name) != "index.lock" {
		return false, gitLocked
	}
	if filepath.Base(filepath.Dir(event.Name)) != ".git" {
		return false, gitLocked
	}

	switch {
	case event.Has(fsnotify.Create):
		w.logger().Debug("git operation detected, pausing watcher")
		return true, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.logger().Debug("git operation finished, reconciling")
		return true, false
	}
	return true, gitLocked
}

// reconcileAfterGitUnlock catches up on whatever the git operation changed
// while events were paused.
func (w *watchWorker) reconcileAfterGitUnlock(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		events, err := w.repo.Reconcile(ctx)
		if err != nil {
			w.reportError(fmt.Errorf("reconcile failed: %w", err))
			return err
		}
		for _, e := range events {
			w.sendEvent(ctx, e)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.reportError(fmt.Errorf("reconcile panic: %w", err))
	}))
}

// processFilesystemEvent filters, maps, and debounces one fsnotify event.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) {
	w.logger().Debug("event received", "name", event.Name, "op", event.Op.String())

	// New directories must be added to the watch set before their
	// contents start changing.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if base := filepath.Base(event.Name); base != ".git" && base != w.repo.config.SystemDir {
				_ = w.watcher.Add(event.Name)
			}
			return
		}
	}

	if w.repo.shouldIgnore(event, w.pattern) {
		return
	}

	eType := w.repo.mapEventType(event)
	if eType == "" {
		return
	}

	slug, err := w.repo.resolveSlug(event.Name)
	if err != nil {
		w.logger().Debug("slug resolution failed", "path", event.Name, "error", err)
		return
	}

	w.sendEvent(ctx, core.Event{
		Type:      eType,
		Slug:      slug,
		Timestamp: time.Now().Unix(),
	})
}

// sendEvent enqueues an event via the debouncer. The recover guards the
// narrow window where the channel closes during shutdown.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// run is the main loop of the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.logger().Enabled(ctx, slog.LevelDebug) {
				w.logger().Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.logger().Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.eventLoop(ctx)

	// Drain in-flight debounce timers before the events channel closes.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (w *watchWorker) eventLoop(ctx context.Context) error {
	gitLocked := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			if handled, locked := w.handleGitLockEvent(event, gitLocked); handled {
				unlocked := gitLocked && !locked
				gitLocked = locked
				if unlocked {
					w.reconcileAfterGitUnlock(ctx)
				}
				continue
			}

			if gitLocked {
				continue
			}

			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.reportError(wErr)
		}
	}
}
