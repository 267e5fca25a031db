package notify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher error backoff tuning.
const (
	watchErrInitBackoff = 1 * time.Second
	watchErrMaxBackoff  = 30 * time.Second
	watchErrBackoffMult = 2
)

// fsWatcher abstracts filesystem event monitoring. Satisfied by
// *fsnotify.Watcher; tests inject a fake.
type fsWatcher interface {
	Add(name string) error
	Remove(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyWrapper struct {
	w *fsnotify.Watcher
}

func (fw *fsnotifyWrapper) Add(name string) error         { return fw.w.Add(name) }
func (fw *fsnotifyWrapper) Remove(name string) error      { return fw.w.Remove(name) }
func (fw *fsnotifyWrapper) Close() error                  { return fw.w.Close() }
func (fw *fsnotifyWrapper) Events() <-chan fsnotify.Event { return fw.w.Events }
func (fw *fsnotifyWrapper) Errors() <-chan error          { return fw.w.Errors }

// LocalWatcher watches a working copy's filesystem tree and forwards every
// change outside the admin directory to a Sink.
type LocalWatcher struct {
	root           string
	sink           Sink
	logger         *slog.Logger
	watcherFactory func() (fsWatcher, error)
	sleepFunc      func(ctx context.Context, d time.Duration) error
}

// NewLocalWatcher creates a LocalWatcher rooted at root (a working copy's
// top-level directory).
func NewLocalWatcher(root string, sink Sink, logger *slog.Logger) *LocalWatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &LocalWatcher{
		root:   root,
		sink:   sink,
		logger: logger,
		watcherFactory: func() (fsWatcher, error) {
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return nil, err
			}

			return &fsnotifyWrapper{w: w}, nil
		},
		sleepFunc: ctxSleep,
	}
}

// Watch blocks, monitoring root for changes and delivering Events to the
// sink, until ctx is canceled. Returns nil on clean cancellation.
func (w *LocalWatcher) Watch(ctx context.Context) error {
	watcher, err := w.watcherFactory()
	if err != nil {
		return fmt.Errorf("notify: creating filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addWatchesRecursive(watcher); err != nil {
		return fmt.Errorf("notify: adding initial watches: %w", err)
	}

	w.logger.Info("local watcher started", "root", w.root)

	return w.loop(ctx, watcher)
}

func (w *LocalWatcher) addWatchesRecursive(watcher fsWatcher) error {
	return filepath.WalkDir(w.root, func(fsPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("walk error during watch setup", "path", fsPath, "error", walkErr.Error())
			return skipEntry(d)
		}

		if !d.IsDir() {
			return nil
		}

		if d.Name() == adminDirName {
			return filepath.SkipDir
		}

		if err := watcher.Add(fsPath); err != nil {
			w.logger.Warn("failed to add watch", "path", fsPath, "error", err.Error())
		}

		return nil
	})
}

func (w *LocalWatcher) loop(ctx context.Context, watcher fsWatcher) error {
	errBackoff := watchErrInitBackoff

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}

			w.handleEvent(ev, watcher)
			errBackoff = watchErrInitBackoff

		case watchErr, ok := <-watcher.Errors():
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watcher error", "error", watchErr.Error(), "backoff", errBackoff)
			w.sink.Notify(Event{Kind: EventWatchError, Err: watchErr, At: time.Now()})

			if sleepErr := w.sleepFunc(ctx, errBackoff); sleepErr != nil {
				return nil
			}

			errBackoff *= watchErrBackoffMult
			if errBackoff > watchErrMaxBackoff {
				errBackoff = watchErrMaxBackoff
			}
		}
	}
}

func (w *LocalWatcher) handleEvent(ev fsnotify.Event, watcher fsWatcher) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}

	relPath, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		w.logger.Warn("failed to compute relative path", "path", ev.Name, "error", err.Error())
		return
	}

	relPath = filepath.ToSlash(relPath)
	if relPath == adminDirName || strings.HasPrefix(relPath, adminDirName+"/") {
		return
	}

	if ev.Has(fsnotify.Create) {
		w.maybeWatchNewDir(ev.Name, watcher)
	}

	w.sink.Notify(Event{Kind: EventLocalChange, Path: relPath, At: time.Now()})
}

func (w *LocalWatcher) maybeWatchNewDir(path string, watcher fsWatcher) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	if err := watcher.Add(path); err != nil {
		w.logger.Warn("failed to add watch for new directory", "path", path, "error", err.Error())
	}
}

func skipEntry(d fs.DirEntry) error {
	if d != nil && d.IsDir() {
		return filepath.SkipDir
	}

	return nil
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
