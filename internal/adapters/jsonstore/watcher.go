// internal/adapters/jsonstore/watcher.go
package jsonstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Reloader re-reads persisted state after an external change
type Reloader interface {
	Path() string
	Reload(ctx context.Context) (bool, error)
}

// Watcher reloads the inventory when its file is edited by another process.
// Writes made by the repository itself are recognised by content digest and
// do not cause a reload.
type Watcher struct {
	repo     Reloader
	target   string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// OnReload, when set, is called after every reload that changed the inventory.
	OnReload func()

	started atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// NewWatcher creates a watcher for the repository's inventory file
func NewWatcher(repo Reloader, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	target, err := filepath.Abs(repo.Path())
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve inventory path: %w", err)
	}

	return &Watcher{
		repo:     repo,
		target:   target,
		debounce: debounce,
		watcher:  fsw,
		logger:   logger.With(slog.String("component", "inventory_watcher")),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The directory is watched rather than the file
// because atomic replacement swaps the inode on every write.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.target)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.started.Store(true)
	go w.processEvents(ctx)

	w.logger.InfoContext(ctx, "inventory watcher started",
		slog.String("file", w.target),
		slog.Duration("debounce", w.debounce))
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
		if w.started.Load() {
			<-w.done
		}
	})
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WarnContext(ctx, "file watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			changed, err := w.repo.Reload(ctx)
			if err != nil {
				w.logger.WarnContext(ctx, "failed to reload inventory", slog.String("error", err.Error()))
				continue
			}
			if changed && w.OnReload != nil {
				w.OnReload()
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
