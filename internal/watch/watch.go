// Package watch turns bursts of file system events under the source
// directories into single, debounced change batches.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/fsutil"
)

// DefaultDebounce is the quiet period that ends a batch.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a set of directories recursively.
type Watcher struct {
	root     string
	dirs     []string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	changes  chan []string

	mu      sync.Mutex
	pending map[string]struct{}
}

// New creates a watcher for dirs, which are relative to root. Directories
// that do not exist are ignored.
func New(root string, dirs []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		dirs:     dirs,
		debounce: debounce,
		fsw:      fsw,
		changes:  make(chan []string, 1),
		pending:  make(map[string]struct{}),
	}, nil
}

// Changes delivers sorted, root-relative paths, one slice per quiet period.
// It is closed when the watcher stops.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Start registers the watches and begins processing events until ctx is
// done. Events that happen after Start returns are never lost.
func (w *Watcher) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	watched := 0
	for _, dir := range w.dirs {
		abs := filepath.Join(w.root, filepath.FromSlash(dir))
		if !fsutil.IsDir(abs) {
			logger.Debug("Skipping missing directory.", "dir", dir)
			continue
		}
		subdirs, err := fsutil.Dirs(abs)
		if err != nil {
			return err
		}
		for _, d := range subdirs {
			if err := w.fsw.Add(d); err != nil {
				logger.Warn("Failed to watch directory.", "path", d, "error", err)
				continue
			}
			watched++
		}
	}
	if watched == 0 {
		_ = w.fsw.Close()
		return errors.New("nothing to watch: none of the source directories exist")
	}
	logger.Info("👀 Watching for changes.", "dirs", w.dirs, "watches", watched, "debounce", w.debounce)

	go w.loop(ctx)
	return nil
}

// Stop releases the underlying watches.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	defer close(w.changes)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.handle(ctx, event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("Watcher error.", "error", err)

		case <-timer.C:
			batch := w.drain()
			if len(batch) == 0 {
				continue
			}
			select {
			case w.changes <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handle records a relevant event and reports whether it was kept.
func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) bool {
	logger := ctxlog.FromContext(ctx)
	name := filepath.Base(event.Name)
	if ignored(name) || event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				logger.Warn("Failed to watch new directory.", "path", event.Name, "error", err)
			}
			return false
		}
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}
	rel = filepath.ToSlash(rel)
	logger.Debug("Change detected.", "path", rel, "op", event.Op.String())

	w.mu.Lock()
	w.pending[rel] = struct{}{}
	w.mu.Unlock()
	return true
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(batch)
	return batch
}

// ignored filters editor droppings and hidden files.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
