// Package watcher watches catalog directories with fsnotify and reports settled
// file changes and removals.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/debounce"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches catalog directories. Events for a path are debounced; once a
// path has been quiet for the debounce interval, onChange is called if the file
// exists and onRemove otherwise. An editor's remove-then-create save therefore
// arrives as a single change.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onChange   func(path string)
	onRemove   func(path string)
	delay      time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  map[string]*debounce.Debouncer[string]
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a path must be quiet before it is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// NewWatcher creates a watcher over roots. Only files whose extension is in
// extensions are reported (empty = all). Missing roots are created on Start.
func NewWatcher(roots, extensions []string, recursive bool, onChange, onRemove func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		onChange:   onChange,
		onRemove:   onRemove,
		delay:      defaultDebounce,
		logger:     zap.NewNop(),
		pending:    make(map[string]*debounce.Debouncer[string]),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := w.addRoot(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.started = true
	w.logger.Debug("watcher started", zap.Strings("roots", w.roots), zap.Strings("extensions", w.extensions))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.recursive {
				if err := w.addRoot(fsw, path); err != nil {
					w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
				}
				w.syncDirectory(path)
			}
			return
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if matchExtension(path, w.extensions) {
		w.schedule(path)
	}
}

// schedule restarts the quiet period of path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	d, ok := w.pending[path]
	if !ok {
		d = debounce.New(w.delay, w.settle)
		w.pending[path] = d
	}
	d.Set(path)
}

// settle reports path once it has been quiet.
func (w *Watcher) settle(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	stopped := !w.started
	w.mu.Unlock()
	if stopped {
		return
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		w.logger.Debug("watcher file changed", zap.String("path", path))
		if w.onChange != nil {
			w.onChange(path)
		}
	case errors.Is(err, fs.ErrNotExist):
		w.logger.Debug("watcher file removed", zap.String("path", path))
		if w.onRemove != nil {
			w.onRemove(path)
		}
	default:
		w.logger.Debug("watcher stat failed", zap.String("path", path), zap.Error(err))
	}
}

func (w *Watcher) syncDirectory(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if matchExtension(path, w.extensions) && w.onChange != nil {
			w.onChange(path)
		}
		return nil
	})
}

// SyncExistingFiles reports every matching file already present under the roots
// as changed. Call it after Start to pick up files present at startup.
func (w *Watcher) SyncExistingFiles() {
	for _, root := range w.Directories() {
		w.syncDirectory(root)
	}
}

// Directories returns a copy of the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher and drops pending events.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, d := range w.pending {
		d.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
