// Package watch monitors drop folders for workbooks and enriches each one as it arrives.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/klytics/boatkit/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Config holds the watcher configuration.
type Config struct {
	Directories []string
	Recursive   bool
	Debounce    time.Duration
	// Pattern is an optional glob matched against the file's base name.
	Pattern string
}

// Handler processes one workbook. Calls are serialised.
type Handler func(ctx context.Context, path string) error

// Event records what happened to a detected file.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// Watcher monitors directories and hands new or modified workbooks to Handler.
type Watcher struct {
	Config  Config
	Handler Handler
	Logger  *slog.Logger

	mu       sync.Mutex
	events   []Event
	debounce map[string]*time.Timer
	written  map[string]time.Time

	run     sync.Mutex
	watcher *fsnotify.Watcher
}

// New creates a Watcher. Start must be called to begin watching.
func New(cfg Config, h Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	return &Watcher{
		Config:   cfg,
		Handler:  h,
		Logger:   logger.Discard(),
		debounce: make(map[string]*time.Timer),
		written:  make(map[string]time.Time),
		watcher:  fsw,
	}, nil
}

// Start watches the configured directories. It blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else if err := w.watcher.Add(absDir); err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	w.Logger.Info("watching for workbooks", "directories", w.Config.Directories, "recursive", w.Config.Recursive)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			w.Logger.Info("stopping watcher")
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.matches(event.Name) {
		return
	}

	path := event.Name
	op := event.Op.String()

	w.mu.Lock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(w.Config.Debounce, func() {
		w.process(ctx, path, op)
	})
	w.mu.Unlock()
}

// matches reports whether path names a workbook the watcher should pick up.
// Office lock files (~$) and hidden temp files are ignored.
func (w *Watcher) matches(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return false
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return false
	}

	if w.Config.Pattern != "" {
		if ok, _ := filepath.Match(w.Config.Pattern, base); !ok {
			return false
		}
	}
	return true
}

// process runs the handler for path unless the file is exactly as the
// handler last left it, which is the case for events caused by our own write-back.
func (w *Watcher) process(ctx context.Context, path, op string) {
	w.run.Lock()
	defer w.run.Unlock()

	if ctx.Err() != nil {
		return
	}

	evt := Event{Time: time.Now(), Path: path, Operation: op}

	info, err := os.Stat(path)
	if err != nil {
		// Removed or renamed before the debounce fired
		evt.Status = "skipped"
		w.record(evt)
		return
	}

	w.mu.Lock()
	last, seen := w.written[path]
	w.mu.Unlock()
	if seen && info.ModTime().Equal(last) {
		evt.Status = "skipped"
		w.record(evt)
		return
	}

	if w.Handler == nil {
		evt.Status = "skipped"
		w.record(evt)
		return
	}

	if err := w.Handler(ctx, path); err != nil {
		evt.Status = "error"
		evt.Error = err.Error()
		w.Logger.Error("could not process workbook", "path", path, "error", err)
	} else {
		evt.Status = "processed"
		w.Logger.Info("processed workbook", "path", path)
	}

	if info, err := os.Stat(path); err == nil {
		w.mu.Lock()
		w.written[path] = info.ModTime()
		w.mu.Unlock()
	}
	w.record(evt)
}

func (w *Watcher) record(evt Event) {
	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
}

// Events returns a copy of all recorded events.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}
