// Package watcher reports debounced changes to the files of a local rule
// pack.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	Create EventOp = iota
	Write
	Remove
	Rename
)

// String returns the string representation of EventOp.
func (op EventOp) String() string {
	switch op {
	case Create:
		return "Create"
	case Write:
		return "Write"
	case Remove:
		return "Remove"
	case Rename:
		return "Rename"
	default:
		return "Unknown"
	}
}

// Event represents a file system change event.
type Event struct {
	Path string
	Op   EventOp
	Time time.Time
}

// WatcherConfig holds configuration for the file system watcher.
type WatcherConfig struct {
	Paths           []string
	ExcludePatterns []string
	// Extensions limits events to files with these suffixes. Empty means all.
	Extensions []string
}

// Watcher watches file system paths for changes and emits debounced events.
type Watcher struct {
	cfg     WatcherConfig
	matcher *ExcludeMatcher
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	closed  bool
}

// NewWatcher creates a new file system watcher with the given configuration.
// Paths are made absolute so exclude patterns see full paths.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	matcher, err := NewExcludeMatcher(cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(paths, abs) {
			paths = append(paths, abs)
		}
	}
	cfg.Paths = paths

	return &Watcher{
		cfg:     cfg,
		matcher: matcher,
	}, nil
}

// Start begins watching configured paths and returns a channel of debounced
// events. The channel is closed when ctx is cancelled or the watcher closes.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	// Recursively add directories.
	for _, root := range w.cfg.Paths {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	out := make(chan Event, 100)
	go w.eventLoop(ctx, fsw, out)
	return out, nil
}

// Close shuts down the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if !info.IsDir() {
			return nil
		}
		if w.matcher.Match(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) wanted(path string) bool {
	if w.matcher.Match(path) {
		return false
	}
	if len(w.cfg.Extensions) == 0 {
		return true
	}
	return slices.Contains(w.cfg.Extensions, filepath.Ext(path))
}

const debounceWindow = 100 * time.Millisecond

// eventLoop owns out. Debounce timers only signal the loop through fired, so
// nothing is sent on out after it is closed.
func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)

	type pending struct {
		event Event
		timer *time.Timer
	}
	pendingEvents := make(map[string]*pending)
	fired := make(chan *pending)
	done := make(chan struct{})

	defer func() {
		close(done)
		for _, p := range pendingEvents {
			p.timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case p := <-fired:
			// A superseded timer may fire before Stop takes effect.
			if pendingEvents[p.event.Path] != p {
				continue
			}
			delete(pendingEvents, p.event.Path)
			select {
			case out <- p.event:
			case <-ctx.Done():
				return
			}

		case fsEvent, ok := <-fsw.Events:
			if !ok {
				return
			}

			op, valid := convertOp(fsEvent.Op)
			if !valid {
				continue
			}

			// If a new directory is created, add it to the watcher.
			if op == Create {
				if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
					if !w.matcher.Match(fsEvent.Name) {
						_ = w.addRecursive(fsEvent.Name)
					}
					continue
				}
			}

			if !w.wanted(fsEvent.Name) {
				continue
			}

			// Debounce: the last event for a path within the window wins.
			if prev, exists := pendingEvents[fsEvent.Name]; exists {
				prev.timer.Stop()
			}
			p := &pending{event: Event{Path: fsEvent.Name, Op: op, Time: time.Now()}}
			p.timer = time.AfterFunc(debounceWindow, func() {
				select {
				case fired <- p:
				case <-done:
				}
			})
			pendingEvents[fsEvent.Name] = p

		case _, ok := <-fsw.Errors:
			if !ok {
				return
			}
			// Errors are dropped; watching continues.
		}
	}
}

func convertOp(op fsnotify.Op) (EventOp, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Create, true
	case op.Has(fsnotify.Write):
		return Write, true
	case op.Has(fsnotify.Remove):
		return Remove, true
	case op.Has(fsnotify.Rename):
		return Rename, true
	default:
		return 0, false
	}
}
