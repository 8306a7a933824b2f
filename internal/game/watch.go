package game

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileWatcher polls file modification times and calls onChange once per scan in
// which at least one file changed.
type FileWatcher struct {
	paths    []string
	interval time.Duration
	onChange func(changed []string)
	log      *zap.Logger

	started   bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	done      chan struct{}
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for paths. A nil logger is replaced by a no-op one.
func NewFileWatcher(paths []string, interval time.Duration, log *zap.Logger, onChange func([]string)) *FileWatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileWatcher{
		paths:     append([]string(nil), paths...),
		interval:  interval,
		onChange:  onChange,
		log:       log,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// Start primes the mtime cache and begins polling in a goroutine.
func (w *FileWatcher) Start() {
	w.started = true
	w.scan(true)
	ticker := time.NewTicker(w.interval)
	go func() {
		defer close(w.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scan(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher and waits for the polling goroutine to exit.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.started {
		<-w.done
	}
}

func (w *FileWatcher) scan(prime bool) {
	var changed []string
	for _, p := range w.paths {
		fi, err := os.Stat(p)
		if err != nil {
			// missing files are skipped until they reappear
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime {
			continue
		}
		if !ok || mt.After(last) {
			changed = append(changed, p)
		}
	}
	if len(changed) == 0 || w.onChange == nil {
		return
	}
	w.log.Info("game files changed", zap.Strings("paths", changed))
	w.onChange(changed)
}
